package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"starhook.dev/pkg/starhook/internal/adapter"
	"starhook.dev/pkg/starhook/internal/bytecode"
	"starhook.dev/pkg/starhook/internal/controller"
	"starhook.dev/pkg/starhook/internal/domain/hooksites"
	m "starhook.dev/pkg/starhook/internal/model"
)

// SourceOpener opens a jar or class directory.
type SourceOpener func(path m.Path) (adapter.ClassSource, error)

// PatchArgs contains the arguments for a patch run.
type PatchArgs struct {
	Game m.Path
	// ClassPath lists extra jars or directories searched after Game.
	ClassPath []m.Path
	Output    m.Path
	Report    m.Path
	Mode      m.Mode
	GameArgs  []string
	DryRun    bool
}

// ScanArgs contains the arguments for a landmark scan.
type ScanArgs struct {
	Game m.Path
	// Sites limits the scan, all sites are scanned when empty.
	Sites []string
	// Prefix limits the scan to classes whose internal name starts with it.
	Prefix   string
	Parallel int
}

// InspectArgs contains the arguments for disassembling a class.
type InspectArgs struct {
	Source m.Path
	Class  string
	// Method limits the listing to methods with this name.
	Method string
}

// GameArgs contains the arguments for describing a game jar.
type GameArgs struct {
	Game     m.Path
	GameArgs []string
}

// Workflow defines the use cases of the CLI.
type Workflow interface {
	Patch(ctx context.Context, args PatchArgs) error
	Scan(ctx context.Context, args ScanArgs) error
	Inspect(ctx context.Context, args InspectArgs) error
	Game(ctx context.Context, args GameArgs) error
}

type workflow struct {
	adapter.ReportStore
	controller.UI

	open SourceOpener
	cfg  PatchConfig
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	open SourceOpener,
	reportStore adapter.ReportStore,
	ui controller.UI,
	cfg PatchConfig,
) Workflow {
	return &workflow{
		ReportStore: reportStore,
		UI:          ui,
		open:        open,
		cfg:         cfg,
	}
}

func (w *workflow) Patch(ctx context.Context, args PatchArgs) error {
	source, err := w.open(args.Game)
	if err != nil {
		return fmt.Errorf("open game: %w", err)
	}
	defer source.Close()

	gameArgs := m.ParseArguments(args.GameArgs)
	provider := NewGameProvider(source)

	info, err := provider.Locate(ctx, args.Game, gameArgs)
	if err != nil {
		return fmt.Errorf("locate game: %w", err)
	}

	env := provider.Environment(info, args.Mode, gameArgs)

	loader, closeLoader, err := w.classPath(source, args.ClassPath)
	if err != nil {
		return err
	}
	defer closeLoader()

	emitter, err := w.emitter(args)
	if err != nil {
		return err
	}

	patcher, err := NewPatcher(loader, emitter, w.cfg)
	if err != nil {
		return err
	}

	slog.Info("Patching game", "game", info.ID, "entryClass", env.EntryClass, "mode", env.Mode,
		"alternate", env.Flags.Alternate)

	report, err := patcher.Patch(ctx, env)
	if err != nil {
		return fmt.Errorf("patch %s: %w", info.Name, err)
	}

	report.Game = info

	if err := emitter.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if args.Report != "" {
		if err := w.SaveReport(args.Report, report); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
	}

	return w.show(ctx, controller.ModePatch, func() error { return w.DisplayReport(ctx, report) })
}

func (w *workflow) classPath(source adapter.ClassSource, extra []m.Path) (adapter.ClassLoader, func(), error) {
	if len(extra) == 0 {
		return source, func() {}, nil
	}

	chain := adapter.ChainClassLoader{source}
	opened := make([]adapter.ClassSource, 0, len(extra))

	closeAll := func() {
		for _, s := range opened {
			if err := s.Close(); err != nil {
				slog.Error("Failed to close class path entry", "error", err)
			}
		}
	}

	for _, path := range extra {
		s, err := w.open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open class path entry: %w", err)
		}

		opened = append(opened, s)
		chain = append(chain, s)
	}

	return chain, closeAll, nil
}

func (w *workflow) emitter(args PatchArgs) (adapter.ClassEmitter, error) {
	switch {
	case args.DryRun:
		return adapter.NewMemoryClassEmitter(), nil
	case args.Output == "":
		return nil, fmt.Errorf("missing output path")
	case samePath(args.Output, args.Game):
		return nil, fmt.Errorf("output %s would overwrite the game jar %s", args.Output, args.Game)
	case strings.HasSuffix(string(args.Output), ".jar"):
		return adapter.NewJarClassEmitter(args.Game, args.Output), nil
	}

	return adapter.NewDirClassEmitter(args.Output), nil
}

// samePath reports whether a and b name the same file, either lexically or,
// when both exist, through links.
func samePath(a, b m.Path) bool {
	absA, errA := filepath.Abs(string(a))
	absB, errB := filepath.Abs(string(b))

	if errA == nil && errB == nil && absA == absB {
		return true
	}

	infoA, errA := os.Stat(string(a))
	infoB, errB := os.Stat(string(b))

	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

func (w *workflow) Scan(ctx context.Context, args ScanArgs) error {
	sites, err := scanSites(args.Sites)
	if err != nil {
		return err
	}

	source, err := w.open(args.Game)
	if err != nil {
		return fmt.Errorf("open game: %w", err)
	}
	defer source.Close()

	matches, err := ScanClasses(ctx, source, sites, args.Prefix, args.Parallel)
	if err != nil {
		return err
	}

	return w.show(ctx, controller.ModeScan, func() error { return w.DisplayScan(ctx, matches) })
}

func scanSites(names []string) ([]hooksites.Site, error) {
	if len(names) == 0 {
		names = hooksites.Names()
	}

	return hooksites.Resolve(names)
}

// ScanClasses looks for the landmark of every site in every class of source
// whose name starts with prefix. Classes are parsed concurrently, at most
// parallel at a time, and classes that fail to parse are skipped.
func ScanClasses(ctx context.Context, source adapter.ClassSource, sites []hooksites.Site, prefix string, parallel int) ([]m.ScanMatch, error) {
	classes, err := source.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}

	var (
		mu      sync.Mutex
		matches []m.ScanMatch
	)

	group, groupCtx := errgroup.WithContext(ctx)
	if parallel > 0 {
		group.SetLimit(parallel)
	}

	for _, entry := range classes {
		if !strings.HasPrefix(entry.Name, prefix) {
			continue
		}

		name := entry.Name

		group.Go(func() error {
			class, err := source.LoadClass(groupCtx, name)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}

				slog.Warn("Skipping unreadable class", "class", name, "error", err)

				return nil
			}

			found := scanClass(class, sites)
			if len(found) == 0 {
				return nil
			}

			mu.Lock()
			matches = append(matches, found...)
			mu.Unlock()

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Class != b.Class {
			return a.Class < b.Class
		}

		if a.Method != b.Method {
			return a.Method < b.Method
		}

		if a.Index != b.Index {
			return a.Index < b.Index
		}

		return a.Site < b.Site
	})

	return matches, nil
}

func scanClass(class *bytecode.ClassNode, sites []hooksites.Site) []m.ScanMatch {
	var matches []m.ScanMatch

	for _, method := range class.Methods {
		if method.Instructions == nil {
			continue
		}

		index := 0

		for n := method.Instructions.First(); n != nil; n = n.Next() {
			if n.Opcode() == bytecode.OpLabel {
				continue
			}

			for _, site := range sites {
				if site.Landmark(n.Insn) {
					matches = append(matches, m.ScanMatch{
						Site:     site.Name,
						Landmark: site.LandmarkDesc,
						Class:    class.Name,
						Method:   method.String(),
						Index:    index,
						Insn:     n.Insn.String(),
					})
				}
			}

			index++
		}
	}

	return matches
}

func (w *workflow) Inspect(ctx context.Context, args InspectArgs) error {
	source, err := w.open(args.Source)
	if err != nil {
		return fmt.Errorf("open class source: %w", err)
	}
	defer source.Close()

	class, err := source.LoadClass(ctx, m.InternalName(args.Class))
	if err != nil {
		return fmt.Errorf("load class: %w", err)
	}

	var filter bytecode.MethodPredicate
	if args.Method != "" {
		filter = func(method *bytecode.MethodNode) bool { return method.Name == args.Method }
	}

	var listing strings.Builder
	if err := bytecode.Disassemble(&listing, class, filter); err != nil {
		return fmt.Errorf("disassemble %s: %w", class.Name, err)
	}

	return w.show(ctx, controller.ModeInspect, func() error {
		return w.DisplayListing(ctx, class.Name, listing.String())
	})
}

func (w *workflow) Game(ctx context.Context, args GameArgs) error {
	source, err := w.open(args.Game)
	if err != nil {
		return fmt.Errorf("open game: %w", err)
	}
	defer source.Close()

	info, err := NewGameProvider(source).Locate(ctx, args.Game, m.ParseArguments(args.GameArgs))
	if err != nil {
		return fmt.Errorf("locate game: %w", err)
	}

	return w.show(ctx, controller.ModeGame, func() error { return w.DisplayGame(ctx, info) })
}

func (w *workflow) show(ctx context.Context, mode controller.StartMode, display func() error) error {
	if err := w.Start(ctx, controller.WithMode(mode)); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	if err := display(); err != nil {
		return err
	}

	w.Wait(ctx)

	return nil
}
