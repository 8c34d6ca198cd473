package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"starhook.dev/pkg/starhook/internal/adapter"
	"starhook.dev/pkg/starhook/internal/domain/hooksites"
	m "starhook.dev/pkg/starhook/internal/model"
)

// DefaultEntryPrefix limits patching to the game's own launcher.
const DefaultEntryPrefix = "org.schema."

// PatchConfig tunes a patch pass.
type PatchConfig struct {
	// EntryPrefix is the package prefix the entry class must have for the
	// pass to do anything.
	EntryPrefix   string
	AllowHeadless bool
	Policy        Policy
	// Sites overrides Policy when set.
	Sites []string
	Hooks m.Hooks
	Ranks m.Ranks
}

// DefaultPatchConfig returns the settings used when nothing is configured.
func DefaultPatchConfig() PatchConfig {
	return PatchConfig{
		EntryPrefix: DefaultEntryPrefix,
		Policy:      PolicyExclusive,
		Hooks:       m.DefaultHooks(),
		Ranks:       m.DefaultRanks(),
	}
}

// Patcher installs start hooks into the game's classes.
type Patcher interface {
	// Patch runs one pass. Either every selected site is installed and each
	// changed class is emitted once, or an error is returned and nothing is
	// changed or emitted.
	Patch(ctx context.Context, env m.Environment) (m.Report, error)
}

type patcher struct {
	adapter.ClassLoader
	adapter.ClassEmitter
	cfg PatchConfig
}

// NewPatcher constructs a Patcher reading classes from loader and writing
// changed ones to emitter.
func NewPatcher(loader adapter.ClassLoader, emitter adapter.ClassEmitter, cfg PatchConfig) (Patcher, error) {
	if loader == nil {
		return nil, fmt.Errorf("missing class loader")
	}

	if emitter == nil {
		return nil, fmt.Errorf("missing class emitter")
	}

	for _, kind := range []m.HookKind{m.HookClient, m.HookServer} {
		hook, ok := cfg.Hooks[kind]
		if !ok || hook.Owner == "" || hook.Name == "" || hook.Desc == "" {
			return nil, fmt.Errorf("missing %s hook", kind)
		}
	}

	return &patcher{ClassLoader: loader, ClassEmitter: emitter, cfg: cfg}, nil
}

func (p *patcher) Patch(ctx context.Context, env m.Environment) (m.Report, error) {
	report := m.Report{Mode: env.Mode, EntryClass: env.EntryClass, Policy: string(p.cfg.Policy)}

	if !strings.HasPrefix(env.EntryClass, p.cfg.EntryPrefix) {
		report.Skipped = fmt.Sprintf("entry class %q is outside %q", env.EntryClass, p.cfg.EntryPrefix)
		slog.Info("Skipping patch", "entryClass", env.EntryClass, "prefix", p.cfg.EntryPrefix)

		return report, nil
	}

	if env.Mode == m.ModeHeadless && !p.cfg.AllowHeadless {
		return report, &PatchError{Kind: ErrUnsupportedMode, Class: env.EntryClass,
			Err: fmt.Errorf("%s sessions are not patched", env.Mode)}
	}

	ranks, ok := p.cfg.Ranks[env.Mode]
	if !ok {
		return report, &PatchError{Kind: ErrUnsupportedMode, Class: env.EntryClass,
			Err: fmt.Errorf("no rank table for mode %q", env.Mode)}
	}

	sites, err := SelectSites(p.cfg.Policy, p.cfg.Sites, env)
	if err != nil {
		return report, err
	}

	targets, err := p.plan(ctx, env, sites, ranks)
	if err != nil {
		return report, err
	}

	for _, site := range sites {
		report.Sites = append(report.Sites, site.Name)
	}

	injector := NewInjector()
	for _, t := range targets {
		report.Records = append(report.Records, injector.Apply(t))
	}

	report.Emitted, err = injector.Emit(ctx, p.ClassEmitter)
	if err != nil {
		return report, err
	}

	return report, nil
}

// plan resolves every site before any code is touched.
func (p *patcher) plan(ctx context.Context, env m.Environment, sites []hooksites.Site, ranks m.RankTable) ([]PatchTarget, error) {
	classes := NewClassSet(p.ClassLoader)

	entry, err := classes.Get(ctx, env.EntryClass)
	if err != nil {
		return nil, &PatchError{Kind: ErrClassLoadFailure, Class: m.InternalName(env.EntryClass), Err: err}
	}

	planner := NewPlanner(classes, ranks, p.cfg.Hooks)
	targets := make([]PatchTarget, 0, len(sites))

	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		target, err := planner.Plan(ctx, entry, site)
		if err != nil {
			slog.Error("Failed to plan hook site", "site", site.Name, "error", err)
			return nil, err
		}

		slog.Debug("Planned hook site", "site", site.Name, "class", target.Class.Name,
			"method", target.Method.String(), "shape", target.Shape)

		targets = append(targets, target)
	}

	return targets, nil
}
