package domain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"starhook.dev/pkg/starhook/internal/adapter"
	m "starhook.dev/pkg/starhook/internal/model"
)

// Launch arguments the provider understands.
const (
	GameDirArgument   = "gameDir"
	AlternateArgument = "-force"
)

// EntryClassCandidates are the launcher classes tried in order.
var EntryClassCandidates = []string{m.DefaultEntryClass}

// GameProvider locates the game inside a class source and derives the launch
// environment from its command line.
type GameProvider interface {
	Locate(ctx context.Context, jar m.Path, args *m.Arguments) (m.GameInfo, error)
	Environment(info m.GameInfo, mode m.Mode, args *m.Arguments) m.Environment
}

type gameProvider struct {
	adapter.ClassSource
}

// NewGameProvider reads game metadata from source.
func NewGameProvider(source adapter.ClassSource) GameProvider {
	return &gameProvider{ClassSource: source}
}

func (g *gameProvider) Locate(ctx context.Context, jar m.Path, args *m.Arguments) (m.GameInfo, error) {
	entry, err := g.findEntryClass(ctx)
	if err != nil {
		return m.GameInfo{}, err
	}

	version := g.readVersion(ctx)

	return m.GameInfo{
		ID:         m.GameID(version),
		Name:       m.GameName(version),
		Version:    version,
		EntryClass: entry,
		Jar:        jar,
		LaunchDir:  m.Path(args.GetOrDefault(GameDirArgument, ".")),
	}, nil
}

func (g *gameProvider) Environment(info m.GameInfo, mode m.Mode, args *m.Arguments) m.Environment {
	return m.Environment{
		Mode:       mode,
		EntryClass: info.EntryClass,
		Flags:      m.Flags{Alternate: args.HasExtra(AlternateArgument)},
	}
}

func (g *gameProvider) findEntryClass(ctx context.Context) (string, error) {
	for _, candidate := range EntryClassCandidates {
		_, err := g.ReadClass(ctx, m.InternalName(candidate))
		if err == nil {
			return candidate, nil
		}

		if !errors.Is(err, adapter.ErrClassNotFound) {
			return "", fmt.Errorf("failed to read entry class %s: %w", candidate, err)
		}
	}

	return "", fmt.Errorf("%w: none of %v", adapter.ErrClassNotFound, EntryClassCandidates)
}

func (g *gameProvider) readVersion(ctx context.Context) *m.VersionData {
	data, err := g.ReadResource(ctx, m.VersionFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to read game version", "file", m.VersionFile, "error", err)
		}

		return nil
	}

	return m.ParseVersionData(string(data))
}
