// Package controller provides the output side of the CLI: plain tables for
// pipes and logs, and an interactive pager for terminals.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "starhook.dev/pkg/starhook/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModePatch StartMode = iota
	ModeScan
	ModeInspect
	ModeGame
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// Mode returns the configured start mode.
func (c StartConfig) Mode() StartMode { return c.mode }

// WithMode sets the UI mode.
func WithMode(mode StartMode) StartOption {
	return func(c *StartConfig) {
		c.mode = mode
	}
}

// NewStartConfig applies options over the default patch mode.
func NewStartConfig(options ...StartOption) StartConfig {
	cfg := StartConfig{mode: ModePatch}
	for _, opt := range options {
		opt(&cfg)
	}

	return cfg
}

// UI displays the results of the workflow use cases.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context)
	DisplayGame(ctx context.Context, info m.GameInfo) error
	DisplayReport(ctx context.Context, report m.Report) error
	DisplayScan(ctx context.Context, matches []m.ScanMatch) error
	DisplayListing(ctx context.Context, title, listing string) error
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New returns the pager UI when interactive is set and the command writes to
// a terminal, and the plain UI otherwise.
func New(cmd *cobra.Command, interactive bool) UI {
	if interactive && IsTTY(cmd.OutOrStdout()) {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd)
}
