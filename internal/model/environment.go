// Package model defines the data structures shared by the patching engine,
// its adapters and the CLI.
package model

import (
	"fmt"
	"strings"
)

// Mode is the kind of session the target application runs.
type Mode string

const (
	// ModeInteractive is a client session with a user interface.
	ModeInteractive Mode = "interactive"
	// ModeHeadless is a dedicated server session.
	ModeHeadless Mode = "headless"
)

// ParseMode accepts the mode names plus the client/server aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interactive", "client":
		return ModeInteractive, nil
	case "headless", "server":
		return ModeHeadless, nil
	}

	return "", fmt.Errorf("unknown mode %q (want interactive or headless)", s)
}

// Flags are launch-time switches that change which hook sites apply.
type Flags struct {
	// Alternate is set when the game is started with -force, which makes the
	// client boot straight into the main menu instead of a session.
	Alternate bool
}

// Environment is the read-only launch context a patch pass runs in.
type Environment struct {
	Mode       Mode
	EntryClass string
	Flags      Flags
}

// InternalName converts a dotted class name to its slash form.
func InternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// BinaryName converts an internal class name to its dotted form.
func BinaryName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}
