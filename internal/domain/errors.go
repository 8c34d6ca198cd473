package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds of patch failure. A *PatchError matches its kind with errors.Is.
var (
	ErrLandmarkNotFound = errors.New("landmark not found")
	ErrClassLoadFailure = errors.New("class load failure")
	ErrAmbiguousTarget  = errors.New("ambiguous target")
	ErrUnsupportedMode  = errors.New("unsupported mode")
)

// PatchError describes why a hook site could not be planned.
type PatchError struct {
	Kind     error
	Site     string
	Class    string
	Landmark string
	Err      error
}

func (e *PatchError) Error() string {
	var b strings.Builder

	b.WriteString(e.Kind.Error())

	if e.Site != "" {
		fmt.Fprintf(&b, " for site %s", e.Site)
	}

	if e.Class != "" {
		fmt.Fprintf(&b, " in class %s", e.Class)
	}

	if e.Landmark != "" {
		fmt.Fprintf(&b, " (expected %s)", e.Landmark)
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

// Is matches the error's kind.
func (e *PatchError) Is(target error) bool { return target == e.Kind }

func (e *PatchError) Unwrap() error { return e.Err }
