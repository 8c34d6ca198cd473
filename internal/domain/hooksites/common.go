// Package hooksites describes where start hooks are installed in the game.
//
// Every site is plain data: a predicate finding the launcher method on the
// entry class, a predicate finding the landmark call that reveals the real
// target class, and the shapes of method the hook may go into. Adding a site
// for a newer game build means adding a file here, not touching the planner.
package hooksites

import (
	"fmt"
	"sort"

	"starhook.dev/pkg/starhook/internal/bytecode"
	m "starhook.dev/pkg/starhook/internal/model"
)

// HostPortLoginNamePrefix is the descriptor prefix shared by the client
// launcher and the constructor of the game's client state.
const HostPortLoginNamePrefix = "(Lorg/schema/schine/network/client/HostPortLoginName;Z"

// Site is one place a start hook can be installed.
type Site struct {
	Name string

	// Launcher finds the well-known method on the entry class.
	Launcher bytecode.MethodPredicate
	// LauncherDesc is a human readable form of Launcher for diagnostics.
	LauncherDesc string

	// Landmark finds the call inside the launcher whose owner is the real target.
	Landmark bytecode.Predicate
	// LandmarkDesc is a human readable form of Landmark for diagnostics.
	LandmarkDesc string
	// FromEnd searches the launcher body backwards. The real constructor call
	// is the last matching call when arguments are built with nested calls.
	FromEnd bool

	// Shapes lists the method shapes the hook may go into, ranked per mode.
	Shapes []m.Shape
	// Hook selects the client or server hook.
	Hook m.HookKind
	// PassesRunDir hands the game directory to the hook when the chosen
	// method receives it as its first parameter.
	PassesRunDir bool
}

func (s Site) String() string { return s.Name }

var registry = map[string]Site{}

func register(s Site) {
	if _, dup := registry[s.Name]; dup {
		panic(fmt.Sprintf("hooksites: duplicate site %q", s.Name))
	}

	registry[s.Name] = s
}

// Lookup returns the named site.
func Lookup(name string) (Site, bool) {
	s, ok := registry[name]
	return s, ok
}

// Names returns every registered site name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Resolve maps names to sites, failing on the first unknown name.
func Resolve(names []string) ([]Site, error) {
	sites := make([]Site, 0, len(names))
	for _, name := range names {
		s, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown hook site %q (known: %v)", name, Names())
		}

		sites = append(sites, s)
	}

	return sites, nil
}

func launcher(name string, desc func(string) bool) bytecode.MethodPredicate {
	return bytecode.AllOf(bytecode.MethodNamed(name, desc), bytecode.PublicStatic)
}
