package model

import (
	"regexp"
	"strings"
)

// DefaultEntryClass is the launcher class of the game.
const DefaultEntryClass = "org.schema.game.common.Starter"

// VersionFile is the jar entry holding "<id>#<build time>".
const VersionFile = "version.txt"

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9.]+`)

// VersionData is the parsed content of the game's version file.
type VersionData struct {
	ID        string `yaml:"id"`
	BuildTime string `yaml:"build_time,omitempty"`
}

// ParseVersionData splits "<id>#<build time>". Surrounding whitespace is
// ignored and a missing build time is left empty.
func ParseVersionData(s string) *VersionData {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	id, buildTime, _ := strings.Cut(s, "#")

	return &VersionData{ID: strings.TrimSpace(id), BuildTime: strings.TrimSpace(buildTime)}
}

// GameInfo describes a located game installation.
type GameInfo struct {
	ID         string       `yaml:"id"`
	Name       string       `yaml:"name"`
	Version    *VersionData `yaml:"version,omitempty"`
	EntryClass string       `yaml:"entry_class"`
	Jar        Path         `yaml:"jar"`
	LaunchDir  Path         `yaml:"launch_dir"`
}

// GameID derives the loader's game id from the version data.
func GameID(v *VersionData) string {
	if v == nil || v.ID == "" {
		return "starmade-unknown"
	}

	return "starmade-" + unsafeIDChars.ReplaceAllString(v.ID, "-")
}

// GameName derives the display name from the version data.
func GameName(v *VersionData) string {
	if v == nil || v.ID == "" {
		return "StarMade"
	}

	return "StarMade " + v.ID
}

// Arguments are the game's command line split into "--key value" pairs and
// everything else.
type Arguments struct {
	keys   []string
	values map[string]string
	extras []string
}

// ParseArguments splits args the way the launcher does: "--key value" pairs,
// with an empty value when the next token is another "--" option, and every
// other token kept as an extra argument.
func ParseArguments(args []string) *Arguments {
	a := &Arguments{values: make(map[string]string)}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") || i == len(args)-1 {
			a.extras = append(a.extras, arg)
			continue
		}

		value := args[i+1]
		if strings.HasPrefix(value, "--") {
			value = ""
		} else {
			i++
		}

		a.Put(strings.TrimPrefix(arg, "--"), value)
	}

	return a
}

// Get returns the value for key.
func (a *Arguments) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// GetOrDefault returns the value for key or def when it is absent.
func (a *Arguments) GetOrDefault(key, def string) string {
	if v, ok := a.values[key]; ok {
		return v
	}

	return def
}

// Put sets key, keeping the first-seen order of keys.
func (a *Arguments) Put(key, value string) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}

	a.values[key] = value
}

// Extras returns the arguments that are not part of a key/value pair.
func (a *Arguments) Extras() []string { return a.extras }

// HasExtra reports whether arg was passed as an extra argument.
func (a *Arguments) HasExtra(arg string) bool {
	for _, e := range a.extras {
		if e == arg {
			return true
		}
	}

	return false
}

// Strings rebuilds the command line: pairs first, extras after.
func (a *Arguments) Strings() []string {
	out := make([]string, 0, 2*len(a.keys)+len(a.extras))
	for _, k := range a.keys {
		out = append(out, "--"+k, a.values[k])
	}

	return append(out, a.extras...)
}
