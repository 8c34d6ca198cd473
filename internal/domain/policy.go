package domain

import (
	"fmt"
	"strings"

	"starhook.dev/pkg/starhook/internal/domain/hooksites"
	m "starhook.dev/pkg/starhook/internal/model"
)

// Policy decides which hook sites a pass installs.
type Policy string

const (
	// PolicyExclusive always hooks the integrated server and then either the
	// game session or, with the alternate flag, the main menu.
	PolicyExclusive Policy = "exclusive"
	// PolicyAdditive hooks every known site.
	PolicyAdditive Policy = "additive"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyExclusive, PolicyAdditive:
		return p, nil
	case "":
		return PolicyExclusive, nil
	}

	return "", fmt.Errorf("unknown policy %q (want %s or %s)", s, PolicyExclusive, PolicyAdditive)
}

// SelectSites returns the sites to install. A non-empty explicit list wins
// over the policy.
func SelectSites(policy Policy, explicit []string, env m.Environment) ([]hooksites.Site, error) {
	if len(explicit) > 0 {
		return hooksites.Resolve(explicit)
	}

	switch policy {
	case PolicyAdditive:
		return hooksites.Resolve([]string{hooksites.Server, hooksites.Client, hooksites.MainMenu})
	case PolicyExclusive, "":
		if env.Flags.Alternate {
			return hooksites.Resolve([]string{hooksites.Server, hooksites.MainMenu})
		}

		return hooksites.Resolve([]string{hooksites.Server, hooksites.Client})
	}

	return nil, fmt.Errorf("unknown policy %q", policy)
}
