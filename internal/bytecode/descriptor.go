package bytecode

import (
	"fmt"
	"strings"
)

// ArgumentTypes splits a method descriptor into its parameter descriptors.
func ArgumentTypes(desc string) ([]string, error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, fmt.Errorf("invalid method descriptor %q", desc)
	}

	end := strings.IndexByte(desc, ')')
	if end < 0 {
		return nil, fmt.Errorf("invalid method descriptor %q", desc)
	}

	var args []string

	for i := 1; i < end; {
		start := i
		for i < end && desc[i] == '[' {
			i++
		}

		if i >= end {
			return nil, fmt.Errorf("truncated array type in %q", desc)
		}

		switch desc[i] {
		case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
			i++
		case 'L':
			semi := strings.IndexByte(desc[i:end], ';')
			if semi < 0 {
				return nil, fmt.Errorf("unterminated class type in %q", desc)
			}

			i += semi + 1
		default:
			return nil, fmt.Errorf("invalid type %q in %q", desc[i], desc)
		}

		args = append(args, desc[start:i])
	}

	return args, nil
}

// FirstParameter returns the descriptor of the first parameter, or "" when
// the method takes none or the descriptor is malformed.
func FirstParameter(desc string) string {
	args, err := ArgumentTypes(desc)
	if err != nil || len(args) == 0 {
		return ""
	}

	return args[0]
}

// ArgumentSlots returns the number of local variable slots the parameters of
// desc occupy, not counting the receiver.
func ArgumentSlots(desc string) (int, error) {
	args, err := ArgumentTypes(desc)
	if err != nil {
		return 0, err
	}

	slots := 0
	for _, a := range args {
		if a == "J" || a == "D" {
			slots += 2
		} else {
			slots++
		}
	}

	return slots, nil
}
