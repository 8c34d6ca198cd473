package bytecode

import (
	"regexp"
	"strings"
)

// Predicate selects instructions.
type Predicate func(Instruction) bool

// HasOpcode matches instructions with the given opcode.
func HasOpcode(op Opcode) Predicate {
	return func(i Instruction) bool { return i.Opcode() == op }
}

// Invoke matches method calls made with op whose descriptor satisfies desc.
func Invoke(op Opcode, desc func(string) bool) Predicate {
	return func(i Instruction) bool {
		m, ok := i.(*MethodInsn)
		return ok && m.Op == op && desc(m.Desc)
	}
}

// InvokeNamed matches method calls made with op to a method called name whose
// descriptor satisfies desc.
func InvokeNamed(op Opcode, name string, desc func(string) bool) Predicate {
	return func(i Instruction) bool {
		m, ok := i.(*MethodInsn)
		return ok && m.Op == op && m.Name == name && desc(m.Desc)
	}
}

// OwnerHasPrefix matches method calls whose owner starts with prefix.
func OwnerHasPrefix(prefix string) Predicate {
	return func(i Instruction) bool {
		m, ok := i.(*MethodInsn)
		return ok && strings.HasPrefix(m.Owner, prefix)
	}
}

// OwnerMatches matches method calls whose owner matches re, for example the
// short names an obfuscator assigns.
func OwnerMatches(re *regexp.Regexp) Predicate {
	return func(i Instruction) bool {
		m, ok := i.(*MethodInsn)
		return ok && re.MatchString(m.Owner)
	}
}

// Equals returns a descriptor test for an exact descriptor.
func Equals(want string) func(string) bool {
	return func(s string) bool { return s == want }
}

// HasPrefix returns a descriptor test for a descriptor prefix.
func HasPrefix(prefix string) func(string) bool {
	return func(s string) bool { return strings.HasPrefix(s, prefix) }
}

// And matches when every predicate matches.
func And(preds ...Predicate) Predicate {
	return func(i Instruction) bool {
		for _, p := range preds {
			if !p(i) {
				return false
			}
		}

		return true
	}
}

// Or matches when any predicate matches.
func Or(preds ...Predicate) Predicate {
	return func(i Instruction) bool {
		for _, p := range preds {
			if p(i) {
				return true
			}
		}

		return false
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(i Instruction) bool { return !p(i) }
}

// FindInsn returns the first node of m matching pred, scanning from the last
// instruction backwards when fromEnd is set.
func FindInsn(m *MethodNode, pred Predicate, fromEnd bool) (*Node, bool) {
	if m == nil || m.Instructions == nil {
		return nil, false
	}

	if fromEnd {
		for n := m.Instructions.Last(); n != nil; n = n.Prev() {
			if pred(n.Insn) {
				return n, true
			}
		}

		return nil, false
	}

	for n := m.Instructions.First(); n != nil; n = n.Next() {
		if pred(n.Insn) {
			return n, true
		}
	}

	return nil, false
}

// MoveBefore advances c to just before the next instruction with opcode op.
// Labels carry OpLabel and are stepped over, so a label bound to that
// instruction ends up behind the cursor and jumps to it reach code added
// there. The cursor is left where it was when no such instruction follows.
func MoveBefore(c *Cursor, op Opcode) bool {
	start := c.next

	for c.HasNext() {
		if c.Next().Opcode() == op {
			c.Previous()
			return true
		}
	}

	c.next = start

	return false
}

// MethodPredicate selects methods.
type MethodPredicate func(*MethodNode) bool

// MethodNamed matches methods by name and descriptor test.
func MethodNamed(name string, desc func(string) bool) MethodPredicate {
	return func(m *MethodNode) bool { return m.Name == name && desc(m.Desc) }
}

// PublicStatic matches public static methods.
func PublicStatic(m *MethodNode) bool { return m.IsPublic() && m.IsStatic() }

// AllOf matches when every method predicate matches.
func AllOf(preds ...MethodPredicate) MethodPredicate {
	return func(m *MethodNode) bool {
		for _, p := range preds {
			if !p(m) {
				return false
			}
		}

		return true
	}
}
