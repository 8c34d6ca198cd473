package domain

import (
	"starhook.dev/pkg/starhook/internal/bytecode"
	m "starhook.dev/pkg/starhook/internal/model"
)

// FindMethod returns the first method of c, in declaration order, that
// satisfies pred.
func FindMethod(c *bytecode.ClassNode, pred bytecode.MethodPredicate) (*bytecode.MethodNode, bool) {
	if c == nil {
		return nil, false
	}

	for _, method := range c.Methods {
		if pred(method) {
			return method, true
		}
	}

	return nil, false
}

// Candidate is the method chosen to receive a hook.
type Candidate struct {
	Method *bytecode.MethodNode
	Shape  m.Shape
	Rank   m.Rank

	// Fallback is the last declared method matching any of the shapes. It is
	// tried when Method turns out to have no usable insertion point.
	Fallback      *bytecode.MethodNode
	FallbackShape m.Shape
}

// FindBestCandidate ranks every instance method of c whose name matches one
// of shapes. The highest rank wins and ties keep the method declared first.
// Methods without code never qualify.
func FindBestCandidate(c *bytecode.ClassNode, shapes []m.Shape, ranks m.RankTable) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)

	if c == nil {
		return best, false
	}

	for _, method := range c.Methods {
		if method.Instructions == nil || method.IsStatic() {
			continue
		}

		shape, ok := shapeOf(method, shapes)
		if !ok {
			continue
		}

		best.Fallback = method
		best.FallbackShape = shape

		rank := ranks[shape]
		if !found || rank > best.Rank {
			best.Method = method
			best.Shape = shape
			best.Rank = rank
			found = true
		}
	}

	return best, found
}

func shapeOf(method *bytecode.MethodNode, shapes []m.Shape) (m.Shape, bool) {
	for _, shape := range shapes {
		if method.Name == shape.MethodName() {
			return shape, true
		}
	}

	return "", false
}
