package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opcodes(l *List) []Opcode {
	var ops []Opcode
	for n := l.First(); n != nil; n = n.Next() {
		ops = append(ops, n.Opcode())
	}

	return ops
}

func TestCursor(t *testing.T) {
	t.Run("add inserts before the next node in call order", func(t *testing.T) {
		l := NewList(&Insn{Op: OpNop}, &Insn{Op: OpReturn})
		assert.False(t, l.Modified())

		c := l.Cursor()
		c.Next()
		c.Add(&Insn{Op: OpAconstNull})
		c.Add(&Insn{Op: OpPop})

		assert.Equal(t, []Opcode{OpNop, OpAconstNull, OpPop, OpReturn}, opcodes(l))
		assert.Equal(t, 4, l.Len())
		assert.True(t, l.Modified())
		assert.Equal(t, OpReturn, c.Peek().Opcode())
	})

	t.Run("earlier cursors keep their position after insertions", func(t *testing.T) {
		l := NewList(&Insn{Op: OpNop}, &Insn{Op: OpDup}, &Insn{Op: OpReturn})
		ret := l.Last()

		early := l.Cursor()
		late := l.CursorBefore(ret)

		late.Add(&Insn{Op: OpPop})
		early.Add(&Insn{Op: OpAconstNull})

		assert.Equal(t, []Opcode{OpAconstNull, OpNop, OpDup, OpPop, OpReturn}, opcodes(l))
		assert.Equal(t, OpNop, early.Peek().Opcode())
		assert.Same(t, ret, late.Peek())
	})

	t.Run("walks backwards", func(t *testing.T) {
		l := NewList(&Insn{Op: OpNop}, &Insn{Op: OpReturn})

		c := l.CursorEnd()
		require.True(t, c.HasPrevious())
		assert.Equal(t, OpReturn, c.Previous().Opcode())
		assert.Equal(t, OpNop, c.Previous().Opcode())
		assert.False(t, c.HasPrevious())
		assert.Nil(t, c.Previous())
		assert.True(t, c.HasNext())
	})

	t.Run("add at the end appends", func(t *testing.T) {
		l := NewList(&Insn{Op: OpNop})

		c := l.CursorEnd()
		n := c.Add(&Insn{Op: OpReturn})

		assert.Same(t, n, l.Last())
		assert.Same(t, l, n.List())
		assert.Equal(t, 1, l.Index(n))
	})

	t.Run("cursor after a node", func(t *testing.T) {
		l := NewList(&Insn{Op: OpNop}, &Insn{Op: OpReturn})

		c := l.CursorAfter(l.First())
		c.Add(&Insn{Op: OpPop})

		assert.Equal(t, []Opcode{OpNop, OpPop, OpReturn}, opcodes(l))
	})
}

func TestListAppendNodeTwicePanics(t *testing.T) {
	label := &Node{Insn: &Label{}}

	l := NewList()
	l.AppendNode(label)

	assert.Panics(t, func() { NewList().AppendNode(label) })
	assert.Equal(t, -1, NewList().Index(label))
}
