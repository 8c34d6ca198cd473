package bytecode

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func methodWith(insns ...Instruction) *MethodNode {
	return &MethodNode{Name: "run", Desc: "()V", Instructions: NewList(insns...)}
}

func TestFindInsn(t *testing.T) {
	hook := func() Instruction {
		return &MethodInsn{Op: OpInvokespecial, Owner: "a/B", Name: "<init>", Desc: "(Z)V"}
	}

	filler := func() Instruction { return &Insn{Op: OpNop} }

	isInit := InvokeNamed(OpInvokespecial, "<init>", Equals("(Z)V"))

	t.Run("first and last match", func(t *testing.T) {
		insns := make([]Instruction, 10)
		for i := range insns {
			insns[i] = filler()
		}

		insns[2] = hook()
		insns[7] = hook()

		m := methodWith(insns...)

		first, ok := FindInsn(m, isInit, false)
		require.True(t, ok)
		assert.Equal(t, 2, m.Instructions.Index(first))

		last, ok := FindInsn(m, isInit, true)
		require.True(t, ok)
		assert.Equal(t, 7, m.Instructions.Index(last))
	})

	t.Run("single match is direction independent", func(t *testing.T) {
		m := methodWith(filler(), filler(), hook(), filler())

		forward, ok := FindInsn(m, isInit, false)
		require.True(t, ok)

		backward, ok := FindInsn(m, isInit, true)
		require.True(t, ok)

		assert.Same(t, forward, backward)
	})

	t.Run("no match in either direction", func(t *testing.T) {
		m := methodWith(filler(), &Insn{Op: OpReturn})

		_, ok := FindInsn(m, isInit, false)
		assert.False(t, ok)

		_, ok = FindInsn(m, isInit, true)
		assert.False(t, ok)
	})

	t.Run("empty and missing bodies", func(t *testing.T) {
		_, ok := FindInsn(methodWith(), isInit, false)
		assert.False(t, ok)

		_, ok = FindInsn(&MethodNode{Name: "abstractRun"}, isInit, true)
		assert.False(t, ok)
	})

	t.Run("search does not mutate", func(t *testing.T) {
		m := methodWith(filler(), hook())

		_, _ = FindInsn(m, isInit, true)
		assert.False(t, m.Instructions.Modified())
		assert.Equal(t, 2, m.Instructions.Len())
	})
}

func TestPredicates(t *testing.T) {
	call := &MethodInsn{
		Op:    OpInvokespecial,
		Owner: "org/schema/schine/network/client/ClientController",
		Name:  "<init>",
		Desc:  "(Lorg/schema/schine/network/client/HostPortLoginName;ZLjava/lang/String;)V",
	}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"opcode", HasOpcode(OpInvokespecial), true},
		{"label opcode", HasOpcode(OpLabel), false},
		{"descriptor prefix", Invoke(OpInvokespecial, HasPrefix("(Lorg/schema/schine/network/client/HostPortLoginName;Z")), true},
		{"wrong opcode", Invoke(OpInvokestatic, HasPrefix("(")), false},
		{"exact descriptor", Invoke(OpInvokespecial, Equals("(Z)V")), false},
		{"owner prefix", OwnerHasPrefix("org/schema/"), true},
		{"owner shape", OwnerMatches(regexp.MustCompile(`^[a-z]{1,3}$`)), false},
		{"and", And(HasOpcode(OpInvokespecial), OwnerHasPrefix("org/")), true},
		{"or", Or(HasOpcode(OpReturn), OwnerHasPrefix("org/")), true},
		{"not", Not(HasOpcode(OpInvokespecial)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred(call))
		})
	}

	t.Run("method predicates are safe on every instruction kind", func(t *testing.T) {
		pred := InvokeNamed(OpInvokespecial, "<init>", HasPrefix("("))
		for _, insn := range []Instruction{&Label{}, &Insn{Op: OpReturn}, &VarInsn{Op: OpAload}, &RawInsn{Op: OpLdc, Operands: []byte{1}}, &JumpInsn{Op: OpGoto}, &SwitchInsn{Op: OpLookupswitch}} {
			assert.False(t, pred(insn), insn.String())
		}
	})
}

func TestMoveBefore(t *testing.T) {
	t.Run("stops after the label bound to the return", func(t *testing.T) {
		label := &Node{Insn: &Label{}}

		l := NewList(&VarInsn{Op: OpIload, Var: 0})
		l.Append(&JumpInsn{Op: OpIfeq, Target: label})
		l.Append(&Insn{Op: OpNop})
		l.AppendNode(label)
		ret := l.Append(&Insn{Op: OpReturn})

		c := l.Cursor()
		require.True(t, MoveBefore(c, OpReturn))
		assert.Same(t, ret, c.Peek())

		c.Add(&Insn{Op: OpAconstNull})
		assert.Equal(t, OpAconstNull, label.Next().Opcode())
	})

	t.Run("leaves the cursor in place when nothing matches", func(t *testing.T) {
		l := NewList(&Insn{Op: OpNop}, &Insn{Op: OpAthrow})

		c := l.Cursor()
		assert.False(t, MoveBefore(c, OpReturn))
		assert.Same(t, l.First(), c.Peek())
	})
}

func TestMethodPredicates(t *testing.T) {
	c := NewClassNode("org/schema/game/common/Starter", "java/lang/Object")

	_, err := c.AddMethod(0x0001, "getServerRunnable", "(Z)Ljava/lang/Runnable;", &Insn{Op: OpAconstNull}, &Insn{Op: OpAreturn})
	require.NoError(t, err)

	static, err := c.AddMethod(0x0009, "getServerRunnable", "(Z)Ljava/lang/Runnable;", &Insn{Op: OpAconstNull}, &Insn{Op: OpAreturn})
	require.NoError(t, err)

	pred := AllOf(MethodNamed("getServerRunnable", Equals("(Z)Ljava/lang/Runnable;")), PublicStatic)

	var found []*MethodNode

	for _, m := range c.Methods {
		if pred(m) {
			found = append(found, m)
		}
	}

	require.Len(t, found, 1)
	assert.Same(t, static, found[0])
}
