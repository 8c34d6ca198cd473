package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"starhook.dev/pkg/starhook/internal/adapter"
	adaptermocks "starhook.dev/pkg/starhook/internal/adapter/mocks"
	"starhook.dev/pkg/starhook/internal/bytecode"
	"starhook.dev/pkg/starhook/internal/classfile"
	"starhook.dev/pkg/starhook/internal/domain"
	m "starhook.dev/pkg/starhook/internal/model"
)

func TestInject(t *testing.T) {
	hook := m.DefaultHooks()[m.HookServer]

	tests := []struct {
		name string
		arg  m.Argument
		want []string
	}{
		{"null argument", m.NullConstant(), []string{"aconst_null", "aload 0", serverHookCall, "return"}},
		{"local argument", m.LoadLocal(1), []string{"aload 1", "aload 0", serverHookCall, "return"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := bytecode.NewClassNode("obf/Server", objectName)
			method := addMethod(t, c, classfile.AccPublic, "run", "()V", insn(bytecode.OpReturn))

			domain.Inject(method.Instructions.Cursor(), tt.arg, hook)

			assert.Equal(t, tt.want, listing(method))
			assert.True(t, method.Instructions.Modified())
			assert.Equal(t, 4, method.Instructions.Len())
		})
	}
}

func plannedTarget(t *testing.T, c *bytecode.ClassNode, method *bytecode.MethodNode, siteName string) domain.PatchTarget {
	t.Helper()

	return domain.PatchTarget{
		Site:     siteName,
		Class:    c,
		Method:   method,
		Cursor:   method.Instructions.Cursor(),
		Argument: m.NullConstant(),
		Hook:     m.DefaultHooks()[m.HookClient],
		Shape:    m.ShapeRunLoop,
		Rank:     2,
	}
}

func TestInjector_Apply(t *testing.T) {
	c := bytecode.NewClassNode("obf/Client", objectName)
	run := runLoop(t, c)

	injector := domain.NewInjector()
	record := injector.Apply(plannedTarget(t, c, run, "client"))

	assert.Equal(t, m.PatchRecord{
		Site:     "client",
		Class:    "obf/Client",
		Method:   "run()V",
		Shape:    m.ShapeRunLoop,
		Rank:     2,
		Hook:     m.DefaultHooks()[m.HookClient],
		Argument: "null",
	}, record)
	assert.Equal(t, uint16(6), run.MaxStack)
	assert.Equal(t, []*bytecode.ClassNode{c}, injector.Classes())
}

func TestInjector_ClassesInFirstTouchOrder(t *testing.T) {
	a := bytecode.NewClassNode("obf/A", objectName)
	b := bytecode.NewClassNode("obf/B", objectName)
	runA := runLoop(t, a)
	ctorA := constructor(t, a, "()V")
	runB := runLoop(t, b)

	injector := domain.NewInjector()
	injector.Apply(plannedTarget(t, b, runB, "server"))
	injector.Apply(plannedTarget(t, a, runA, "client"))
	injector.Apply(plannedTarget(t, a, ctorA, "main-menu"))

	assert.Equal(t, []*bytecode.ClassNode{b, a}, injector.Classes())

	emitter := adapter.NewMemoryClassEmitter()
	emitted, err := injector.Emit(context.Background(), emitter)

	require.NoError(t, err)
	require.Len(t, emitted, 2)
	assert.Equal(t, "obf/B", emitted[0].Name)
	assert.Equal(t, "obf/A", emitted[1].Name)
	assert.Positive(t, emitted[0].Size)

	data, ok := emitter.Class("obf/A")
	require.True(t, ok)
	assert.Len(t, data, emitted[1].Size)
}

func TestInjector_EmitStopsAtFirstFailure(t *testing.T) {
	a := bytecode.NewClassNode("obf/A", objectName)
	b := bytecode.NewClassNode("obf/B", objectName)

	injector := domain.NewInjector()
	injector.Apply(plannedTarget(t, a, runLoop(t, a), "server"))
	injector.Apply(plannedTarget(t, b, runLoop(t, b), "client"))

	emitter := adaptermocks.NewMockClassEmitter(t)
	emitter.EXPECT().Emit(mock.Anything, "obf/A", mock.Anything).Return(errors.New("read-only")).Once()

	emitted, err := injector.Emit(context.Background(), emitter)

	require.ErrorContains(t, err, "obf/A")
	assert.Empty(t, emitted)
}

func TestInjector_NothingApplied(t *testing.T) {
	emitter := adaptermocks.NewMockClassEmitter(t)

	emitted, err := domain.NewInjector().Emit(context.Background(), emitter)

	require.NoError(t, err)
	assert.Empty(t, emitted)
}
