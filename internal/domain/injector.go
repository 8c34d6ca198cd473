package domain

import (
	"context"
	"fmt"
	"log/slog"

	"starhook.dev/pkg/starhook/internal/adapter"
	"starhook.dev/pkg/starhook/internal/bytecode"
	m "starhook.dev/pkg/starhook/internal/model"
)

// hookStack is how many operand stack slots a hook call needs.
const hookStack = 2

// Inject inserts the hook call at c: the argument, the receiver and an
// invokestatic of hook, in that order.
func Inject(c *bytecode.Cursor, arg m.Argument, hook m.HookSymbol) {
	c.Add(argumentInsn(arg))
	c.Add(&bytecode.VarInsn{Op: bytecode.OpAload, Var: 0})
	c.Add(&bytecode.MethodInsn{
		Op:    bytecode.OpInvokestatic,
		Owner: hook.Owner,
		Name:  hook.Name,
		Desc:  hook.Desc,
	})
}

func argumentInsn(arg m.Argument) bytecode.Instruction {
	if arg.Kind == m.ArgLocal {
		return &bytecode.VarInsn{Op: bytecode.OpAload, Var: arg.Slot}
	}

	return &bytecode.Insn{Op: bytecode.OpAconstNull}
}

// Injector applies planned targets and remembers which classes changed.
type Injector struct {
	touched map[*bytecode.ClassNode]bool
	classes []*bytecode.ClassNode
}

// NewInjector creates an injector with nothing applied.
func NewInjector() *Injector {
	return &Injector{touched: make(map[*bytecode.ClassNode]bool)}
}

// Apply injects the hook of t and records the class for emission.
func (i *Injector) Apply(t PatchTarget) m.PatchRecord {
	Inject(t.Cursor, t.Argument, t.Hook)
	t.Method.MaxStack += hookStack

	if !i.touched[t.Class] {
		i.touched[t.Class] = true
		i.classes = append(i.classes, t.Class)
	}

	slog.Info("Installed hook", "site", t.Site, "class", t.Class.Name, "method", t.Method.String(),
		"hook", t.Hook.String())

	return m.PatchRecord{
		Site:     t.Site,
		Class:    t.Class.Name,
		Method:   t.Method.String(),
		Shape:    t.Shape,
		Rank:     t.Rank,
		Hook:     t.Hook,
		Argument: t.Argument.String(),
	}
}

// Classes returns the modified classes in the order they were first touched.
func (i *Injector) Classes() []*bytecode.ClassNode {
	return i.classes
}

// Emit serializes every modified class and hands each one to emitter once.
// Nothing is emitted when any class fails to serialize.
func (i *Injector) Emit(ctx context.Context, emitter adapter.ClassEmitter) ([]m.EmittedClass, error) {
	encoded := make([][]byte, len(i.classes))

	for idx, c := range i.classes {
		data, err := c.Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize class %s: %w", c.Name, err)
		}

		encoded[idx] = data
	}

	emitted := make([]m.EmittedClass, 0, len(i.classes))

	for idx, c := range i.classes {
		if err := emitter.Emit(ctx, c.Name, encoded[idx]); err != nil {
			return emitted, fmt.Errorf("failed to emit class %s: %w", c.Name, err)
		}

		emitted = append(emitted, m.EmittedClass{Name: c.Name, Size: len(encoded[idx])})
	}

	return emitted, nil
}
