package bytecode

import (
	"fmt"
	"strings"
)

// Instruction is one element of a method's instruction stream.
type Instruction interface {
	Opcode() Opcode
	String() string
}

// Label is a position marker. It occupies no bytes and reports OpLabel, so
// searches that look for real opcodes step over it.
type Label struct{}

func (*Label) Opcode() Opcode { return OpLabel }
func (*Label) String() string { return "label" }

// Insn is an instruction without operands.
type Insn struct {
	Op Opcode
}

func (i *Insn) Opcode() Opcode { return i.Op }
func (i *Insn) String() string { return i.Op.String() }

// VarInsn loads or stores a local variable slot. Op is always the long form
// (aload, istore, ...); the assembler picks the shortest encoding.
type VarInsn struct {
	Op  Opcode
	Var uint16
}

func (i *VarInsn) Opcode() Opcode { return i.Op }
func (i *VarInsn) String() string { return fmt.Sprintf("%s %d", i.Op, i.Var) }

// MethodInsn invokes a method through a constant pool method reference.
type MethodInsn struct {
	Op        Opcode
	Owner     string
	Name      string
	Desc      string
	Interface bool
}

func (i *MethodInsn) Opcode() Opcode { return i.Op }
func (i *MethodInsn) String() string {
	return fmt.Sprintf("%s %s.%s%s", i.Op, i.Owner, i.Name, i.Desc)
}

// JumpInsn branches to the label held by Target.
type JumpInsn struct {
	Op     Opcode
	Target *Node
}

func (i *JumpInsn) Opcode() Opcode { return i.Op }
func (i *JumpInsn) String() string { return i.Op.String() }

// SwitchInsn is a tableswitch (Keys empty, Low..High) or lookupswitch.
type SwitchInsn struct {
	Op      Opcode
	Default *Node
	Low     int32
	High    int32
	Keys    []int32
	Targets []*Node
}

func (i *SwitchInsn) Opcode() Opcode { return i.Op }
func (i *SwitchInsn) String() string {
	return fmt.Sprintf("%s (%d targets)", i.Op, len(i.Targets))
}

// RawInsn carries an instruction whose operands are copied verbatim, such as
// field access, ldc or a wide iinc. Operands never contain code offsets.
type RawInsn struct {
	Op       Opcode
	Operands []byte
}

func (i *RawInsn) Opcode() Opcode { return i.Op }
func (i *RawInsn) String() string {
	if len(i.Operands) == 0 {
		return i.Op.String()
	}

	parts := make([]string, len(i.Operands))
	for n, b := range i.Operands {
		parts[n] = fmt.Sprintf("%02x", b)
	}

	return i.Op.String() + " " + strings.Join(parts, " ")
}
