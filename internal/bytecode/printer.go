package bytecode

import (
	"fmt"
	"io"
	"strings"

	"starhook.dev/pkg/starhook/internal/classfile"
)

// Disassemble writes a listing of every method of c accepted by filter, or of
// all methods when filter is nil. Labels are numbered in order of appearance
// and jumps refer to them by that number.
func Disassemble(w io.Writer, c *ClassNode, filter MethodPredicate) error {
	var b strings.Builder

	fmt.Fprintf(&b, "class %s", c.Name)

	if c.SuperName != "" {
		fmt.Fprintf(&b, " extends %s", c.SuperName)
	}

	b.WriteString("\n")

	for _, m := range c.Methods {
		if filter != nil && !filter(m) {
			continue
		}

		b.WriteString("\n")
		printMethod(&b, m)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func printMethod(b *strings.Builder, m *MethodNode) {
	fmt.Fprintf(b, "  %s%s%s\n", accessString(m.Access), m.Name, m.Desc)

	if m.Instructions == nil {
		b.WriteString("    (no code)\n")
		return
	}

	fmt.Fprintf(b, "    stack=%d locals=%d\n", m.MaxStack, m.MaxLocals)

	labels := make(map[*Node]string)
	for n := m.Instructions.First(); n != nil; n = n.Next() {
		if n.Opcode() == OpLabel {
			labels[n] = fmt.Sprintf("L%d", len(labels))
		}
	}

	index := 0

	for n := m.Instructions.First(); n != nil; n = n.Next() {
		if n.Opcode() == OpLabel {
			fmt.Fprintf(b, "   %s:\n", labels[n])
			continue
		}

		fmt.Fprintf(b, "    %4d: %s\n", index, insnString(n.Insn, labels))
		index++
	}

	for _, tc := range m.TryCatchBlocks {
		fmt.Fprintf(b, "    try %s-%s -> %s (type #%d)\n",
			labels[tc.Start], labels[tc.End], labels[tc.Handler], tc.CatchType)
	}
}

func insnString(insn Instruction, labels map[*Node]string) string {
	switch i := insn.(type) {
	case *JumpInsn:
		return fmt.Sprintf("%s %s", i.Op, labels[i.Target])
	case *SwitchInsn:
		var b strings.Builder

		fmt.Fprintf(&b, "%s default %s", i.Op, labels[i.Default])

		for idx, target := range i.Targets {
			key := i.Low + int32(idx)
			if i.Op == OpLookupswitch {
				key = i.Keys[idx]
			}

			fmt.Fprintf(&b, ", %d: %s", key, labels[target])
		}

		return b.String()
	}

	return insn.String()
}

func accessString(access uint16) string {
	var parts []string

	for _, f := range accessFlags {
		if access&f.flag != 0 {
			parts = append(parts, f.name)
		}
	}

	if len(parts) == 0 {
		return ""
	}

	return strings.Join(parts, " ") + " "
}

var accessFlags = []struct {
	flag uint16
	name string
}{
	{classfile.AccPublic, "public"},
	{classfile.AccPrivate, "private"},
	{classfile.AccProtected, "protected"},
	{classfile.AccStatic, "static"},
	{classfile.AccFinal, "final"},
	{classfile.AccSynchronized, "synchronized"},
	{classfile.AccNative, "native"},
	{classfile.AccAbstract, "abstract"},
}
