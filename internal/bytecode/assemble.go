package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"starhook.dev/pkg/starhook/internal/classfile"
)

// ErrJumpOutOfRange is returned when a branch no longer fits its 16-bit offset.
var ErrJumpOutOfRange = errors.New("jump offset out of 16-bit range")

// layout assigns a code offset to every node. Labels share the offset of the
// instruction that follows them; a trailing label gets the code length.
func layout(l *List) (map[*Node]int, int, error) {
	offsets := make(map[*Node]int, l.Len())
	pc := 0

	for n := l.First(); n != nil; n = n.Next() {
		offsets[n] = pc

		size, err := insnSize(n.Insn, pc)
		if err != nil {
			return nil, 0, err
		}

		pc += size
	}

	if pc == 0 || pc > math.MaxUint16 {
		return nil, 0, fmt.Errorf("invalid code length %d", pc)
	}

	return offsets, pc, nil
}

func insnSize(insn Instruction, pc int) (int, error) {
	switch i := insn.(type) {
	case *Label:
		return 0, nil
	case *Insn:
		return 1, nil
	case *VarInsn:
		switch {
		case i.Op != OpRet && i.Var <= 3:
			return 1, nil
		case i.Var <= math.MaxUint8:
			return 2, nil
		default:
			return 4, nil
		}
	case *MethodInsn:
		if i.Op == OpInvokeinterface {
			return 5, nil
		}

		return 3, nil
	case *JumpInsn:
		if i.Op == OpGotoW || i.Op == OpJsrW {
			return 5, nil
		}

		return 3, nil
	case *SwitchInsn:
		size := 1 + switchPadding(pc)
		if i.Op == OpTableswitch {
			return size + 12 + 4*len(i.Targets), nil
		}

		return size + 8 + 8*len(i.Targets), nil
	case *RawInsn:
		return 1 + len(i.Operands), nil
	}

	return 0, fmt.Errorf("unsupported instruction %T", insn)
}

// assemble lays out the instruction list of m and rebuilds its Code
// attribute, remapping every label-based table onto the new offsets.
func assemble(m *MethodNode, pool *classfile.ConstantPool) (*classfile.CodeAttribute, error) {
	offsets, size, err := layout(m.Instructions)
	if err != nil {
		return nil, err
	}

	code := make([]byte, 0, size)
	maxLocals := int(m.MaxLocals)

	for n := m.Instructions.First(); n != nil; n = n.Next() {
		pc := len(code)

		switch i := n.Insn.(type) {
		case *Label:
		case *Insn:
			code = append(code, byte(i.Op))

		case *VarInsn:
			code = appendVarInsn(code, i)

			width := 1
			if i.Op == OpLload || i.Op == OpDload || i.Op == OpLstore || i.Op == OpDstore {
				width = 2
			}

			maxLocals = max(maxLocals, int(i.Var)+width)

		case *MethodInsn:
			index, err := pool.AddMethodRef(i.Owner, i.Name, i.Desc, i.Interface)
			if err != nil {
				return nil, fmt.Errorf("interning %s.%s%s: %w", i.Owner, i.Name, i.Desc, err)
			}

			code = append(code, byte(i.Op))
			code = binary.BigEndian.AppendUint16(code, index)

			if i.Op == OpInvokeinterface {
				slots, err := ArgumentSlots(i.Desc)
				if err != nil {
					return nil, err
				}

				code = append(code, byte(slots+1), 0)
			}

		case *JumpInsn:
			target, ok := offsets[i.Target]
			if !ok {
				return nil, fmt.Errorf("%s at offset %d targets a label outside the method", i.Op, pc)
			}

			rel := target - pc
			code = append(code, byte(i.Op))

			if i.Op == OpGotoW || i.Op == OpJsrW {
				code = binary.BigEndian.AppendUint32(code, uint32(int32(rel)))
				break
			}

			if rel < math.MinInt16 || rel > math.MaxInt16 {
				return nil, fmt.Errorf("%s at offset %d: %w", i.Op, pc, ErrJumpOutOfRange)
			}

			code = binary.BigEndian.AppendUint16(code, uint16(int16(rel)))

		case *SwitchInsn:
			if code, err = appendSwitch(code, i, pc, offsets); err != nil {
				return nil, err
			}

		case *RawInsn:
			code = append(code, byte(i.Op))
			code = append(code, i.Operands...)

		default:
			return nil, fmt.Errorf("unsupported instruction %T", n.Insn)
		}
	}

	attr := &classfile.CodeAttribute{
		MaxStack:  m.MaxStack,
		MaxLocals: uint16(min(maxLocals, math.MaxUint16)),
		Code:      code,
	}

	for i, b := range m.TryCatchBlocks {
		start, okStart := offsets[b.Start]
		end, okEnd := offsets[b.End]
		handler, okHandler := offsets[b.Handler]

		if !okStart || !okEnd || !okHandler {
			return nil, fmt.Errorf("try/catch block %d refers to a label outside the method", i)
		}

		attr.ExceptionHandlers = append(attr.ExceptionHandlers, classfile.ExceptionHandler{
			StartPC:   uint16(start),
			EndPC:     uint16(end),
			HandlerPC: uint16(handler),
			CatchType: b.CatchType,
		})
	}

	for _, a := range m.attrs {
		info, keep, err := encodeCodeAttr(a, offsets)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", a.info.Name, err)
		}

		if keep {
			attr.Attributes = append(attr.Attributes, info)
		}
	}

	return attr, nil
}

func appendVarInsn(code []byte, i *VarInsn) []byte {
	switch {
	case i.Op != OpRet && i.Var <= 3:
		var short Opcode
		if i.Op >= OpIstore {
			short = OpIstore0 + (i.Op-OpIstore)*4 + Opcode(i.Var)
		} else {
			short = OpIload0 + (i.Op-OpIload)*4 + Opcode(i.Var)
		}

		return append(code, byte(short))
	case i.Var <= math.MaxUint8:
		return append(code, byte(i.Op), byte(i.Var))
	}

	code = append(code, byte(OpWide), byte(i.Op))

	return binary.BigEndian.AppendUint16(code, i.Var)
}

func appendSwitch(code []byte, s *SwitchInsn, pc int, offsets map[*Node]int) ([]byte, error) {
	rel := func(n *Node) (uint32, error) {
		target, ok := offsets[n]
		if !ok {
			return 0, fmt.Errorf("%s at offset %d targets a label outside the method", s.Op, pc)
		}

		return uint32(int32(target - pc)), nil
	}

	code = append(code, byte(s.Op))
	code = append(code, make([]byte, switchPadding(pc))...)

	def, err := rel(s.Default)
	if err != nil {
		return nil, err
	}

	code = binary.BigEndian.AppendUint32(code, def)

	if s.Op == OpTableswitch {
		if int64(len(s.Targets)) != int64(s.High)-int64(s.Low)+1 {
			return nil, fmt.Errorf("tableswitch at offset %d has %d targets for range [%d,%d]", pc, len(s.Targets), s.Low, s.High)
		}

		code = binary.BigEndian.AppendUint32(code, uint32(s.Low))
		code = binary.BigEndian.AppendUint32(code, uint32(s.High))
	} else {
		if len(s.Keys) != len(s.Targets) {
			return nil, fmt.Errorf("lookupswitch at offset %d has %d keys for %d targets", pc, len(s.Keys), len(s.Targets))
		}

		code = binary.BigEndian.AppendUint32(code, uint32(len(s.Keys)))
	}

	for n, t := range s.Targets {
		off, err := rel(t)
		if err != nil {
			return nil, err
		}

		if s.Op == OpLookupswitch {
			code = binary.BigEndian.AppendUint32(code, uint32(s.Keys[n]))
		}

		code = binary.BigEndian.AppendUint32(code, off)
	}

	return code, nil
}

// encodeCodeAttr rebuilds a nested Code attribute. Type annotations point at
// raw offsets and are dropped.
func encodeCodeAttr(a codeAttr, offsets map[*Node]int) (classfile.AttributeInfo, bool, error) {
	info := a.info

	switch info.Name {
	case attrVisibleTypeAnnotations, attrInvisibleTypeAnnotations:
		return info, false, nil

	case classfile.AttrStackMapTable:
		data, err := encodeFrames(a.frames, offsets)
		if err != nil {
			return info, false, err
		}

		info.Data = data

	case classfile.AttrLineNumberTable:
		b := binary.BigEndian.AppendUint16(nil, uint16(len(a.lines)))
		for _, ln := range a.lines {
			start, ok := offsets[ln.start]
			if !ok {
				return info, false, fmt.Errorf("line %d refers to a label outside the method", ln.line)
			}

			b = binary.BigEndian.AppendUint16(b, uint16(start))
			b = binary.BigEndian.AppendUint16(b, ln.line)
		}

		info.Data = b

	case classfile.AttrLocalVariableTable, classfile.AttrLocalVariableTypeTable:
		b := binary.BigEndian.AppendUint16(nil, uint16(len(a.locals)))
		for _, v := range a.locals {
			start, okStart := offsets[v.start]
			end, okEnd := offsets[v.end]

			if !okStart || !okEnd || end < start {
				return info, false, fmt.Errorf("local variable %d has an invalid range", v.index)
			}

			b = binary.BigEndian.AppendUint16(b, uint16(start))
			b = binary.BigEndian.AppendUint16(b, uint16(end-start))
			b = binary.BigEndian.AppendUint16(b, v.nameIndex)
			b = binary.BigEndian.AppendUint16(b, v.descIndex)
			b = binary.BigEndian.AppendUint16(b, v.index)
		}

		info.Data = b
	}

	return info, true, nil
}
