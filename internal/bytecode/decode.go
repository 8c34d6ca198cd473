package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"starhook.dev/pkg/starhook/internal/classfile"
)

var errTruncatedCode = errors.New("truncated bytecode")

// Code attribute entries whose offsets are not remapped on re-assembly.
const (
	attrVisibleTypeAnnotations   = "RuntimeVisibleTypeAnnotations"
	attrInvisibleTypeAnnotations = "RuntimeInvisibleTypeAnnotations"
)

// TryCatchBlock is an exception table entry expressed with labels.
type TryCatchBlock struct {
	Start     *Node
	End       *Node
	Handler   *Node
	CatchType uint16
}

type lineNumber struct {
	start *Node
	line  uint16
}

type localVariable struct {
	start     *Node
	end       *Node
	nameIndex uint16
	descIndex uint16
	index     uint16
}

// codeAttr is a nested attribute of a Code attribute. Tables that refer to
// code offsets are decoded against labels; anything else stays raw.
type codeAttr struct {
	info   classfile.AttributeInfo
	lines  []lineNumber
	locals []localVariable
	frames []frame
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errTruncatedCode
	}

	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

func (r *byteReader) u1() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *byteReader) u2() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(b), nil
}

func (r *byteReader) u4() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(b), nil
}

type decodedInsn struct {
	offset int
	insn   Instruction
}

// decodeCode turns a Code attribute into an instruction list. Every offset
// referenced by a jump, switch, exception handler or debug table gets a label
// node placed right before the instruction at that offset.
func decodeCode(code *classfile.CodeAttribute, pool classfile.ConstantPool) (*List, []TryCatchBlock, []codeAttr, error) {
	codeLen := len(code.Code)
	lb := newLabeler(codeLen)
	r := &byteReader{data: code.Code}

	var insns []decodedInsn

	boundaries := make(map[int]bool)

	for r.pos < codeLen {
		pc := r.pos

		insn, err := decodeInsn(r, pc, lb, pool)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("decoding instruction at offset %d: %w", pc, err)
		}

		boundaries[pc] = true
		insns = append(insns, decodedInsn{offset: pc, insn: insn})
	}

	blocks := make([]TryCatchBlock, len(code.ExceptionHandlers))
	for i, h := range code.ExceptionHandlers {
		var err error

		if blocks[i].Start, err = lb.at(int(h.StartPC)); err != nil {
			return nil, nil, nil, fmt.Errorf("exception handler %d: %w", i, err)
		}

		if blocks[i].End, err = lb.at(int(h.EndPC)); err != nil {
			return nil, nil, nil, fmt.Errorf("exception handler %d: %w", i, err)
		}

		if blocks[i].Handler, err = lb.at(int(h.HandlerPC)); err != nil {
			return nil, nil, nil, fmt.Errorf("exception handler %d: %w", i, err)
		}

		blocks[i].CatchType = h.CatchType
	}

	attrs := make([]codeAttr, len(code.Attributes))
	for i, info := range code.Attributes {
		attr, err := decodeCodeAttr(info, lb)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("decoding %s: %w", info.Name, err)
		}

		attrs[i] = attr
	}

	offsets := make([]int, 0, len(lb.labels))
	for off := range lb.labels {
		if off != codeLen && !boundaries[off] {
			return nil, nil, nil, fmt.Errorf("offset %d does not start an instruction", off)
		}

		offsets = append(offsets, off)
	}

	sort.Ints(offsets)

	l := &List{}
	next := 0

	for _, d := range insns {
		if next < len(offsets) && offsets[next] == d.offset {
			l.AppendNode(lb.labels[d.offset])
			next++
		}

		l.Append(d.insn)
	}

	if n, ok := lb.labels[codeLen]; ok {
		l.AppendNode(n)
	}

	l.modified = false

	return l, blocks, attrs, nil
}

func decodeInsn(r *byteReader, pc int, lb *labeler, pool classfile.ConstantPool) (Instruction, error) {
	b, err := r.u1()
	if err != nil {
		return nil, err
	}

	op := Opcode(b)
	if !op.Valid() {
		return nil, fmt.Errorf("invalid opcode 0x%02x", b)
	}

	if long, slot, ok := shortVar(op); ok {
		return &VarInsn{Op: long, Var: slot}, nil
	}

	switch {
	case op == OpWide:
		return decodeWide(r)

	case op.isVar():
		slot, err := r.u1()
		if err != nil {
			return nil, err
		}

		return &VarInsn{Op: op, Var: uint16(slot)}, nil

	case op.isJump():
		var rel int

		if op == OpGotoW || op == OpJsrW {
			v, err := r.u4()
			if err != nil {
				return nil, err
			}

			rel = int(int32(v))
		} else {
			v, err := r.u2()
			if err != nil {
				return nil, err
			}

			rel = int(int16(v))
		}

		target, err := lb.at(pc + rel)
		if err != nil {
			return nil, err
		}

		return &JumpInsn{Op: op, Target: target}, nil

	case op == OpTableswitch || op == OpLookupswitch:
		return decodeSwitch(r, op, pc, lb)

	case op.IsInvoke():
		index, err := r.u2()
		if err != nil {
			return nil, err
		}

		if op == OpInvokeinterface {
			// count and a zero byte, both derivable from the descriptor
			if _, err := r.bytes(2); err != nil {
				return nil, err
			}
		}

		ref, err := pool.MethodRef(index)
		if err != nil {
			return nil, err
		}

		return &MethodInsn{Op: op, Owner: ref.Owner, Name: ref.Name, Desc: ref.Descriptor, Interface: ref.Interface}, nil
	}

	n := operandLength(op)
	if n == 0 {
		return &Insn{Op: op}, nil
	}

	operands, err := r.bytes(n)
	if err != nil {
		return nil, err
	}

	return &RawInsn{Op: op, Operands: append([]byte(nil), operands...)}, nil
}

func decodeWide(r *byteReader) (Instruction, error) {
	b, err := r.u1()
	if err != nil {
		return nil, err
	}

	inner := Opcode(b)

	switch {
	case inner == OpIinc:
		operands, err := r.bytes(4)
		if err != nil {
			return nil, err
		}

		return &RawInsn{Op: OpWide, Operands: append([]byte{b}, operands...)}, nil
	case inner.isVar():
		slot, err := r.u2()
		if err != nil {
			return nil, err
		}

		return &VarInsn{Op: inner, Var: slot}, nil
	}

	return nil, fmt.Errorf("invalid wide operand %s", inner)
}

func decodeSwitch(r *byteReader, op Opcode, pc int, lb *labeler) (Instruction, error) {
	if _, err := r.bytes(switchPadding(pc)); err != nil {
		return nil, err
	}

	target := func() (*Node, error) {
		v, err := r.u4()
		if err != nil {
			return nil, err
		}

		return lb.at(pc + int(int32(v)))
	}

	s := &SwitchInsn{Op: op}

	var err error
	if s.Default, err = target(); err != nil {
		return nil, err
	}

	if op == OpTableswitch {
		low, err := r.u4()
		if err != nil {
			return nil, err
		}

		high, err := r.u4()
		if err != nil {
			return nil, err
		}

		s.Low, s.High = int32(low), int32(high)
		if s.High < s.Low {
			return nil, fmt.Errorf("tableswitch high %d below low %d", s.High, s.Low)
		}

		count := int64(s.High) - int64(s.Low) + 1
		if count > int64(len(r.data)) {
			return nil, errTruncatedCode
		}

		s.Targets = make([]*Node, count)
		for i := range s.Targets {
			if s.Targets[i], err = target(); err != nil {
				return nil, err
			}
		}

		return s, nil
	}

	pairs, err := r.u4()
	if err != nil {
		return nil, err
	}

	if int64(pairs) > int64(len(r.data)) {
		return nil, errTruncatedCode
	}

	s.Keys = make([]int32, pairs)
	s.Targets = make([]*Node, pairs)

	for i := range s.Keys {
		key, err := r.u4()
		if err != nil {
			return nil, err
		}

		s.Keys[i] = int32(key)
		if s.Targets[i], err = target(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// switchPadding returns the number of zero bytes between a switch opcode at
// pc and its 4-byte aligned operands.
func switchPadding(pc int) int {
	return (4 - (pc+1)%4) % 4
}

func decodeCodeAttr(info classfile.AttributeInfo, lb *labeler) (codeAttr, error) {
	attr := codeAttr{info: info}
	r := &byteReader{data: info.Data}

	switch info.Name {
	case classfile.AttrStackMapTable:
		frames, err := decodeFrames(info.Data, lb)
		if err != nil {
			return attr, err
		}

		attr.frames = frames

	case classfile.AttrLineNumberTable:
		count, err := r.u2()
		if err != nil {
			return attr, err
		}

		attr.lines = make([]lineNumber, count)
		for i := range attr.lines {
			start, err := r.u2()
			if err != nil {
				return attr, err
			}

			line, err := r.u2()
			if err != nil {
				return attr, err
			}

			if attr.lines[i].start, err = lb.at(int(start)); err != nil {
				return attr, err
			}

			attr.lines[i].line = line
		}

	case classfile.AttrLocalVariableTable, classfile.AttrLocalVariableTypeTable:
		count, err := r.u2()
		if err != nil {
			return attr, err
		}

		attr.locals = make([]localVariable, count)
		for i := range attr.locals {
			entry, err := r.bytes(10)
			if err != nil {
				return attr, err
			}

			start := int(binary.BigEndian.Uint16(entry[0:2]))
			length := int(binary.BigEndian.Uint16(entry[2:4]))

			v := &attr.locals[i]
			v.nameIndex = binary.BigEndian.Uint16(entry[4:6])
			v.descIndex = binary.BigEndian.Uint16(entry[6:8])
			v.index = binary.BigEndian.Uint16(entry[8:10])

			if v.start, err = lb.at(start); err != nil {
				return attr, err
			}

			if v.end, err = lb.at(start + length); err != nil {
				return attr, err
			}
		}
	}

	return attr, nil
}
