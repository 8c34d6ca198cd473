package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Verification type tags of the StackMapTable attribute.
const (
	vtTop               = 0
	vtInteger           = 1
	vtFloat             = 2
	vtDouble            = 3
	vtLong              = 4
	vtNull              = 5
	vtUninitializedThis = 6
	vtObject            = 7
	vtUninitialized     = 8
)

type frameKind uint8

const (
	frameSame frameKind = iota
	frameSameLocals1
	frameChop
	frameAppend
	frameFull
)

type verificationType struct {
	tag uint8
	// index is the class constant for vtObject.
	index uint16
	// label marks the new instruction for vtUninitialized.
	label *Node
}

// frame is a StackMapTable entry anchored to a label instead of an offset,
// so it follows its instruction when code is inserted earlier in the method.
type frame struct {
	at     *Node
	kind   frameKind
	chop   int
	locals []verificationType
	stack  []verificationType
}

// labeler hands out label nodes for code offsets while a method is decoded.
type labeler struct {
	codeLen int
	labels  map[int]*Node
}

func newLabeler(codeLen int) *labeler {
	return &labeler{codeLen: codeLen, labels: make(map[int]*Node)}
}

func (lb *labeler) at(offset int) (*Node, error) {
	if offset < 0 || offset > lb.codeLen {
		return nil, fmt.Errorf("code offset %d out of range [0,%d]", offset, lb.codeLen)
	}

	if n, ok := lb.labels[offset]; ok {
		return n, nil
	}

	n := &Node{Insn: &Label{}}
	lb.labels[offset] = n

	return n, nil
}

func decodeFrames(data []byte, lb *labeler) ([]frame, error) {
	r := &byteReader{data: data}

	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	frames := make([]frame, 0, count)
	offset := -1

	for i := 0; i < int(count); i++ {
		typ, err := r.u1()
		if err != nil {
			return nil, err
		}

		f := frame{}

		var delta uint16

		switch {
		case typ <= 63:
			f.kind = frameSame
			delta = uint16(typ)
		case typ <= 127:
			f.kind = frameSameLocals1
			delta = uint16(typ - 64)
		case typ < 247:
			return nil, fmt.Errorf("reserved stack map frame type %d", typ)
		case typ == 247:
			f.kind = frameSameLocals1
		case typ <= 250:
			f.kind = frameChop
			f.chop = 251 - int(typ)
		case typ == 251:
			f.kind = frameSame
		case typ <= 254:
			f.kind = frameAppend
		default:
			f.kind = frameFull
		}

		if typ >= 247 {
			if delta, err = r.u2(); err != nil {
				return nil, err
			}
		}

		switch f.kind {
		case frameSameLocals1:
			vt, err := decodeVerificationType(r, lb)
			if err != nil {
				return nil, err
			}

			f.stack = []verificationType{vt}
		case frameAppend:
			if f.locals, err = decodeVerificationTypes(r, lb, int(typ)-251); err != nil {
				return nil, err
			}
		case frameFull:
			n, err := r.u2()
			if err != nil {
				return nil, err
			}

			if f.locals, err = decodeVerificationTypes(r, lb, int(n)); err != nil {
				return nil, err
			}

			if n, err = r.u2(); err != nil {
				return nil, err
			}

			if f.stack, err = decodeVerificationTypes(r, lb, int(n)); err != nil {
				return nil, err
			}
		}

		offset += int(delta) + 1
		if f.at, err = lb.at(offset); err != nil {
			return nil, fmt.Errorf("stack map frame %d: %w", i, err)
		}

		frames = append(frames, f)
	}

	return frames, nil
}

func decodeVerificationTypes(r *byteReader, lb *labeler, n int) ([]verificationType, error) {
	types := make([]verificationType, n)
	for i := range types {
		vt, err := decodeVerificationType(r, lb)
		if err != nil {
			return nil, err
		}

		types[i] = vt
	}

	return types, nil
}

func decodeVerificationType(r *byteReader, lb *labeler) (verificationType, error) {
	tag, err := r.u1()
	if err != nil {
		return verificationType{}, err
	}

	vt := verificationType{tag: tag}

	switch tag {
	case vtObject:
		if vt.index, err = r.u2(); err != nil {
			return vt, err
		}
	case vtUninitialized:
		off, err := r.u2()
		if err != nil {
			return vt, err
		}

		if vt.label, err = lb.at(int(off)); err != nil {
			return vt, err
		}
	case vtTop, vtInteger, vtFloat, vtDouble, vtLong, vtNull, vtUninitializedThis:
	default:
		return vt, fmt.Errorf("unknown verification type tag %d", tag)
	}

	return vt, nil
}

func encodeFrames(frames []frame, offsets map[*Node]int) ([]byte, error) {
	b := binary.BigEndian.AppendUint16(nil, uint16(len(frames)))
	prev := -1

	for i, f := range frames {
		offset, ok := offsets[f.at]
		if !ok {
			return nil, fmt.Errorf("stack map frame %d refers to a label outside the method", i)
		}

		delta := offset - prev - 1
		if delta < 0 || delta > 0xFFFF {
			return nil, fmt.Errorf("stack map frame %d has invalid offset delta %d", i, delta)
		}

		prev = offset

		switch f.kind {
		case frameSame:
			if delta <= 63 {
				b = append(b, byte(delta))
			} else {
				b = append(b, 251)
				b = binary.BigEndian.AppendUint16(b, uint16(delta))
			}
		case frameSameLocals1:
			if delta <= 63 {
				b = append(b, byte(64+delta))
			} else {
				b = append(b, 247)
				b = binary.BigEndian.AppendUint16(b, uint16(delta))
			}
		case frameChop:
			b = append(b, byte(251-f.chop))
			b = binary.BigEndian.AppendUint16(b, uint16(delta))
		case frameAppend:
			b = append(b, byte(251+len(f.locals)))
			b = binary.BigEndian.AppendUint16(b, uint16(delta))
		case frameFull:
			b = append(b, 255)
			b = binary.BigEndian.AppendUint16(b, uint16(delta))
			b = binary.BigEndian.AppendUint16(b, uint16(len(f.locals)))
		}

		var err error

		if f.kind == frameAppend || f.kind == frameFull {
			if b, err = appendVerificationTypes(b, f.locals, offsets); err != nil {
				return nil, err
			}
		}

		if f.kind == frameFull {
			b = binary.BigEndian.AppendUint16(b, uint16(len(f.stack)))
		}

		if f.kind == frameSameLocals1 || f.kind == frameFull {
			if b, err = appendVerificationTypes(b, f.stack, offsets); err != nil {
				return nil, err
			}
		}
	}

	return b, nil
}

func appendVerificationTypes(b []byte, types []verificationType, offsets map[*Node]int) ([]byte, error) {
	for _, vt := range types {
		b = append(b, vt.tag)

		switch vt.tag {
		case vtObject:
			b = binary.BigEndian.AppendUint16(b, vt.index)
		case vtUninitialized:
			offset, ok := offsets[vt.label]
			if !ok {
				return nil, errors.New("uninitialized verification type refers to a label outside the method")
			}

			b = binary.BigEndian.AppendUint16(b, uint16(offset))
		}
	}

	return b, nil
}
