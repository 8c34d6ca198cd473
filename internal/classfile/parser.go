package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

const classMagic = 0xCAFEBABE

var errTruncated = errors.New("unexpected end of class data")

// reader walks a class file held in memory.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errTruncated
	}

	b := r.data[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

func (r *reader) u1() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *reader) u2() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u4() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(b), nil
}

// ParseFile opens and parses a .class file from the given path.
func ParseFile(path string) (*ClassFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseBytes(data)
}

// Parse reads a .class file from the given reader and returns a ClassFile.
func Parse(r io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading class data: %w", err)
	}

	return ParseBytes(data)
}

// ParseBytes parses an in-memory .class file.
func ParseBytes(data []byte) (*ClassFile, error) {
	r := &reader{data: data}
	cf := &ClassFile{}

	magic, err := r.u4()
	if err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}

	if magic != classMagic {
		return nil, fmt.Errorf("invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	if cf.MinorVersion, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}

	if cf.MajorVersion, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}

	cpCount, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}

	if cf.ConstantPool, err = parseConstantPool(r, cpCount); err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}

	if cf.AccessFlags, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading access flags: %w", err)
	}

	if cf.ThisClass, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}

	if cf.SuperClass, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading super_class: %w", err)
	}

	interfacesCount, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading interfaces count: %w", err)
	}

	cf.Interfaces = make([]uint16, interfacesCount)
	for i := range cf.Interfaces {
		if cf.Interfaces[i], err = r.u2(); err != nil {
			return nil, fmt.Errorf("reading interface %d: %w", i, err)
		}
	}

	if cf.Fields, err = parseFields(r, cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}

	if cf.Methods, err = parseMethods(r, cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("parsing methods: %w", err)
	}

	if cf.Attributes, err = parseAttributes(r, cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}

	return cf, nil
}

// parseConstantPool reads constant_pool_count-1 entries.
// The returned slice is 1-indexed: index 0 is nil.
func parseConstantPool(r *reader, count uint16) (ConstantPool, error) {
	pool := make(ConstantPool, count)

	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, fmt.Errorf("reading constant pool tag at index %d: %w", i, err)
		}

		entry, err := parseConstant(r, tag)
		if err != nil {
			return nil, fmt.Errorf("reading constant at index %d: %w", i, err)
		}

		pool[i] = entry

		if tag == TagLong || tag == TagDouble {
			i++ // long and double take 2 slots
		}
	}

	return pool, nil
}

func parseConstant(r *reader, tag uint8) (ConstantPoolEntry, error) {
	switch tag {
	case TagUtf8:
		length, err := r.u2()
		if err != nil {
			return nil, err
		}

		b, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}

		return &ConstantUtf8{Value: string(b)}, nil

	case TagInteger:
		v, err := r.u4()
		return &ConstantInteger{Value: int32(v)}, err

	case TagFloat:
		v, err := r.u4()
		return &ConstantFloat{Value: math.Float32frombits(v)}, err

	case TagLong, TagDouble:
		hi, err := r.u4()
		if err != nil {
			return nil, err
		}

		lo, err := r.u4()
		if err != nil {
			return nil, err
		}

		bits := uint64(hi)<<32 | uint64(lo)
		if tag == TagLong {
			return &ConstantLong{Value: int64(bits)}, nil
		}

		return &ConstantDouble{Value: math.Float64frombits(bits)}, nil

	case TagClass:
		v, err := r.u2()
		return &ConstantClass{NameIndex: v}, err

	case TagString:
		v, err := r.u2()
		return &ConstantString{StringIndex: v}, err

	case TagMethodType:
		v, err := r.u2()
		return &ConstantMethodType{DescriptorIndex: v}, err

	case TagModule, TagPackage:
		v, err := r.u2()
		return &ConstantNamed{Package: tag == TagPackage, NameIndex: v}, err

	case TagMethodHandle:
		kind, err := r.u1()
		if err != nil {
			return nil, err
		}

		v, err := r.u2()

		return &ConstantMethodHandle{ReferenceKind: kind, ReferenceIndex: v}, err

	case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
		a, err := r.u2()
		if err != nil {
			return nil, err
		}

		b, err := r.u2()
		if err != nil {
			return nil, err
		}

		switch tag {
		case TagFieldref:
			return &ConstantFieldref{ClassIndex: a, NameAndTypeIndex: b}, nil
		case TagMethodref:
			return &ConstantMethodref{ClassIndex: a, NameAndTypeIndex: b}, nil
		case TagInterfaceMethodref:
			return &ConstantInterfaceMethodref{ClassIndex: a, NameAndTypeIndex: b}, nil
		case TagNameAndType:
			return &ConstantNameAndType{NameIndex: a, DescriptorIndex: b}, nil
		default:
			return &ConstantDynamic{Invoke: tag == TagInvokeDynamic, BootstrapMethodAttrIndex: a, NameAndTypeIndex: b}, nil
		}
	}

	return nil, fmt.Errorf("unknown constant pool tag %d", tag)
}

func parseMember(r *reader, pool ConstantPool) (uint16, uint16, uint16, string, string, []AttributeInfo, error) {
	accessFlags, err := r.u2()
	if err != nil {
		return 0, 0, 0, "", "", nil, fmt.Errorf("reading access flags: %w", err)
	}

	nameIndex, err := r.u2()
	if err != nil {
		return 0, 0, 0, "", "", nil, fmt.Errorf("reading name index: %w", err)
	}

	descIndex, err := r.u2()
	if err != nil {
		return 0, 0, 0, "", "", nil, fmt.Errorf("reading descriptor index: %w", err)
	}

	name, err := pool.Utf8(nameIndex)
	if err != nil {
		return 0, 0, 0, "", "", nil, fmt.Errorf("resolving name: %w", err)
	}

	desc, err := pool.Utf8(descIndex)
	if err != nil {
		return 0, 0, 0, "", "", nil, fmt.Errorf("resolving descriptor: %w", err)
	}

	attrs, err := parseAttributes(r, pool)
	if err != nil {
		return 0, 0, 0, "", "", nil, fmt.Errorf("parsing attributes of %s: %w", name, err)
	}

	return accessFlags, nameIndex, descIndex, name, desc, attrs, nil
}

func parseFields(r *reader, pool ConstantPool) ([]FieldInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading fields count: %w", err)
	}

	fields := make([]FieldInfo, count)
	for i := range fields {
		access, nameIndex, descIndex, name, desc, attrs, err := parseMember(r, pool)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}

		fields[i] = FieldInfo{
			AccessFlags:     access,
			NameIndex:       nameIndex,
			DescriptorIndex: descIndex,
			Name:            name,
			Descriptor:      desc,
			Attributes:      attrs,
		}
	}

	return fields, nil
}

func parseMethods(r *reader, pool ConstantPool) ([]MethodInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading methods count: %w", err)
	}

	methods := make([]MethodInfo, count)
	for i := range methods {
		access, nameIndex, descIndex, name, desc, attrs, err := parseMember(r, pool)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}

		m := MethodInfo{
			AccessFlags:     access,
			NameIndex:       nameIndex,
			DescriptorIndex: descIndex,
			Name:            name,
			Descriptor:      desc,
			Attributes:      attrs,
		}

		for _, attr := range attrs {
			if attr.Name != AttrCode {
				continue
			}

			code, err := parseCodeAttribute(attr.Data, pool)
			if err != nil {
				return nil, fmt.Errorf("parsing Code attribute for method %s%s: %w", name, desc, err)
			}

			m.Code = code

			break
		}

		methods[i] = m
	}

	return methods, nil
}

func parseAttributes(r *reader, pool ConstantPool) ([]AttributeInfo, error) {
	count, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading attributes count: %w", err)
	}

	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		nameIndex, err := r.u2()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d name index: %w", i, err)
		}

		length, err := r.u4()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d length: %w", i, err)
		}

		data, err := r.bytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d data: %w", i, err)
		}

		name, err := pool.Utf8(nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving attribute %d name: %w", i, err)
		}

		attrs[i] = AttributeInfo{NameIndex: nameIndex, Name: name, Data: data}
	}

	return attrs, nil
}

func parseCodeAttribute(data []byte, pool ConstantPool) (*CodeAttribute, error) {
	r := &reader{data: data}
	code := &CodeAttribute{}

	var err error
	if code.MaxStack, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading max_stack: %w", err)
	}

	if code.MaxLocals, err = r.u2(); err != nil {
		return nil, fmt.Errorf("reading max_locals: %w", err)
	}

	codeLength, err := r.u4()
	if err != nil {
		return nil, fmt.Errorf("reading code_length: %w", err)
	}

	body, err := r.bytes(int(codeLength))
	if err != nil {
		return nil, fmt.Errorf("Code attribute data too short for code_length %d", codeLength)
	}

	code.Code = append([]byte(nil), body...)

	exTableLen, err := r.u2()
	if err != nil {
		return nil, fmt.Errorf("reading exception table length: %w", err)
	}

	code.ExceptionHandlers = make([]ExceptionHandler, exTableLen)
	for i := range code.ExceptionHandlers {
		b, err := r.bytes(8)
		if err != nil {
			return nil, fmt.Errorf("reading exception handler %d: %w", i, err)
		}

		code.ExceptionHandlers[i] = ExceptionHandler{
			StartPC:   binary.BigEndian.Uint16(b[0:2]),
			EndPC:     binary.BigEndian.Uint16(b[2:4]),
			HandlerPC: binary.BigEndian.Uint16(b[4:6]),
			CatchType: binary.BigEndian.Uint16(b[6:8]),
		}
	}

	if code.Attributes, err = parseAttributes(r, pool); err != nil {
		return nil, err
	}

	return code, nil
}
