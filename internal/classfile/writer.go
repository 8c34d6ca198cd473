package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Bytes serializes the class file. Methods with a decoded Code attribute get
// that attribute re-encoded in place; everything else is written as parsed.
func (cf *ClassFile) Bytes() ([]byte, error) {
	b := binary.BigEndian.AppendUint32(nil, classMagic)
	b = binary.BigEndian.AppendUint16(b, cf.MinorVersion)
	b = binary.BigEndian.AppendUint16(b, cf.MajorVersion)

	// Code attributes may need a "Code" Utf8 entry, so they are encoded before
	// the constant pool is written out.
	methods := make([][]byte, len(cf.Methods))
	for i := range cf.Methods {
		mb, err := cf.encodeMethod(&cf.Methods[i])
		if err != nil {
			return nil, fmt.Errorf("encoding method %s%s: %w", cf.Methods[i].Name, cf.Methods[i].Descriptor, err)
		}

		methods[i] = mb
	}

	pool, err := cf.ConstantPool.encode()
	if err != nil {
		return nil, fmt.Errorf("encoding constant pool: %w", err)
	}

	b = append(b, pool...)
	b = binary.BigEndian.AppendUint16(b, cf.AccessFlags)
	b = binary.BigEndian.AppendUint16(b, cf.ThisClass)
	b = binary.BigEndian.AppendUint16(b, cf.SuperClass)

	b = binary.BigEndian.AppendUint16(b, uint16(len(cf.Interfaces)))
	for _, iface := range cf.Interfaces {
		b = binary.BigEndian.AppendUint16(b, iface)
	}

	b = binary.BigEndian.AppendUint16(b, uint16(len(cf.Fields)))
	for _, f := range cf.Fields {
		b = binary.BigEndian.AppendUint16(b, f.AccessFlags)
		b = binary.BigEndian.AppendUint16(b, f.NameIndex)
		b = binary.BigEndian.AppendUint16(b, f.DescriptorIndex)
		b = appendAttributes(b, f.Attributes)
	}

	b = binary.BigEndian.AppendUint16(b, uint16(len(methods)))
	for _, mb := range methods {
		b = append(b, mb...)
	}

	b = appendAttributes(b, cf.Attributes)

	return b, nil
}

// WriteTo writes the serialized class file to w.
func (cf *ClassFile) WriteTo(w io.Writer) (int64, error) {
	b, err := cf.Bytes()
	if err != nil {
		return 0, err
	}

	n, err := w.Write(b)

	return int64(n), err
}

func (cf *ClassFile) encodeMethod(m *MethodInfo) ([]byte, error) {
	attrs := m.Attributes

	if m.Code != nil {
		data, err := m.Code.encode()
		if err != nil {
			return nil, err
		}

		attrs = make([]AttributeInfo, 0, len(m.Attributes)+1)
		replaced := false

		for _, attr := range m.Attributes {
			if attr.Name == AttrCode {
				attr.Data = data
				replaced = true
			}

			attrs = append(attrs, attr)
		}

		if !replaced {
			nameIndex, err := cf.ConstantPool.AddUtf8(AttrCode)
			if err != nil {
				return nil, err
			}

			attrs = append(attrs, AttributeInfo{NameIndex: nameIndex, Name: AttrCode, Data: data})
		}

		m.Attributes = attrs
	}

	b := binary.BigEndian.AppendUint16(nil, m.AccessFlags)
	b = binary.BigEndian.AppendUint16(b, m.NameIndex)
	b = binary.BigEndian.AppendUint16(b, m.DescriptorIndex)

	return appendAttributes(b, attrs), nil
}

func (c *CodeAttribute) encode() ([]byte, error) {
	if len(c.Code) == 0 || len(c.Code) >= 65536 {
		return nil, fmt.Errorf("invalid code length %d", len(c.Code))
	}

	b := binary.BigEndian.AppendUint16(nil, c.MaxStack)
	b = binary.BigEndian.AppendUint16(b, c.MaxLocals)
	b = binary.BigEndian.AppendUint32(b, uint32(len(c.Code)))
	b = append(b, c.Code...)

	b = binary.BigEndian.AppendUint16(b, uint16(len(c.ExceptionHandlers)))
	for _, h := range c.ExceptionHandlers {
		b = binary.BigEndian.AppendUint16(b, h.StartPC)
		b = binary.BigEndian.AppendUint16(b, h.EndPC)
		b = binary.BigEndian.AppendUint16(b, h.HandlerPC)
		b = binary.BigEndian.AppendUint16(b, h.CatchType)
	}

	return appendAttributes(b, c.Attributes), nil
}

func appendAttributes(b []byte, attrs []AttributeInfo) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(len(attrs)))
	for _, attr := range attrs {
		b = binary.BigEndian.AppendUint16(b, attr.NameIndex)
		b = binary.BigEndian.AppendUint32(b, uint32(len(attr.Data)))
		b = append(b, attr.Data...)
	}

	return b
}

func (p ConstantPool) encode() ([]byte, error) {
	count := len(p)
	if count == 0 {
		count = 1
	}

	b := binary.BigEndian.AppendUint16(nil, uint16(count))

	for i := 1; i < len(p); i++ {
		e := p[i]
		if e == nil {
			continue
		}

		b = append(b, e.Tag())

		switch c := e.(type) {
		case *ConstantUtf8:
			if len(c.Value) > math.MaxUint16 {
				return nil, fmt.Errorf("Utf8 constant at index %d too long", i)
			}

			b = binary.BigEndian.AppendUint16(b, uint16(len(c.Value)))
			b = append(b, c.Value...)
		case *ConstantInteger:
			b = binary.BigEndian.AppendUint32(b, uint32(c.Value))
		case *ConstantFloat:
			b = binary.BigEndian.AppendUint32(b, math.Float32bits(c.Value))
		case *ConstantLong:
			b = binary.BigEndian.AppendUint64(b, uint64(c.Value))
		case *ConstantDouble:
			b = binary.BigEndian.AppendUint64(b, math.Float64bits(c.Value))
		case *ConstantClass:
			b = binary.BigEndian.AppendUint16(b, c.NameIndex)
		case *ConstantString:
			b = binary.BigEndian.AppendUint16(b, c.StringIndex)
		case *ConstantMethodType:
			b = binary.BigEndian.AppendUint16(b, c.DescriptorIndex)
		case *ConstantNamed:
			b = binary.BigEndian.AppendUint16(b, c.NameIndex)
		case *ConstantMethodHandle:
			b = append(b, c.ReferenceKind)
			b = binary.BigEndian.AppendUint16(b, c.ReferenceIndex)
		case *ConstantFieldref:
			b = binary.BigEndian.AppendUint16(b, c.ClassIndex)
			b = binary.BigEndian.AppendUint16(b, c.NameAndTypeIndex)
		case *ConstantMethodref:
			b = binary.BigEndian.AppendUint16(b, c.ClassIndex)
			b = binary.BigEndian.AppendUint16(b, c.NameAndTypeIndex)
		case *ConstantInterfaceMethodref:
			b = binary.BigEndian.AppendUint16(b, c.ClassIndex)
			b = binary.BigEndian.AppendUint16(b, c.NameAndTypeIndex)
		case *ConstantNameAndType:
			b = binary.BigEndian.AppendUint16(b, c.NameIndex)
			b = binary.BigEndian.AppendUint16(b, c.DescriptorIndex)
		case *ConstantDynamic:
			b = binary.BigEndian.AppendUint16(b, c.BootstrapMethodAttrIndex)
			b = binary.BigEndian.AppendUint16(b, c.NameAndTypeIndex)
		default:
			return nil, fmt.Errorf("unsupported constant pool entry %T at index %d", e, i)
		}
	}

	return b, nil
}
