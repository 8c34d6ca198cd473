package classfile

import (
	"fmt"
	"math"
)

// Constant pool tags
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// maxPoolSize is the largest constant_pool_count a class file can carry.
const maxPoolSize = math.MaxUint16

// ConstantPoolEntry is an interface implemented by all constant pool types.
type ConstantPoolEntry interface {
	Tag() uint8
}

type ConstantUtf8 struct {
	Value string
}

func (c *ConstantUtf8) Tag() uint8 { return TagUtf8 }

type ConstantInteger struct {
	Value int32
}

func (c *ConstantInteger) Tag() uint8 { return TagInteger }

type ConstantFloat struct {
	Value float32
}

func (c *ConstantFloat) Tag() uint8 { return TagFloat }

type ConstantLong struct {
	Value int64
}

func (c *ConstantLong) Tag() uint8 { return TagLong }

type ConstantDouble struct {
	Value float64
}

func (c *ConstantDouble) Tag() uint8 { return TagDouble }

type ConstantClass struct {
	NameIndex uint16
}

func (c *ConstantClass) Tag() uint8 { return TagClass }

type ConstantString struct {
	StringIndex uint16
}

func (c *ConstantString) Tag() uint8 { return TagString }

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldref) Tag() uint8 { return TagFieldref }

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodref) Tag() uint8 { return TagMethodref }

type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodref) Tag() uint8 { return TagInterfaceMethodref }

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndType) Tag() uint8 { return TagNameAndType }

type ConstantMethodHandle struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (c *ConstantMethodHandle) Tag() uint8 { return TagMethodHandle }

type ConstantMethodType struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodType) Tag() uint8 { return TagMethodType }

// ConstantDynamic covers both CONSTANT_Dynamic and CONSTANT_InvokeDynamic,
// which share a layout.
type ConstantDynamic struct {
	Invoke                   bool
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantDynamic) Tag() uint8 {
	if c.Invoke {
		return TagInvokeDynamic
	}

	return TagDynamic
}

// ConstantNamed covers CONSTANT_Module and CONSTANT_Package.
type ConstantNamed struct {
	Package   bool
	NameIndex uint16
}

func (c *ConstantNamed) Tag() uint8 {
	if c.Package {
		return TagPackage
	}

	return TagModule
}

// ConstantPool is the 1-indexed constant pool of a class. Index 0 and the slot
// following every Long or Double entry are nil.
type ConstantPool []ConstantPoolEntry

func (p ConstantPool) entry(index uint16) (ConstantPoolEntry, error) {
	if int(index) >= len(p) || p[index] == nil {
		return nil, fmt.Errorf("invalid constant pool index %d", index)
	}

	return p[index], nil
}

// Utf8 returns the Utf8 string at the given constant pool index.
func (p ConstantPool) Utf8(index uint16) (string, error) {
	e, err := p.entry(index)
	if err != nil {
		return "", err
	}

	utf8, ok := e.(*ConstantUtf8)
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not Utf8 (tag=%d)", index, e.Tag())
	}

	return utf8.Value, nil
}

// ClassName returns the class name referenced by a CONSTANT_Class entry.
func (p ConstantPool) ClassName(index uint16) (string, error) {
	e, err := p.entry(index)
	if err != nil {
		return "", err
	}

	class, ok := e.(*ConstantClass)
	if !ok {
		return "", fmt.Errorf("constant pool index %d is not Class", index)
	}

	return p.Utf8(class.NameIndex)
}

// MemberRef holds a resolved field or method reference.
type MemberRef struct {
	Owner      string
	Name       string
	Descriptor string
	Interface  bool
}

// MethodRef resolves a CONSTANT_Methodref or CONSTANT_InterfaceMethodref entry.
func (p ConstantPool) MethodRef(index uint16) (*MemberRef, error) {
	e, err := p.entry(index)
	if err != nil {
		return nil, err
	}

	var classIndex, natIndex uint16

	iface := false

	switch ref := e.(type) {
	case *ConstantMethodref:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
	case *ConstantInterfaceMethodref:
		classIndex, natIndex = ref.ClassIndex, ref.NameAndTypeIndex
		iface = true
	default:
		return nil, fmt.Errorf("constant pool index %d is not a method reference (tag=%d)", index, e.Tag())
	}

	owner, err := p.ClassName(classIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving method reference class: %w", err)
	}

	name, desc, err := p.NameAndType(natIndex)
	if err != nil {
		return nil, err
	}

	return &MemberRef{Owner: owner, Name: name, Descriptor: desc, Interface: iface}, nil
}

// NameAndType resolves a CONSTANT_NameAndType entry.
func (p ConstantPool) NameAndType(index uint16) (string, string, error) {
	e, err := p.entry(index)
	if err != nil {
		return "", "", err
	}

	nat, ok := e.(*ConstantNameAndType)
	if !ok {
		return "", "", fmt.Errorf("constant pool index %d is not NameAndType", index)
	}

	name, err := p.Utf8(nat.NameIndex)
	if err != nil {
		return "", "", fmt.Errorf("resolving name: %w", err)
	}

	desc, err := p.Utf8(nat.DescriptorIndex)
	if err != nil {
		return "", "", fmt.Errorf("resolving descriptor: %w", err)
	}

	return name, desc, nil
}

func (p *ConstantPool) add(e ConstantPoolEntry) (uint16, error) {
	if len(*p) == 0 {
		*p = append(*p, nil)
	}

	if len(*p) >= maxPoolSize {
		return 0, fmt.Errorf("constant pool is full (%d entries)", len(*p))
	}

	*p = append(*p, e)

	return uint16(len(*p) - 1), nil
}

// AddUtf8 returns the index of a Utf8 entry holding s, appending one if needed.
func (p *ConstantPool) AddUtf8(s string) (uint16, error) {
	for i, e := range *p {
		if utf8, ok := e.(*ConstantUtf8); ok && utf8.Value == s {
			return uint16(i), nil
		}
	}

	return p.add(&ConstantUtf8{Value: s})
}

// AddClass returns the index of a Class entry naming the internal name.
func (p *ConstantPool) AddClass(name string) (uint16, error) {
	nameIndex, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}

	for i, e := range *p {
		if class, ok := e.(*ConstantClass); ok && class.NameIndex == nameIndex {
			return uint16(i), nil
		}
	}

	return p.add(&ConstantClass{NameIndex: nameIndex})
}

// AddNameAndType returns the index of a NameAndType entry.
func (p *ConstantPool) AddNameAndType(name, desc string) (uint16, error) {
	nameIndex, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}

	descIndex, err := p.AddUtf8(desc)
	if err != nil {
		return 0, err
	}

	for i, e := range *p {
		if nat, ok := e.(*ConstantNameAndType); ok && nat.NameIndex == nameIndex && nat.DescriptorIndex == descIndex {
			return uint16(i), nil
		}
	}

	return p.add(&ConstantNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex})
}

// AddMethodRef returns the index of a Methodref (or InterfaceMethodref) entry.
func (p *ConstantPool) AddMethodRef(owner, name, desc string, iface bool) (uint16, error) {
	classIndex, err := p.AddClass(owner)
	if err != nil {
		return 0, err
	}

	natIndex, err := p.AddNameAndType(name, desc)
	if err != nil {
		return 0, err
	}

	for i, e := range *p {
		switch ref := e.(type) {
		case *ConstantMethodref:
			if !iface && ref.ClassIndex == classIndex && ref.NameAndTypeIndex == natIndex {
				return uint16(i), nil
			}
		case *ConstantInterfaceMethodref:
			if iface && ref.ClassIndex == classIndex && ref.NameAndTypeIndex == natIndex {
				return uint16(i), nil
			}
		}
	}

	if iface {
		return p.add(&ConstantInterfaceMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex})
	}

	return p.add(&ConstantMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex})
}
