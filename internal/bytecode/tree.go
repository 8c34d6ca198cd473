// Package bytecode provides a tree view over JVM class files: methods expose
// their code as an editable list of instructions with labels, and classes are
// re-encoded with only the edited methods reassembled.
package bytecode

import (
	"fmt"

	"starhook.dev/pkg/starhook/internal/classfile"
)

// ClassNode is an editable view of a parsed class.
type ClassNode struct {
	Name      string
	SuperName string
	Methods   []*MethodNode

	file *classfile.ClassFile
}

// MethodNode is an editable view of one method.
type MethodNode struct {
	Access    uint16
	Name      string
	Desc      string
	MaxStack  uint16
	MaxLocals uint16

	// Instructions is nil for abstract and native methods.
	Instructions   *List
	TryCatchBlocks []TryCatchBlock

	index int
	attrs []codeAttr
	fresh bool
}

// IsStatic reports whether the method is static.
func (m *MethodNode) IsStatic() bool { return m.Access&classfile.AccStatic != 0 }

// IsPublic reports whether the method is public.
func (m *MethodNode) IsPublic() bool { return m.Access&classfile.AccPublic != 0 }

// IsConstructor reports whether the method is an instance initializer.
func (m *MethodNode) IsConstructor() bool { return m.Name == "<init>" }

func (m *MethodNode) String() string { return m.Name + m.Desc }

// ReadClass parses class bytes into a ClassNode.
func ReadClass(data []byte) (*ClassNode, error) {
	cf, err := classfile.ParseBytes(data)
	if err != nil {
		return nil, err
	}

	return FromClassFile(cf)
}

// FromClassFile builds a ClassNode over cf. The node takes ownership of cf.
func FromClassFile(cf *classfile.ClassFile) (*ClassNode, error) {
	name, err := cf.ClassName()
	if err != nil {
		return nil, fmt.Errorf("resolving class name: %w", err)
	}

	c := &ClassNode{
		Name:      name,
		SuperName: cf.SuperClassName(),
		Methods:   make([]*MethodNode, 0, len(cf.Methods)),
		file:      cf,
	}

	for i := range cf.Methods {
		info := &cf.Methods[i]
		m := &MethodNode{
			Access: info.AccessFlags,
			Name:   info.Name,
			Desc:   info.Descriptor,
			index:  i,
		}

		if info.Code != nil {
			m.MaxStack = info.Code.MaxStack
			m.MaxLocals = info.Code.MaxLocals

			if m.Instructions, m.TryCatchBlocks, m.attrs, err = decodeCode(info.Code, cf.ConstantPool); err != nil {
				return nil, fmt.Errorf("decoding %s.%s%s: %w", name, info.Name, info.Descriptor, err)
			}
		}

		c.Methods = append(c.Methods, m)
	}

	return c, nil
}

// NewClassNode creates an empty public class targeting Java 8.
func NewClassNode(name, superName string) *ClassNode {
	cf := &classfile.ClassFile{
		MajorVersion: 52,
		AccessFlags:  classfile.AccPublic | classfile.AccSuper,
	}

	// a fresh pool has room for both entries
	cf.ThisClass, _ = cf.ConstantPool.AddClass(name)
	if superName != "" {
		cf.SuperClass, _ = cf.ConstantPool.AddClass(superName)
	}

	return &ClassNode{Name: name, SuperName: superName, file: cf}
}

// AddMethod appends a method with the given instructions. The method is
// always assembled when the class is written.
func (c *ClassNode) AddMethod(access uint16, name, desc string, insns ...Instruction) (*MethodNode, error) {
	nameIndex, err := c.file.ConstantPool.AddUtf8(name)
	if err != nil {
		return nil, err
	}

	descIndex, err := c.file.ConstantPool.AddUtf8(desc)
	if err != nil {
		return nil, err
	}

	slots, err := ArgumentSlots(desc)
	if err != nil {
		return nil, err
	}

	if access&classfile.AccStatic == 0 {
		slots++
	}

	c.file.Methods = append(c.file.Methods, classfile.MethodInfo{
		AccessFlags:     access,
		NameIndex:       nameIndex,
		DescriptorIndex: descIndex,
		Name:            name,
		Descriptor:      desc,
	})

	m := &MethodNode{
		Access:       access,
		Name:         name,
		Desc:         desc,
		MaxStack:     4,
		MaxLocals:    uint16(slots),
		Instructions: NewList(insns...),
		index:        len(c.file.Methods) - 1,
		fresh:        true,
	}

	c.Methods = append(c.Methods, m)

	return m, nil
}

// File returns the underlying class file.
func (c *ClassNode) File() *classfile.ClassFile { return c.file }

// Method returns the method with the given name and descriptor.
func (c *ClassNode) Method(name, desc string) *MethodNode {
	for _, m := range c.Methods {
		if m.Name == name && m.Desc == desc {
			return m
		}
	}

	return nil
}

// Modified reports whether any method had instructions inserted.
func (c *ClassNode) Modified() bool {
	for _, m := range c.Methods {
		if m.fresh || (m.Instructions != nil && m.Instructions.Modified()) {
			return true
		}
	}

	return false
}

// Bytes serializes the class. Only methods whose instructions changed are
// reassembled; every other method keeps its original Code bytes.
func (c *ClassNode) Bytes() ([]byte, error) {
	for _, m := range c.Methods {
		info := &c.file.Methods[m.index]
		info.AccessFlags = m.Access

		if m.Instructions == nil || info.Code == nil && !m.fresh {
			continue
		}

		if !m.fresh && !m.Instructions.Modified() {
			info.Code.MaxStack = m.MaxStack
			info.Code.MaxLocals = m.MaxLocals

			continue
		}

		code, err := assemble(m, &c.file.ConstantPool)
		if err != nil {
			return nil, fmt.Errorf("assembling %s.%s%s: %w", c.Name, m.Name, m.Desc, err)
		}

		info.Code = code
	}

	return c.file.Bytes()
}
