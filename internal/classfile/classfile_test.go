package classfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClass builds a class with one static method "run()V" whose body is
// a single return.
func newTestClass(t *testing.T) *ClassFile {
	t.Helper()

	cf := &ClassFile{MajorVersion: 52, AccessFlags: AccPublic | AccSuper}

	var err error

	cf.ThisClass, err = cf.ConstantPool.AddClass("org/schema/game/common/Starter")
	require.NoError(t, err)

	cf.SuperClass, err = cf.ConstantPool.AddClass("java/lang/Object")
	require.NoError(t, err)

	nameIndex, err := cf.ConstantPool.AddUtf8("run")
	require.NoError(t, err)

	descIndex, err := cf.ConstantPool.AddUtf8("()V")
	require.NoError(t, err)

	cf.Methods = append(cf.Methods, MethodInfo{
		AccessFlags:     AccPublic | AccStatic,
		NameIndex:       nameIndex,
		DescriptorIndex: descIndex,
		Name:            "run",
		Descriptor:      "()V",
		Code:            &CodeAttribute{MaxStack: 1, Code: []byte{0xB1}},
	})

	return cf
}

func TestParseBytes(t *testing.T) {
	t.Run("round trips a class byte for byte", func(t *testing.T) {
		first, err := newTestClass(t).Bytes()
		require.NoError(t, err)

		parsed, err := ParseBytes(first)
		require.NoError(t, err)

		second, err := parsed.Bytes()
		require.NoError(t, err)

		assert.Equal(t, first, second)

		name, err := parsed.ClassName()
		require.NoError(t, err)
		assert.Equal(t, "org/schema/game/common/Starter", name)
		assert.Equal(t, "java/lang/Object", parsed.SuperClassName())

		run := parsed.FindMethod("run", "()V")
		require.NotNil(t, run)
		require.NotNil(t, run.Code)
		assert.Equal(t, []byte{0xB1}, run.Code.Code)
		assert.Equal(t, uint16(1), run.Code.MaxStack)
	})

	t.Run("rejects a bad magic number", func(t *testing.T) {
		_, err := ParseBytes([]byte{0xCA, 0xFE, 0xBA, 0xBF, 0, 0, 0, 52})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid magic number")
	})

	t.Run("rejects truncated data", func(t *testing.T) {
		data, err := newTestClass(t).Bytes()
		require.NoError(t, err)

		_, err = ParseBytes(data[:len(data)-3])
		require.Error(t, err)
	})

	t.Run("keeps long and double constants on two slots", func(t *testing.T) {
		cf := newTestClass(t)

		longIndex, err := cf.ConstantPool.add(&ConstantLong{Value: 1 << 40})
		require.NoError(t, err)

		cf.ConstantPool = append(cf.ConstantPool, nil)

		after, err := cf.ConstantPool.AddUtf8("after-long")
		require.NoError(t, err)
		assert.Equal(t, longIndex+2, after)

		data, err := cf.Bytes()
		require.NoError(t, err)

		parsed, err := ParseBytes(data)
		require.NoError(t, err)

		value, err := parsed.ConstantPool.Utf8(after)
		require.NoError(t, err)
		assert.Equal(t, "after-long", value)

		long, ok := parsed.ConstantPool[longIndex].(*ConstantLong)
		require.True(t, ok)
		assert.Equal(t, int64(1<<40), long.Value)
	})
}

func TestParseFile(t *testing.T) {
	data, err := newTestClass(t).Bytes()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "Starter.class")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cf, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, cf.Methods, 1)

	fromReader, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, cf.Methods[0].Name, fromReader.Methods[0].Name)
}

func TestConstantPool(t *testing.T) {
	t.Run("interns method references", func(t *testing.T) {
		var pool ConstantPool

		first, err := pool.AddMethodRef("a/Hooks", "start", "(Ljava/io/File;Ljava/lang/Object;)V", false)
		require.NoError(t, err)

		again, err := pool.AddMethodRef("a/Hooks", "start", "(Ljava/io/File;Ljava/lang/Object;)V", false)
		require.NoError(t, err)
		assert.Equal(t, first, again)

		iface, err := pool.AddMethodRef("a/Hooks", "start", "(Ljava/io/File;Ljava/lang/Object;)V", true)
		require.NoError(t, err)
		assert.NotEqual(t, first, iface)

		ref, err := pool.MethodRef(first)
		require.NoError(t, err)
		assert.Equal(t, &MemberRef{Owner: "a/Hooks", Name: "start", Descriptor: "(Ljava/io/File;Ljava/lang/Object;)V"}, ref)

		ref, err = pool.MethodRef(iface)
		require.NoError(t, err)
		assert.True(t, ref.Interface)
	})

	t.Run("reports wrong entry kinds", func(t *testing.T) {
		var pool ConstantPool

		utf8, err := pool.AddUtf8("x")
		require.NoError(t, err)

		_, err = pool.ClassName(utf8)
		require.Error(t, err)

		_, err = pool.MethodRef(utf8)
		require.Error(t, err)

		_, err = pool.Utf8(42)
		require.Error(t, err)
	})
}

func TestCodeAttributeEncode(t *testing.T) {
	t.Run("rejects an empty body", func(t *testing.T) {
		cf := newTestClass(t)
		cf.Methods[0].Code.Code = nil

		_, err := cf.Bytes()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid code length")
	})

	t.Run("writes a Code attribute for decoded bodies", func(t *testing.T) {
		cf := newTestClass(t)

		data, err := cf.Bytes()
		require.NoError(t, err)

		parsed, err := ParseBytes(data)
		require.NoError(t, err)

		code := parsed.Methods[0].Code
		require.NotNil(t, code)
		assert.Empty(t, code.ExceptionHandlers)

		_, found := code.Attribute(AttrLineNumberTable)
		assert.False(t, found)
	})
}
