package domain_test

import (
	"archive/zip"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"starhook.dev/pkg/starhook/internal/bytecode"
	"starhook.dev/pkg/starhook/internal/classfile"
	"starhook.dev/pkg/starhook/internal/domain/hooksites"
)

const (
	starterName  = "org/schema/game/common/Starter"
	starterClass = "org.schema.game.common.Starter"
	objectName   = "java/lang/Object"

	startClientDesc = hooksites.HostPortLoginNamePrefix + "Ljava/lang/String;)V"
	clientCtorDesc  = hooksites.HostPortLoginNamePrefix + ")V"

	publicStatic = classfile.AccPublic | classfile.AccStatic
)

func insn(op bytecode.Opcode) *bytecode.Insn { return &bytecode.Insn{Op: op} }

func aload(slot uint16) *bytecode.VarInsn {
	return &bytecode.VarInsn{Op: bytecode.OpAload, Var: slot}
}

func iload(slot uint16) *bytecode.VarInsn {
	return &bytecode.VarInsn{Op: bytecode.OpIload, Var: slot}
}

func invoke(op bytecode.Opcode, owner, name, desc string) *bytecode.MethodInsn {
	return &bytecode.MethodInsn{Op: op, Owner: owner, Name: name, Desc: desc}
}

func addMethod(t *testing.T, c *bytecode.ClassNode, access uint16, name, desc string, insns ...bytecode.Instruction) *bytecode.MethodNode {
	t.Helper()

	method, err := c.AddMethod(access, name, desc, insns...)
	require.NoError(t, err)

	return method
}

// launchers names the classes each launcher method of the test Starter
// constructs. An empty name leaves the launcher out.
type launchers struct {
	server string
	client string
	menu   string
}

func newStarter(t *testing.T, l launchers) *bytecode.ClassNode {
	t.Helper()

	c := bytecode.NewClassNode(starterName, objectName)

	if l.server != "" {
		addMethod(t, c, publicStatic, "getServerRunnable", "(Z)Ljava/lang/Runnable;",
			insn(bytecode.OpAconstNull),
			iload(0),
			invoke(bytecode.OpInvokespecial, l.server, "<init>", "(Z)V"),
			insn(bytecode.OpAconstNull),
			insn(bytecode.OpAreturn),
		)
	}

	if l.client != "" {
		// the login helper is built first and matches the landmark too
		addMethod(t, c, publicStatic, "startClient", startClientDesc,
			aload(0),
			iload(1),
			invoke(bytecode.OpInvokespecial, "obf/LoginHelper", "<init>", clientCtorDesc),
			aload(0),
			iload(1),
			invoke(bytecode.OpInvokespecial, l.client, "<init>", clientCtorDesc),
			insn(bytecode.OpReturn),
		)
	}

	if l.menu != "" {
		addMethod(t, c, publicStatic, "startMainMenu", "()V",
			invoke(bytecode.OpInvokespecial, l.menu, "<init>", "()V"),
			invoke(bytecode.OpInvokespecial, "obf/Unrelated", "<init>", "()V"),
			insn(bytecode.OpReturn),
		)
	}

	return c
}

func constructor(t *testing.T, c *bytecode.ClassNode, desc string) *bytecode.MethodNode {
	t.Helper()

	return addMethod(t, c, classfile.AccPublic, "<init>", desc,
		aload(0),
		invoke(bytecode.OpInvokespecial, objectName, "<init>", "()V"),
		insn(bytecode.OpReturn),
	)
}

func runLoop(t *testing.T, c *bytecode.ClassNode) *bytecode.MethodNode {
	t.Helper()

	return addMethod(t, c, classfile.AccPublic, "run", "()V",
		insn(bytecode.OpNop),
		insn(bytecode.OpReturn),
	)
}

func listing(m *bytecode.MethodNode) []string {
	var out []string
	for n := m.Instructions.First(); n != nil; n = n.Next() {
		out = append(out, n.Insn.String())
	}

	return out
}

// writeJar writes a jar holding the given classes plus extra resources.
func writeJar(t *testing.T, path string, resources map[string]string, classes ...*bytecode.ClassNode) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	defer f.Close()

	w := zip.NewWriter(f)

	for _, c := range classes {
		data, err := c.Bytes()
		require.NoError(t, err)

		entry, err := w.Create(c.Name + ".class")
		require.NoError(t, err)

		_, err = entry.Write(data)
		require.NoError(t, err)
	}

	for name, content := range resources {
		entry, err := w.Create(name)
		require.NoError(t, err)

		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
}
