package hooksites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starhook.dev/pkg/starhook/internal/bytecode"
	"starhook.dev/pkg/starhook/internal/classfile"
	m "starhook.dev/pkg/starhook/internal/model"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{Client, MainMenu, Server}, Names())
}

func TestResolve(t *testing.T) {
	sites, err := Resolve([]string{Server, MainMenu})
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, Server, sites[0].String())
	assert.Equal(t, MainMenu, sites[1].String())

	_, err = Resolve([]string{Server, "lobby"})
	assert.ErrorContains(t, err, `unknown hook site "lobby"`)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { register(Site{Name: Server}) })
}

func TestSiteHooks(t *testing.T) {
	server, _ := Lookup(Server)
	client, _ := Lookup(Client)
	menu, _ := Lookup(MainMenu)

	assert.Equal(t, m.HookServer, server.Hook)
	assert.True(t, server.PassesRunDir)
	assert.True(t, server.FromEnd)

	assert.Equal(t, m.HookClient, client.Hook)
	assert.False(t, client.PassesRunDir)
	assert.True(t, client.FromEnd)

	assert.Equal(t, m.HookClient, menu.Hook)
	assert.False(t, menu.FromEnd)
	assert.Equal(t, []m.Shape{m.ShapeConstructor}, menu.Shapes)
}

func TestLaunchers(t *testing.T) {
	const (
		public       = classfile.AccPublic
		publicStatic = classfile.AccPublic | classfile.AccStatic
	)

	tests := []struct {
		site   string
		method *bytecode.MethodNode
		want   bool
	}{
		{Server, &bytecode.MethodNode{Access: publicStatic, Name: "getServerRunnable", Desc: "(Z)Ljava/lang/Runnable;"}, true},
		{Server, &bytecode.MethodNode{Access: public, Name: "getServerRunnable", Desc: "(Z)Ljava/lang/Runnable;"}, false},
		{Server, &bytecode.MethodNode{Access: publicStatic, Name: "getServerRunnable", Desc: "()Ljava/lang/Runnable;"}, false},
		{Client, &bytecode.MethodNode{Access: publicStatic, Name: "startClient", Desc: HostPortLoginNamePrefix + "Ljava/lang/String;)V"}, true},
		{Client, &bytecode.MethodNode{Access: publicStatic, Name: "startClient", Desc: "(Z)V"}, false},
		{MainMenu, &bytecode.MethodNode{Access: publicStatic, Name: "startMainMenu", Desc: "()V"}, true},
		{MainMenu, &bytecode.MethodNode{Access: classfile.AccStatic, Name: "startMainMenu", Desc: "()V"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.site+" "+tt.method.Name+tt.method.Desc, func(t *testing.T) {
			s, ok := Lookup(tt.site)
			require.True(t, ok)
			assert.Equal(t, tt.want, s.Launcher(tt.method))
		})
	}
}

func TestLandmarks(t *testing.T) {
	serverCtor := &bytecode.MethodInsn{Op: bytecode.OpInvokespecial, Owner: "obf/A", Name: "<init>", Desc: "(Z)V"}
	clientCtor := &bytecode.MethodInsn{Op: bytecode.OpInvokespecial, Owner: "obf/B", Name: "<init>",
		Desc: HostPortLoginNamePrefix + "Ljava/lang/String;)V"}
	menuCtor := &bytecode.MethodInsn{Op: bytecode.OpInvokespecial, Owner: "obf/C", Name: "<init>", Desc: "()V"}
	virtual := &bytecode.MethodInsn{Op: bytecode.OpInvokevirtual, Owner: "obf/A", Name: "start", Desc: "(Z)V"}

	server, _ := Lookup(Server)
	client, _ := Lookup(Client)
	menu, _ := Lookup(MainMenu)

	assert.True(t, server.Landmark(serverCtor))
	assert.False(t, server.Landmark(virtual))
	assert.False(t, server.Landmark(&bytecode.Insn{Op: bytecode.OpReturn}))

	assert.True(t, client.Landmark(clientCtor))
	assert.False(t, client.Landmark(serverCtor))

	assert.True(t, menu.Landmark(menuCtor))
	assert.False(t, menu.Landmark(serverCtor))
}
