package hooksites

import (
	"starhook.dev/pkg/starhook/internal/bytecode"
	m "starhook.dev/pkg/starhook/internal/model"
)

// Client is the game session started by Starter.startClient.
const Client = "client"

func init() {
	register(Site{
		Name:         Client,
		Launcher:     launcher("startClient", bytecode.HasPrefix(HostPortLoginNamePrefix)),
		LauncherDesc: "public static startClient" + HostPortLoginNamePrefix + "...",
		// new obfuscated_client.<init>(HostPortLoginName, boolean, ...)
		Landmark:     bytecode.Invoke(bytecode.OpInvokespecial, bytecode.HasPrefix(HostPortLoginNamePrefix)),
		LandmarkDesc: "invokespecial *" + HostPortLoginNamePrefix + "...",
		FromEnd:      true,
		Shapes:       []m.Shape{m.ShapeRunLoop, m.ShapeConstructor},
		Hook:         m.HookClient,
	})
}
