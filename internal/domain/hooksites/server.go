package hooksites

import (
	"starhook.dev/pkg/starhook/internal/bytecode"
	m "starhook.dev/pkg/starhook/internal/model"
)

// Server is the integrated server started by Starter.getServerRunnable(Z).
const Server = "server"

func init() {
	register(Site{
		Name:         Server,
		Launcher:     launcher("getServerRunnable", bytecode.Equals("(Z)Ljava/lang/Runnable;")),
		LauncherDesc: "public static getServerRunnable(Z)Ljava/lang/Runnable;",
		// new obfuscated_server.<init>(Z)V
		Landmark:     bytecode.Invoke(bytecode.OpInvokespecial, bytecode.Equals("(Z)V")),
		LandmarkDesc: "invokespecial *(Z)V",
		FromEnd:      true,
		Shapes:       []m.Shape{m.ShapeRunLoop, m.ShapeConstructor},
		Hook:         m.HookServer,
		PassesRunDir: true,
	})
}
