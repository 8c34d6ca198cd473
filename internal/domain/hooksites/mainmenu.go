package hooksites

import (
	"starhook.dev/pkg/starhook/internal/bytecode"
	m "starhook.dev/pkg/starhook/internal/model"
)

// MainMenu is the menu frame the client opens when launched with -force.
const MainMenu = "main-menu"

func init() {
	register(Site{
		Name:         MainMenu,
		Launcher:     launcher("startMainMenu", bytecode.Equals("()V")),
		LauncherDesc: "public static startMainMenu()V",
		// the first no-arg constructor call is the menu itself
		Landmark:     bytecode.InvokeNamed(bytecode.OpInvokespecial, "<init>", bytecode.Equals("()V")),
		LandmarkDesc: "invokespecial *.<init>()V",
		Shapes:       []m.Shape{m.ShapeConstructor},
		Hook:         m.HookClient,
	})
}
