package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	m "starhook.dev/pkg/starhook/internal/model"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long: `Displays the build version, the Go version used to build starhook and the
client and server hooks a patch run would inject with the current configuration.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
				cmd.Println("tool version\t", info.Main.Version)
				cmd.Println("go version\t", info.GoVersion)
			} else {
				cmd.Println("version: unknown")
			}

			hooks := configuredHooks()
			cmd.Println("client hook\t", hooks[m.HookClient])
			cmd.Println("server hook\t", hooks[m.HookServer])
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
