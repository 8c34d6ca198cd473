package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"starhook.dev/pkg/starhook/internal/domain/hooksites"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default starhook.yaml configuration file",
		Long: `Create a starhook.yaml in the current working directory populated with the
current defaults (hook symbols, site policy, shape ranks and logging) so it
can be edited manually.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			err := viper.SafeWriteConfigAs(targetPath)
			if err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("Wrote %s (policy %s, %d hook sites known)\n",
				targetPath, viper.GetString(patchPolicyKey), len(hooksites.Names()))

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
