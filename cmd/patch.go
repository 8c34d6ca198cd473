package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"starhook.dev/pkg/starhook/internal/domain"
	m "starhook.dev/pkg/starhook/internal/model"
)

const patchLongDescription = `Patch the game jar so that starting a session calls the loader's hooks.

Arguments after "--" are the game's own launch arguments. They decide the
launch directory (--gameDir) and whether the client boots into the main
menu (-force).

An output path ending in .jar receives a full copy of the game jar with the
patched classes replaced; any other path receives the patched classes only.`

var (
	patchOutputFlag        string
	patchReportFlag        string
	patchModeFlag          string
	patchPolicyFlag        string
	patchSitesFlag         []string
	patchAllowHeadlessFlag bool
	patchClassPathFlag     []string
	patchDryRunFlag        bool
)

// patchCmd represents the patch command.
var patchCmd = newPatchCmd()

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch <game.jar> [-- game args...]",
		Short: "Install the start hooks into a game jar",
		Long:  patchLongDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, gameArgs := splitAtDash(cmd, args)
			if len(positional) != 1 {
				return fmt.Errorf("expected exactly one game jar, got %d arguments", len(positional))
			}

			mode, err := m.ParseMode(viper.GetString(patchModeKey))
			if err != nil {
				return err
			}

			return workflow.Patch(cmd.Context(), domain.PatchArgs{
				Game:      m.Path(positional[0]),
				ClassPath: parsePaths(patchClassPathFlag),
				Output:    m.Path(viper.GetString(outputFlagName)),
				Report:    m.Path(viper.GetString(reportFlagName)),
				Mode:      mode,
				GameArgs:  gameArgs,
				DryRun:    patchDryRunFlag,
			})
		},
	}

	configurePatchFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(patchCmd)
}

func configurePatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&patchOutputFlag, outputFlagName, "o", viper.GetString(outputFlagName), "output jar or class directory")
	bindFlagToConfig(cmd.Flags().Lookup(outputFlagName), outputFlagName)

	cmd.Flags().StringVar(&patchReportFlag, reportFlagName, viper.GetString(reportFlagName), "write a YAML report of installed hooks to this file")
	bindFlagToConfig(cmd.Flags().Lookup(reportFlagName), reportFlagName)

	cmd.Flags().StringVarP(&patchModeFlag, modeFlagName, "m", viper.GetString(patchModeKey), "session mode: interactive (client) or headless (server)")
	bindFlagToConfig(cmd.Flags().Lookup(modeFlagName), patchModeKey)

	cmd.Flags().StringVar(&patchPolicyFlag, policyFlagName, viper.GetString(patchPolicyKey), "hook site policy: exclusive or additive")
	bindFlagToConfig(cmd.Flags().Lookup(policyFlagName), patchPolicyKey)

	cmd.Flags().StringSliceVar(&patchSitesFlag, siteFlagName, viper.GetStringSlice(patchSitesKey), "hook sites to install, overrides --policy (can be repeated)")
	bindFlagToConfig(cmd.Flags().Lookup(siteFlagName), patchSitesKey)

	cmd.Flags().BoolVar(&patchAllowHeadlessFlag, allowHeadlessFlagName, viper.GetBool(patchAllowHeadlessKey), "allow patching headless (server) sessions")
	bindFlagToConfig(cmd.Flags().Lookup(allowHeadlessFlagName), patchAllowHeadlessKey)

	cmd.Flags().StringSliceVar(&patchClassPathFlag, "classpath", nil, "extra jars or class directories to resolve classes from")
	cmd.Flags().BoolVarP(&patchDryRunFlag, "dry-run", "n", false, "plan and apply in memory without writing anything")
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
