package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"starhook.dev/pkg/starhook/internal/domain"
	m "starhook.dev/pkg/starhook/internal/model"
)

const defaultScanPrefix = "org/schema/"

var (
	scanParallelFlag int
	scanSitesFlag    []string
	scanPrefixFlag   string
)

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <game.jar>",
		Short: "List every landmark call the hook sites look for",
		Long: `Scan every class of a game jar for the landmark calls of the hook sites.

Use it to find where a newer obfuscated build moved the session classes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Scan(cmd.Context(), domain.ScanArgs{
				Game:     m.Path(args[0]),
				Sites:    scanSitesFlag,
				Prefix:   scanPrefixFlag,
				Parallel: viper.GetInt(runParallelConfigKey),
			})
		},
	}

	configureScanFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func configureScanFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&scanParallelFlag, runParallelFlagName, "p", viper.GetInt(runParallelConfigKey), "number of classes parsed in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(runParallelFlagName), runParallelConfigKey)
	cmd.Flags().StringSliceVar(&scanSitesFlag, siteFlagName, nil, "hook sites to scan for (default all)")
	cmd.Flags().StringVar(&scanPrefixFlag, "prefix", defaultScanPrefix, "only scan classes whose internal name starts with this prefix")
}
