package cmd

import (
	"github.com/spf13/cobra"

	"starhook.dev/pkg/starhook/internal/domain"
	m "starhook.dev/pkg/starhook/internal/model"
)

var inspectMethodFlag string

// inspectCmd represents the inspect command.
var inspectCmd = newInspectCmd()

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <game.jar|dir> <class>",
		Short: "Disassemble a class",
		Long: `Print the methods of a class from a jar or class directory.

The class can be given in dotted or internal form. Pointing inspect at the
output directory of a patch run shows the injected hook calls.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Inspect(cmd.Context(), domain.InspectArgs{
				Source: m.Path(args[0]),
				Class:  args[1],
				Method: inspectMethodFlag,
			})
		},
	}

	cmd.Flags().StringVar(&inspectMethodFlag, "method", "", "only show methods with this name")

	return cmd
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
