package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"starhook.dev/pkg/starhook/internal/domain"
	m "starhook.dev/pkg/starhook/internal/model"
)

// gameCmd represents the game command.
var gameCmd = newGameCmd()

func newGameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "game <game.jar> [-- game args...]",
		Short: "Show what starhook detects in a game jar",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, gameArgs := splitAtDash(cmd, args)
			if len(positional) != 1 {
				return fmt.Errorf("expected exactly one game jar, got %d arguments", len(positional))
			}

			return workflow.Game(cmd.Context(), domain.GameArgs{
				Game:     m.Path(positional[0]),
				GameArgs: gameArgs,
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(gameCmd)
}
