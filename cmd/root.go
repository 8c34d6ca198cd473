// Package cmd provides the root command and CLI setup for starhook.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"starhook.dev/pkg/starhook/internal/adapter"
	"starhook.dev/pkg/starhook/internal/controller"
	"starhook.dev/pkg/starhook/internal/domain"
)

var workflow domain.Workflow

var verboseFlag bool
var logFileFlag string

const rootLongDescription = `starhook installs the mod loader's start hooks into a StarMade game jar.

It finds the game's launcher class, follows the launcher methods to the
obfuscated classes that start a session and injects a call to the loader
right where that session begins. Patched classes are written to an output
jar or directory; the original jar is never modified.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "starhook",
		Short:        "StarMade entrypoint patcher",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupWorkflow(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// setupWorkflow wires the real dependencies once flags are parsed. A
// workflow set beforehand is kept.
func setupWorkflow(cmd *cobra.Command) error {
	if workflow != nil {
		return nil
	}

	configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

	cfg, err := patchConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	workflow = domain.NewWorkflow(
		adapter.OpenClassSource,
		adapter.NewYAMLReportStore(),
		controller.New(cmd, true),
		cfg,
	)

	return nil
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// splitAtDash separates the command's own arguments from the ones passed to
// the game after "--".
func splitAtDash(cmd *cobra.Command, args []string) ([]string, []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return args, nil
	}

	return args[:dash], args[dash:]
}
