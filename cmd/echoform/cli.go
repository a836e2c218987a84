package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/echoform/echoform/pkg/logger"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   appName,
		Short: "Self-reflecting conversational agent with an evolving trait profile",
		Long: strings.TrimSpace(`echoform persists an agent's full cognitive history: dialogue, reasoning
traces, compressed fingerprints, evaluation scores, and a personality-trait
profile that mutates deterministically from evaluation results.

Use CLI commands to chat locally, run the gateway with web and Discord
surfaces, and inspect any session's cognitive state.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newOnboardCommand())
	root.AddCommand(newChatCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newSessionsCommand())
	root.AddCommand(newHistoryCommand())
	root.AddCommand(newTraitsCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build/version metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
}

func debugFlag(cmd *cobra.Command, debug *bool) {
	cmd.Flags().BoolVarP(debug, "debug", "d", false, "Enable debug logging")
}

func applyDebug(debug bool) {
	if debug {
		logger.SetLevel(logger.DEBUG)
	}
}
