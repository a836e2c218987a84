package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/echoform/echoform/pkg/config"
)

func newOnboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "onboard",
		Short:   "Initialize ~/.echoform config and state directory",
		Long:    "Create the default configuration file and state directory for a new installation.",
		Example: "  echoform onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()

			if err := os.MkdirAll(cfg.StateDirPath(), 0755); err != nil {
				return fmt.Errorf("create state dir: %w", err)
			}

			path := configPath()
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("Config already exists at %s, leaving it untouched.\n", path)
				return nil
			}

			if err := config.SaveConfig(path, cfg); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Printf("Wrote default config to %s\n", path)
			fmt.Println("Set GEMINI_API_KEY (or provider.api_key) to enable the Gemini provider;")
			fmt.Println("without a key echoform runs in offline simulation mode.")
			return nil
		},
	}
}
