package main

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/ptyhost/termharness/internal/config"
	"github.com/ptyhost/termharness/internal/termcore"
)

var wellKnownShells = []string{"bash", "zsh", "sh", "fish", "powershell", "pwsh"}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check shell availability and config",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("termharness doctor")
			fmt.Println()

			fmt.Println("shells:")
			for _, name := range wellKnownShells {
				if path, err := exec.LookPath(name); err == nil {
					allowed := termcore.ValidateShell(name) == nil
					fmt.Printf("  %-12s %s (allow-listed: %v)\n", name, path, allowed)
				} else {
					fmt.Printf("  %-12s not found\n", name)
				}
			}
			fmt.Println()

			path, err := config.DefaultPath()
			if err != nil {
				return err
			}
			loader, err := config.NewLoader(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg := loader.Get()
			fmt.Println("config:")
			fmt.Printf("  path:               %s\n", path)
			fmt.Printf("  history_max_bytes:  %d\n", cfg.Sessions.HistoryMaxBytes)
			fmt.Printf("  poll_period_ms:     %d\n", cfg.Sessions.PollPeriodMS)
			fmt.Printf("  command_timeout_ms: %d\n", cfg.Sessions.CommandTimeoutMS)
			fmt.Printf("  extra_shells:       %v\n", cfg.Sessions.ExtraShells)

			return nil
		},
	}
}
