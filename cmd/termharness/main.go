package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ptyhost/termharness/internal/logger"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "termharness",
		Short: "termharness — headless terminal session automation over MCP",
		Long:  "Spawns and drives PTY-backed shell sessions for automation and AI agents, exposed as MCP tools.",
	}

	root.AddCommand(
		serveCmd(),
		doctorCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the termharness version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}
