package main

import (
	"fmt"
	"os"

	"llmdesk/internal/commands"
	"llmdesk/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "llmdesk",
	Short: "LLM Desk backend - cloud model and settings bridge",
	Long: `LLM Desk backend serves the desktop UI's bound App methods over a local
HTTP bridge and streams change events over WebSocket.

Commands:
  serve                        Run the bridge server (default)
  config show|path             Inspect the configuration
  token                        Mint a bridge access token
  models list|get|enable|...   Manage cloud models on a running server
  settings get|set             Read and write settings on a running server

Config: ~/.llmdesk/config.yaml (override the directory with LLMDESK_DATA_DIR)`,
	Version: config.Version,
	RunE:    commands.ServeCmd.RunE,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&commands.DataDir, "data-dir", "", "Data directory (default ~/.llmdesk)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.TokenCmd)
	rootCmd.AddCommand(commands.ModelsCmd)
	rootCmd.AddCommand(commands.SettingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
