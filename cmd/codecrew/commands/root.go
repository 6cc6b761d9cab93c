// Package commands provides the CLI commands for codecrew.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	printLogs    bool
	logLevel     string
	safeMode     bool
	teamFlag     string
	providerFlag string
	modelFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "codecrew",
	Short: "codecrew - a terminal crew of AI coding agents",
	Long: `codecrew runs teams of LLM agents that collaborate on coding tasks
from the terminal, sharing one sandboxed toolset for files, search,
shell and web access.

Run 'codecrew run "..."' for a one-shot request, 'codecrew team' to
build and broadcast to a team, or 'codecrew serve' to expose teams
over HTTP.`,
	Version: Version,
	// If no subcommand, show help
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&safeMode, "safe", false, "Harden the sandbox: block network tools, installers and non-standard ports")
	rootCmd.PersistentFlags().StringVar(&teamFlag, "team", "", "Team name for team subcommands")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "Provider override (grok|groq|gemini|claude|ollama)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model override")

	// Version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("codecrew %s (%s)\n", Version, BuildTime))

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetWorkDir returns the working directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}
