package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/scribe/pkg/cli"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe - AI content generation for GRC records",
	Long: `Scribe generates business content for governance, risk and compliance
records through interchangeable AI providers.

It provides:
  - One request shape for Ollama, OpenAI, Anthropic and Gemini
  - Per-user provider configurations with a local fallback cache
  - Industry and framework specific prompt templates
  - A generation log with export and retention`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json, csv)")
}

// formatter returns the formatter selected by --format.
func formatter() (cli.Formatter, error) {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return cli.NewFormatter(format), nil
}
