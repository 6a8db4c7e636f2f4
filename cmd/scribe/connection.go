package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/settings"
)

var connectionFlags struct {
	provider string
	model    string
	endpoint string
	apiKey   string
	user     string
}

var connectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check that a provider answers",
	Long: `Send a minimal low-token request to a provider and report whether it
answered. The caller's saved configuration fills anything the flags leave
empty.

Examples:
  # Check the local Ollama server
  scribe test-connection --provider ollama --model llama3.2

  # Check an OpenAI key before saving it
  scribe test-connection --provider openai --api-key "$OPENAI_API_KEY"`,
	RunE: runConnectionTest,
}

func init() {
	rootCmd.AddCommand(connectionCmd)

	f := connectionCmd.Flags()
	f.StringVarP(&connectionFlags.provider, "provider", "p", "", "provider id")
	f.StringVarP(&connectionFlags.model, "model", "m", "", "model name")
	f.StringVar(&connectionFlags.endpoint, "endpoint", "", "override provider endpoint")
	f.StringVar(&connectionFlags.apiKey, "api-key", "", "provider API key")
	f.StringVar(&connectionFlags.user, "user", "", "user whose saved configuration applies")
}

func runConnectionTest(cmd *cobra.Command, args []string) error {
	if connectionFlags.provider == "" {
		return cli.NewConfigError("provider", "--provider is required")
	}
	f, err := formatter()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if connectionFlags.user != "" {
		ctx = settings.WithUser(ctx, connectionFlags.user)
	}
	a, err := openApp(ctx, "test-connection")
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.service.TestConnection(ctx, providers.GenerationRequest{
		Provider: connectionFlags.provider,
		Model:    connectionFlags.model,
		Endpoint: connectionFlags.endpoint,
		APIKey:   connectionFlags.apiKey,
		UserID:   connectionFlags.user,
	})

	out := cmd.OutOrStdout()
	switch f.(type) {
	case *cli.JSONFormatter:
		err = f.FormatTo(out, result)
	case *cli.CSVFormatter:
		table := &cli.Table{Headers: []string{"ok", "provider", "model", "message", "latency_ms"}}
		table.Append(fmt.Sprint(result.OK), result.Provider, result.Model, result.Message, fmt.Sprint(result.Latency.Milliseconds()))
		err = f.FormatTo(out, table)
	default:
		mark := "✓"
		if !result.OK {
			mark = "✗"
		}
		_, err = fmt.Fprintf(out, "%s %s (%dms)\n", mark, result.Message, result.Latency.Milliseconds())
	}
	if err != nil {
		return err
	}

	if !result.OK {
		return &cli.FailureError{Message: fmt.Sprintf("connection to %s failed", result.Provider)}
	}
	return nil
}
