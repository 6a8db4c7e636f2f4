package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/settings"
)

var configsFlags struct {
	user        string
	provider    string
	model       string
	endpoint    string
	apiKey      string
	temperature float64
	maxTokens   int
	inactive    bool
}

var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "Manage saved provider configurations",
	Long: `List, save and delete a user's provider configurations.

Listing never fails: when the database is unreachable the local cache
answers, and when the cache is empty too the built-in default configuration
is shown.`,
}

var configsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's active configurations",
	RunE:  runConfigsList,
}

var configsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a configuration (one per provider and user)",
	Long: `Save a configuration for the user. Saving a provider that already has a
configuration updates it.

Examples:
  scribe configs save --user alice --provider openai --model gpt-4o-mini \
    --api-key "$OPENAI_API_KEY" --temperature 0.4`,
	RunE: runConfigsSave,
}

var configsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of the user's configurations",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigsDelete,
}

func init() {
	rootCmd.AddCommand(configsCmd)
	configsCmd.AddCommand(configsListCmd, configsSaveCmd, configsDeleteCmd)

	configsCmd.PersistentFlags().StringVar(&configsFlags.user, "user", "", "user id")

	f := configsSaveCmd.Flags()
	f.StringVarP(&configsFlags.provider, "provider", "p", "", "provider id")
	f.StringVarP(&configsFlags.model, "model", "m", "", "model name")
	f.StringVar(&configsFlags.endpoint, "endpoint", "", "API endpoint")
	f.StringVar(&configsFlags.apiKey, "api-key", "", "API key")
	f.Float64Var(&configsFlags.temperature, "temperature", 0.7, "sampling temperature (0-1)")
	f.IntVar(&configsFlags.maxTokens, "max-tokens", 2000, "maximum output tokens")
	f.BoolVar(&configsFlags.inactive, "inactive", false, "save the configuration as inactive")
}

func userContext(ctx context.Context) context.Context {
	if configsFlags.user == "" {
		return ctx
	}
	return settings.WithUser(ctx, configsFlags.user)
}

func runConfigsList(cmd *cobra.Command, args []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	ctx := userContext(cmd.Context())
	a, err := openApp(ctx, "configs list")
	if err != nil {
		return err
	}
	defer a.Close()

	configs, tier := a.configs.List(ctx)
	redacted := make([]settings.Configuration, len(configs))
	for i, c := range configs {
		redacted[i] = c.Redacted()
	}

	out := cmd.OutOrStdout()
	if _, ok := f.(*cli.JSONFormatter); ok {
		return f.FormatTo(out, map[string]any{"configurations": redacted, "source": tier})
	}

	table := &cli.Table{Headers: []string{"ID", "PROVIDER", "MODEL", "ENDPOINT", "TEMPERATURE", "MAX TOKENS", "SOURCE"}}
	for _, c := range redacted {
		id := c.ID
		if c.Synthesized {
			id = "(default)"
		}
		table.Append(id, c.Provider, c.Model, c.Endpoint, fmt.Sprintf("%.2f", c.Temperature), fmt.Sprint(c.MaxTokens), string(tier))
	}
	return f.FormatTo(out, table)
}

func runConfigsSave(cmd *cobra.Command, args []string) error {
	ctx := userContext(cmd.Context())
	a, err := openApp(ctx, "configs save")
	if err != nil {
		return err
	}
	defer a.Close()

	saved, err := a.configs.Save(ctx, settings.Configuration{
		Provider:    configsFlags.provider,
		Model:       configsFlags.model,
		Endpoint:    configsFlags.endpoint,
		APIKey:      configsFlags.apiKey,
		Temperature: configsFlags.temperature,
		MaxTokens:   configsFlags.maxTokens,
		Active:      !configsFlags.inactive,
	})
	if err != nil {
		return settingsError("configs save", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s configuration %s\n", saved.Provider, saved.ID)
	return nil
}

func runConfigsDelete(cmd *cobra.Command, args []string) error {
	ctx := userContext(cmd.Context())
	a, err := openApp(ctx, "configs delete")
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.configs.Delete(ctx, args[0]); err != nil {
		return settingsError("configs delete", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted configuration %s\n", args[0])
	return nil
}

func settingsError(command string, err error) error {
	switch {
	case errors.Is(err, settings.ErrUnauthenticated):
		return cli.NewConfigError("user", "--user is required")
	case errors.Is(err, settings.ErrInvalidConfiguration):
		return cli.NewConfigError("", err.Error())
	default:
		return cli.NewCommandError(command, err)
	}
}
