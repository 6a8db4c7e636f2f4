package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/config"
	"mercator-hq/scribe/pkg/providerfactory"
	"mercator-hq/scribe/pkg/templates"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and template seed files",
	Long: `Load the configuration with environment overrides, validate it and parse
the configured template seed file without touching the database.

Examples:
  scribe validate --config /etc/scribe/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid (%s)\n", cfgFile)

	if err := resolveSecrets(cmd.Context(), cfg); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Secret references resolved")

	pcs := providerfactory.ConfigsFrom(cfg)
	for _, pc := range pcs {
		if _, err := providerfactory.NewAdapter(pc); err != nil {
			return cli.NewConfigError("providers."+pc.Name, err.Error())
		}
	}
	fmt.Fprintf(out, "✓ Providers (%d enabled)\n", len(pcs))

	switch cfg.Storage.Driver {
	case "postgres":
		fmt.Fprintln(out, "✓ Storage: postgres")
	default:
		fmt.Fprintf(out, "✓ Storage: %s at %s\n", cfg.Storage.Driver, cfg.Storage.Path)
	}
	fmt.Fprintf(out, "✓ Configuration cache: %s\n", cfg.Cache.Backend)

	if seed := cfg.Templates.SeedFile; seed != "" {
		data, err := os.ReadFile(seed)
		if err != nil {
			return cli.NewConfigError("templates.seed_file", err.Error())
		}
		ts, err := templates.ParseSeed(data)
		if err != nil {
			return cli.NewConfigError("templates.seed_file", err.Error())
		}
		fmt.Fprintf(out, "✓ Template seed %s (%d templates)\n", seed, len(ts))
	}
	if repo := cfg.Templates.Git.Repository; repo != "" {
		fmt.Fprintf(out, "✓ Template repository %s@%s\n", repo, cfg.Templates.Git.Branch)
	}
	return nil
}
