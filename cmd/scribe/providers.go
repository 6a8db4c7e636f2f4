package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/providers"
)

var providersFlags struct {
	live     bool
	endpoint string
}

var providersCmd = &cobra.Command{
	Use:   "providers [id]",
	Short: "List supported providers and their models",
	Long: `List the supported providers, or show one provider.

With --live the self-hosted provider's installed models are discovered from
the running server; the static list is shown when discovery fails.

Examples:
  # List every provider
  scribe providers

  # Show the models installed on a remote Ollama server
  scribe providers ollama --live --endpoint http://gpu-box:11434`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)

	providersCmd.Flags().BoolVar(&providersFlags.live, "live", false, "discover installed models (self-hosted only)")
	providersCmd.Flags().StringVar(&providersFlags.endpoint, "endpoint", "", "endpoint used for live discovery")
}

func runProviders(cmd *cobra.Command, args []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), "providers")
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		list := a.registry.List()
		if _, ok := f.(*cli.JSONFormatter); ok {
			return f.FormatTo(out, list)
		}
		table := &cli.Table{Headers: []string{"ID", "NAME", "FAMILY", "API KEY", "DEFAULT MODEL", "MODELS"}}
		for _, d := range list {
			table.Append(d.ID, d.Name, string(d.Family), keyRequirement(d), d.DefaultModel, fmt.Sprint(len(d.Models)))
		}
		return f.FormatTo(out, table)
	}

	id := args[0]
	var (
		d  providers.ProviderDescriptor
		ok bool
	)
	if providersFlags.live {
		d, ok = a.registry.WithLiveModels(cmd.Context(), id, providersFlags.endpoint)
	} else {
		d, ok = a.registry.Get(id)
	}
	if !ok {
		return cli.NewConfigError("provider", fmt.Sprintf("unknown provider %q", id))
	}

	switch f.(type) {
	case *cli.JSONFormatter:
		return f.FormatTo(out, d)
	case *cli.CSVFormatter:
		table := &cli.Table{Headers: []string{"provider", "model", "default"}}
		for _, m := range d.Models {
			table.Append(d.ID, m, fmt.Sprint(m == d.DefaultModel))
		}
		return f.FormatTo(out, table)
	}

	fmt.Fprintf(out, "%s (%s)\n", d.Name, d.ID)
	fmt.Fprintf(out, "  %s\n", d.Description)
	fmt.Fprintf(out, "  Family:   %s\n", d.Family)
	fmt.Fprintf(out, "  API key:  %s\n", keyRequirement(d))
	fmt.Fprintf(out, "  Endpoint: %s\n", d.DefaultEndpoint)
	fmt.Fprintf(out, "  Models:   %s\n", strings.Join(d.Models, ", "))
	fmt.Fprintf(out, "  Default:  %s\n", d.DefaultModel)
	return nil
}

func keyRequirement(d providers.ProviderDescriptor) string {
	if d.RequiresAPIKey {
		return "required"
	}
	return "none"
}
