package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/templates"
	"mercator-hq/scribe/pkg/templates/gitsource"
)

var templatesFlags struct {
	fieldType  string
	industry   string
	framework  string
	templateID string
	all        bool
	repository string
	branch     string
	path       string
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage prompt templates",
	Long: `List, resolve and import the prompt templates used to build prompts.

Templates are matched to a request by field type, then ranked by
specificity: a pinned id, industry and framework, industry, framework and
finally the generic default.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  runTemplatesList,
}

var templatesResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show which template a request would use",
	Long: `Show which template a request would use.

Examples:
  scribe templates resolve --field-type policy_content --industry Healthcare --framework HIPAA`,
	RunE: runTemplatesResolve,
}

var templatesImportCmd = &cobra.Command{
	Use:   "import <seed.yaml>...",
	Short: "Import template seed files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTemplatesImport,
}

var templatesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import templates from the configured Git repository",
	Long: `Clone or pull the Git template library and import its seed files once.

Flags override the templates.git section of the configuration.`,
	RunE: runTemplatesSync,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd, templatesResolveCmd, templatesImportCmd, templatesSyncCmd)

	for _, c := range []*cobra.Command{templatesListCmd, templatesResolveCmd} {
		c.Flags().StringVarP(&templatesFlags.fieldType, "field-type", "t", "", "field type")
		c.Flags().StringVar(&templatesFlags.industry, "industry", "", "industry")
		c.Flags().StringVar(&templatesFlags.framework, "framework", "", "framework")
	}
	templatesListCmd.Flags().BoolVar(&templatesFlags.all, "all", false, "include inactive templates")
	templatesResolveCmd.Flags().StringVar(&templatesFlags.templateID, "template", "", "pinned template id")

	templatesSyncCmd.Flags().StringVar(&templatesFlags.repository, "repository", "", "repository URL")
	templatesSyncCmd.Flags().StringVar(&templatesFlags.branch, "branch", "", "branch")
	templatesSyncCmd.Flags().StringVar(&templatesFlags.path, "path", "", "seed directory inside the repository")
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), "templates list")
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.templates.List(cmd.Context(), templates.Filter{
		FieldType:  fields.FieldType(templatesFlags.fieldType),
		Industry:   templatesFlags.industry,
		Framework:  templatesFlags.framework,
		ActiveOnly: !templatesFlags.all,
	})
	if err != nil {
		return cli.NewCommandError("templates list", err)
	}

	out := cmd.OutOrStdout()
	if _, ok := f.(*cli.JSONFormatter); ok {
		return f.FormatTo(out, list)
	}
	table := &cli.Table{Headers: []string{"ID", "NAME", "FIELD TYPE", "INDUSTRY", "FRAMEWORK", "DEFAULT", "ACTIVE", "VERSION"}}
	for _, t := range list {
		table.Append(t.ID, t.Name, string(t.FieldType), t.Industry, t.Framework, fmt.Sprint(t.IsDefault), fmt.Sprint(t.Active), fmt.Sprint(t.Version))
	}
	return f.FormatTo(out, table)
}

func runTemplatesResolve(cmd *cobra.Command, args []string) error {
	ft := fields.FieldType(templatesFlags.fieldType)
	if !ft.Valid() {
		return cli.NewConfigError("field-type", fmt.Sprintf("unknown field type %q", templatesFlags.fieldType))
	}
	f, err := formatter()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), "templates resolve")
	if err != nil {
		return err
	}
	defer a.Close()

	t, tier, err := a.resolver.Resolve(cmd.Context(), templates.Query{
		FieldType:  ft,
		Industry:   templatesFlags.industry,
		Framework:  templatesFlags.framework,
		TemplateID: templatesFlags.templateID,
	})
	if err != nil && !errors.Is(err, templates.ErrNotFound) {
		return cli.NewCommandError("templates resolve", err)
	}

	out := cmd.OutOrStdout()
	if _, ok := f.(*cli.JSONFormatter); ok {
		return f.FormatTo(out, map[string]any{"template": t, "tier": tier})
	}
	if t == nil {
		_, err := fmt.Fprintf(out, "No template matches %s; the built-in prompt library applies.\n", ft)
		return err
	}
	fmt.Fprintf(out, "✓ %s (%s) matched by %s\n", t.Name, t.ID, tier)
	fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(t.Body))
	return nil
}

func runTemplatesImport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), "templates import")
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	var errs []error
	for _, path := range args {
		result, err := templates.ImportFile(cmd.Context(), a.templates, path)
		if err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %s\n", path, result)
	}
	if len(errs) > 0 {
		return cli.NewCommandError("templates import", errors.Join(errs...))
	}
	return nil
}

func runTemplatesSync(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), "templates sync")
	if err != nil {
		return err
	}
	defer a.Close()

	gc := a.cfg.Templates.Git
	if templatesFlags.repository != "" {
		gc.Repository = templatesFlags.repository
	}
	if templatesFlags.branch != "" {
		gc.Branch = templatesFlags.branch
	}
	if templatesFlags.path != "" {
		gc.Path = templatesFlags.path
	}
	if gc.Repository == "" {
		return cli.NewConfigError("templates.git.repository", "no template repository configured")
	}

	source, err := gitsource.New(gitConfig(gc), a.templates)
	if err != nil {
		return cli.NewConfigError("templates.git", err.Error())
	}
	result, err := source.Sync(cmd.Context())
	if err != nil {
		return cli.NewCommandError("templates sync", err)
	}

	out := cmd.OutOrStdout()
	if !result.Changed {
		fmt.Fprintf(out, "✓ Up to date at %s\n", result.Commit)
		return nil
	}
	fmt.Fprintf(out, "✓ Synced %s (%d files): %s\n", result.Commit, len(result.Files), result.Import)
	return nil
}
