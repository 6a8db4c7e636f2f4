package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/providers"
	"mercator-hq/scribe/pkg/settings"
)

var generateFlags struct {
	provider    string
	model       string
	fieldType   string
	attrs       map[string]string
	context     string
	templateID  string
	industry    string
	framework   string
	endpoint    string
	apiKey      string
	temperature float64
	maxTokens   int
	user        string
	batchFile   string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate content for one field or a batch",
	Long: `Generate business content through a provider.

A single request is described with flags. A batch is read from a JSON file
holding an array of requests; --provider, --api-key and --endpoint fill
entries that leave them empty.

Examples:
  # Draft audit objectives with the local Ollama server
  scribe generate --provider ollama --field-type objectives \
    --attr title="Q3 Access Review" --attr audit_type=internal

  # Use a hosted provider and a pinned template
  scribe generate --provider openai --api-key "$OPENAI_API_KEY" \
    --field-type policy_content --template 6f1c...

  # Generate a batch and print JSON
  scribe generate --batch requests.json --provider anthropic --format json`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVarP(&generateFlags.provider, "provider", "p", "", "provider id (ollama, openai, anthropic, gemini)")
	f.StringVarP(&generateFlags.model, "model", "m", "", "model name (provider default if empty)")
	f.StringVarP(&generateFlags.fieldType, "field-type", "t", "", "field type to generate")
	f.StringToStringVarP(&generateFlags.attrs, "attr", "a", nil, "entity attribute key=value (repeatable)")
	f.StringVar(&generateFlags.context, "context", "", "free-text context")
	f.StringVar(&generateFlags.templateID, "template", "", "pin a template id")
	f.StringVar(&generateFlags.industry, "industry", "", "template industry hint")
	f.StringVar(&generateFlags.framework, "framework", "", "template framework hint")
	f.StringVar(&generateFlags.endpoint, "endpoint", "", "override provider endpoint")
	f.StringVar(&generateFlags.apiKey, "api-key", "", "provider API key")
	f.Float64Var(&generateFlags.temperature, "temperature", 0, "sampling temperature (0-1)")
	f.IntVar(&generateFlags.maxTokens, "max-tokens", 0, "maximum output tokens")
	f.StringVar(&generateFlags.user, "user", "", "user whose saved configuration applies")
	f.StringVar(&generateFlags.batchFile, "batch", "", "JSON file with an array of requests")
}

// batchRequest is one entry of a batch file. It accepts the API key that
// the request type keeps out of JSON.
type batchRequest struct {
	providers.GenerationRequest
	APIKey string `json:"api_key,omitempty"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}

	var reqs []*providers.GenerationRequest
	if generateFlags.batchFile != "" {
		reqs, err = readBatch(generateFlags.batchFile)
		if err != nil {
			return err
		}
	} else {
		req, err := singleRequest(cmd)
		if err != nil {
			return err
		}
		reqs = []*providers.GenerationRequest{req}
	}

	ctx := cmd.Context()
	if generateFlags.user != "" {
		ctx = settings.WithUser(ctx, generateFlags.user)
	}

	a, err := openApp(ctx, "generate")
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if generateFlags.batchFile == "" {
		resp := a.service.GenerateContent(ctx, reqs[0])
		if err := writeGeneration(out, f, resp); err != nil {
			return err
		}
		if !resp.Success {
			return &cli.FailureError{Message: resp.Error}
		}
		return nil
	}

	progress := cli.NewBatchProgress(cmd.ErrOrStderr(), len(reqs))

	results := make([]*providers.GenerationResponse, len(reqs))
	var g errgroup.Group
	g.SetLimit(a.cfg.Generation.BatchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = a.service.GenerateContent(ctx, req)
			progress.Done(results[i].Success)
			return nil
		})
	}
	_ = g.Wait()
	progress.Finish()

	failed := 0
	table := &cli.Table{Headers: []string{"#", "FIELD TYPE", "PROVIDER", "MODEL", "STATUS", "TOKENS", "RESULT"}}
	for i, resp := range results {
		status, result := "ok", summarize(resp.Content.String())
		if !resp.Success {
			failed++
			status, result = "error", resp.Error
		}
		table.Append(fmt.Sprint(i+1), string(reqs[i].FieldType), resp.Provider, resp.Model, status, fmt.Sprint(resp.TokensUsed), result)
	}

	if _, ok := f.(*cli.JSONFormatter); ok {
		err = f.FormatTo(out, map[string]any{
			"results":   results,
			"succeeded": len(results) - failed,
			"failed":    failed,
		})
	} else {
		err = f.FormatTo(out, table)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return &cli.FailureError{Message: fmt.Sprintf("%d of %d generations failed", failed, len(results))}
	}
	return nil
}

func singleRequest(cmd *cobra.Command) (*providers.GenerationRequest, error) {
	if generateFlags.provider == "" {
		return nil, cli.NewConfigError("provider", "--provider is required")
	}
	ft := fields.FieldType(generateFlags.fieldType)
	if !ft.Valid() {
		return nil, cli.NewConfigError("field-type", fmt.Sprintf("unknown field type %q (see 'scribe fields')", generateFlags.fieldType))
	}

	req := &providers.GenerationRequest{
		Provider:   generateFlags.provider,
		Model:      generateFlags.model,
		FieldType:  ft,
		Context:    generateFlags.context,
		TemplateID: generateFlags.templateID,
		Industry:   generateFlags.industry,
		Framework:  generateFlags.framework,
		Endpoint:   generateFlags.endpoint,
		APIKey:     generateFlags.apiKey,
		UserID:     generateFlags.user,
	}
	if len(generateFlags.attrs) > 0 {
		req.Attributes = make(map[string]any, len(generateFlags.attrs))
		for k, v := range generateFlags.attrs {
			req.Attributes[k] = v
		}
	}
	if cmd.Flags().Changed("temperature") {
		t := generateFlags.temperature
		req.Temperature = &t
	}
	if cmd.Flags().Changed("max-tokens") {
		m := generateFlags.maxTokens
		req.MaxTokens = &m
	}
	return req, nil
}

// readBatch decodes a batch file and applies the command-line defaults.
func readBatch(path string) ([]*providers.GenerationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cli.NewConfigError("batch", fmt.Sprintf("failed to read %s: %v", path, err))
	}
	var entries []batchRequest
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, cli.NewConfigError("batch", fmt.Sprintf("failed to parse %s: %v", path, err))
	}
	if len(entries) == 0 {
		return nil, cli.NewConfigError("batch", fmt.Sprintf("%s holds no requests", path))
	}

	reqs := make([]*providers.GenerationRequest, len(entries))
	for i, e := range entries {
		req := e.GenerationRequest
		req.APIKey = e.APIKey
		if req.Provider == "" {
			req.Provider = generateFlags.provider
		}
		if req.APIKey == "" {
			req.APIKey = generateFlags.apiKey
		}
		if req.Endpoint == "" {
			req.Endpoint = generateFlags.endpoint
		}
		req.UserID = generateFlags.user
		if req.Provider == "" {
			return nil, cli.NewConfigError("batch", fmt.Sprintf("request %d names no provider", i+1))
		}
		reqs[i] = &req
	}
	return reqs, nil
}

func writeGeneration(w io.Writer, f cli.Formatter, resp *providers.GenerationResponse) error {
	switch f.(type) {
	case *cli.JSONFormatter:
		return f.FormatTo(w, resp)
	case *cli.CSVFormatter:
		table := &cli.Table{Headers: []string{"provider", "model", "success", "tokens_used", "content", "error"}}
		table.Append(resp.Provider, resp.Model, fmt.Sprint(resp.Success), fmt.Sprint(resp.TokensUsed), resp.Content.String(), resp.Error)
		return f.FormatTo(w, table)
	}
	if !resp.Success {
		return nil
	}
	if resp.Content.IsList() {
		for _, item := range resp.Content.Items {
			if _, err := fmt.Fprintf(w, "- %s\n", item); err != nil {
				return err
			}
		}
	} else if _, err := fmt.Fprintln(w, resp.Content.Text); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n✓ %s/%s, %d tokens\n", resp.Provider, resp.Model, resp.TokensUsed)
	return err
}

// summarize shortens generated text to one table cell.
func summarize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 60
	if r := []rune(s); len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return s
}
