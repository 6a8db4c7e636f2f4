// Package cli holds the helpers shared by the scribe commands: output
// formatting (text tables, JSON, CSV), a batch progress bar, error types
// mapped to exit codes, and signal-aware contexts.
//
//	table := &cli.Table{Headers: []string{"ID", "PROVIDER"}}
//	table.Append("cfg-1", "openai")
//	cli.NewFormatter(cli.FormatText).FormatTo(os.Stdout, table)
package cli
