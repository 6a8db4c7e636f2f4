package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/scribe/pkg/cli"
	"mercator-hq/scribe/pkg/genlog"
	"mercator-hq/scribe/pkg/genlog/export"
	"mercator-hq/scribe/pkg/genlog/retention"
)

var logsFlags struct {
	user          string
	provider      string
	model         string
	fieldType     string
	status        string
	since         time.Duration
	limit         int
	offset        int
	order         string
	output        string
	retentionDays int
	maxRecords    int64
	archive       bool
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Query, export and prune the generation log",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generation log entries",
	Long: `List generation log entries, newest first.

Examples:
  # Failed generations of the last day
  scribe logs list --status error --since 24h

  # One user's objectives, as JSON
  scribe logs list --user alice --field-type objectives --format json`,
	RunE: runLogsList,
}

var logsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export generation log entries as JSON or CSV",
	Long: `Export generation log entries with full prompts and responses.

--format selects json (default) or csv.

Examples:
  scribe logs export --format csv --since 720h --output last-month.csv`,
	RunE: runLogsExport,
}

var logsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy now",
	Long: `Delete entries older than the retention period and beyond the record cap,
archiving them first when configured. Flags override the configuration.`,
	RunE: runLogsPrune,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsListCmd, logsExportCmd, logsPruneCmd)

	for _, c := range []*cobra.Command{logsListCmd, logsExportCmd} {
		f := c.Flags()
		f.StringVar(&logsFlags.user, "user", "", "filter by user id")
		f.StringVar(&logsFlags.provider, "provider", "", "filter by provider")
		f.StringVar(&logsFlags.model, "model", "", "filter by model")
		f.StringVar(&logsFlags.fieldType, "field-type", "", "filter by field type")
		f.StringVar(&logsFlags.status, "status", "", "filter by status (success, error)")
		f.DurationVar(&logsFlags.since, "since", 0, "only entries newer than this duration (e.g. 24h)")
		f.IntVar(&logsFlags.limit, "limit", 0, "maximum entries (default 100 for list, 10000 for export)")
		f.IntVar(&logsFlags.offset, "offset", 0, "skip this many entries")
		f.StringVar(&logsFlags.order, "order", "desc", "sort order by time (asc, desc)")
	}
	logsExportCmd.Flags().StringVarP(&logsFlags.output, "output", "o", "", "output file (stdout if empty)")

	logsPruneCmd.Flags().IntVar(&logsFlags.retentionDays, "retention-days", -1, "override retention period in days")
	logsPruneCmd.Flags().Int64Var(&logsFlags.maxRecords, "max-records", -1, "override record cap")
	logsPruneCmd.Flags().BoolVar(&logsFlags.archive, "archive", false, "archive pruned entries")
}

func logsQuery(defaultLimit int) (*genlog.Query, error) {
	q := &genlog.Query{
		UserID:    logsFlags.user,
		Provider:  logsFlags.provider,
		Model:     logsFlags.model,
		FieldType: logsFlags.fieldType,
		Status:    logsFlags.status,
		Limit:     logsFlags.limit,
		Offset:    logsFlags.offset,
		SortOrder: logsFlags.order,
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if logsFlags.since > 0 {
		start := time.Now().Add(-logsFlags.since)
		q.StartTime = &start
	}
	if err := q.Validate(); err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return q, nil
}

func runLogsList(cmd *cobra.Command, args []string) error {
	f, err := formatter()
	if err != nil {
		return err
	}
	q, err := logsQuery(genlog.DefaultLimit)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), "logs list")
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.logs.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("logs list", err)
	}

	out := cmd.OutOrStdout()
	if _, ok := f.(*cli.JSONFormatter); ok {
		return f.FormatTo(out, entries)
	}
	table := &cli.Table{Headers: []string{"TIME", "USER", "PROVIDER", "MODEL", "FIELD TYPE", "STATUS", "TOKENS", "LATENCY", "ERROR"}}
	for _, e := range entries {
		status := genlog.StatusSuccess
		if !e.Success {
			status = genlog.StatusError
		}
		table.Append(
			e.CreatedAt.Local().Format(time.DateTime),
			e.UserID,
			e.Provider,
			e.Model,
			e.FieldType,
			status,
			fmt.Sprint(e.TokensUsed),
			e.Latency.Round(time.Millisecond).String(),
			summarize(e.Error),
		)
	}
	return f.FormatTo(out, table)
}

func runLogsExport(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	var exporter genlog.Exporter
	switch format {
	case cli.FormatCSV:
		exporter = export.NewCSVExporter(true)
	default:
		exporter = export.NewJSONExporter(true)
	}

	q, err := logsQuery(genlog.MaxLimit)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), "logs export")
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.logs.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("logs export", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if logsFlags.output != "" {
		file, err := os.Create(logsFlags.output)
		if err != nil {
			return cli.NewCommandError("logs export", err)
		}
		defer file.Close()
		w = file
	}

	if err := exporter.Export(cmd.Context(), entries, w); err != nil {
		return cli.NewCommandError("logs export", err)
	}
	if logsFlags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d entries to %s\n", len(entries), logsFlags.output)
	}
	return nil
}

func runLogsPrune(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), "logs prune")
	if err != nil {
		return err
	}
	defer a.Close()

	lc := a.cfg.Generation.Log
	rc := &retention.Config{
		RetentionDays:       lc.RetentionDays,
		MaxRecords:          lc.MaxRecords,
		ArchiveBeforeDelete: lc.ArchiveBeforeDelete || logsFlags.archive,
		ArchivePath:         lc.ArchivePath,
	}
	if logsFlags.retentionDays >= 0 {
		rc.RetentionDays = logsFlags.retentionDays
	}
	if logsFlags.maxRecords >= 0 {
		rc.MaxRecords = logsFlags.maxRecords
	}

	deleted, err := retention.NewPruner(a.logs, rc).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("logs prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d entries\n", deleted)
	return nil
}
