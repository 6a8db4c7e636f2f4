// Package genlog records an audit trail of generation attempts.
//
// Every call through the orchestrator produces one Entry: who asked, which
// provider and model answered, the prompt and response text, token usage
// and the outcome. Logging is best-effort. Recorder.Record enqueues the
// entry and returns immediately; a background goroutine writes it to a
// Storage backend. A full queue or a failing backend drops the entry and
// never affects the generation result.
//
// Backends live in genlog/storage (memory and SQL). Retention pruning on a
// cron schedule lives in genlog/retention; JSON and CSV export in
// genlog/export.
//
// Example usage:
//
//	store, _ := storage.NewSQLStorage(ctx, db)
//	rec := genlog.NewRecorder(store, genlog.DefaultConfig())
//	defer rec.Close()
//
//	rec.Record(&genlog.Entry{
//	    UserID:    "user-1",
//	    Provider:  "openai",
//	    Model:     "gpt-4o-mini",
//	    FieldType: "objectives",
//	    Prompt:    prompt,
//	    Response:  text,
//	    Success:   true,
//	})
package genlog
