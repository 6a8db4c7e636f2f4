package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mercator-hq/scribe/pkg/genlog"
	"mercator-hq/scribe/pkg/genlog/export"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to keep entries. 0 keeps them
	// forever.
	RetentionDays int

	// PruneSchedule is a standard cron expression, e.g. "0 3 * * *".
	PruneSchedule string

	// ArchiveBeforeDelete writes pruned entries to a JSON file first.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory for archive files.
	ArchivePath string

	// MaxRecords caps the number of stored entries. 0 is unlimited.
	MaxRecords int64
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
		ArchivePath:   "data/archives/",
	}
}

// Pruner enforces retention on a generation log.
type Pruner struct {
	storage   genlog.Storage
	config    *Config
	now       func() time.Time
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a pruner over storage.
func NewPruner(storage genlog.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	p := &Pruner{
		storage: storage,
		config:  config,
		now:     time.Now,
		logger:  slog.Default().With("component", "genlog.retention"),
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune deletes entries older than the retention period, then the oldest
// entries beyond MaxRecords. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("generation log pruned",
			"deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("no generation log entries pruned")
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	q := &genlog.Query{EndTime: &cutoff}

	if p.config.ArchiveBeforeDelete {
		entries, err := p.storage.Query(ctx, &genlog.Query{EndTime: &cutoff, Limit: genlog.MaxLimit, SortOrder: "asc"})
		if err != nil {
			return 0, fmt.Errorf("query entries to archive: %w", err)
		}
		if err := p.archive(ctx, "age", entries); err != nil {
			return 0, err
		}
	}
	return p.storage.Delete(ctx, q)
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &genlog.Query{})
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	excess := count - p.config.MaxRecords
	limit := int(excess)
	if limit > genlog.MaxLimit {
		limit = genlog.MaxLimit
	}
	oldest, err := p.storage.Query(ctx, &genlog.Query{Limit: limit, SortOrder: "asc"})
	if err != nil {
		return 0, fmt.Errorf("query oldest entries: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, "count", oldest); err != nil {
			return 0, err
		}
	}

	cutoff := oldest[len(oldest)-1].CreatedAt
	return p.storage.Delete(ctx, &genlog.Query{EndTime: &cutoff})
}

func (p *Pruner) archive(ctx context.Context, reason string, entries []*genlog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	name := fmt.Sprintf("generation-logs-%s-%s.json", reason, p.now().Format("2006-01-02-150405"))
	path := filepath.Join(p.config.ArchivePath, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer f.Close()

	if err := export.NewJSONExporter(true).Export(ctx, entries, f); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	p.logger.Info("generation log archived", "file", path, "entries", len(entries))
	return nil
}

// Start starts scheduled pruning. It stops when ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the next scheduled run, or nil when not scheduled.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
