package genlog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Config contains configuration for the recorder.
type Config struct {
	// Enabled enables generation logging.
	Enabled bool

	// AsyncBuffer is the size of the write queue.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// MaxFieldLength truncates prompt and response text. 0 keeps full text.
	// Default: 4000
	MaxFieldLength int
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		AsyncBuffer:    1000,
		WriteTimeout:   5 * time.Second,
		MaxFieldLength: 4000,
	}
}

// WriteObserver is notified of every storage write outcome.
type WriteObserver interface {
	RecordLogWrite(success bool)
}

// Recorder writes entries to storage on a background goroutine. Record
// never blocks: when the queue is full the entry is dropped and counted.
type Recorder struct {
	storage  Storage
	config   *Config
	queue    chan *Entry
	done     chan struct{}
	closed   atomic.Bool
	wg       sync.WaitGroup
	dropped  atomic.Int64
	observer WriteObserver
	logger   *slog.Logger
}

// NewRecorder creates a recorder and starts its writer.
func NewRecorder(storage Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		queue:   make(chan *Entry, config.AsyncBuffer),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "genlog.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("generation log recorder initialized",
		"enabled", config.Enabled,
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)
	return r
}

// SetObserver installs a write observer. Call before the first Record.
func (r *Recorder) SetObserver(o WriteObserver) {
	r.observer = o
}

// Record enqueues entry. It fills ID, CreatedAt and PromptHash when unset
// and truncates long text. The returned error only reports that the entry
// was dropped; callers on the generation path ignore it.
func (r *Recorder) Record(entry *Entry) error {
	if !r.config.Enabled || entry == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.PromptHash == "" {
		entry.PromptHash = HashString(entry.Prompt)
	}
	entry.Prompt = TruncateString(entry.Prompt, r.config.MaxFieldLength)
	entry.Response = TruncateString(entry.Response, r.config.MaxFieldLength)

	if r.closed.Load() {
		return &RecorderError{EntryID: entry.ID, Cause: ErrRecorderClosed}
	}

	select {
	case r.queue <- entry:
		return nil
	default:
		r.dropped.Add(1)
		r.logger.Warn("generation log queue full, dropping entry",
			"entry_id", entry.ID,
			"capacity", r.config.AsyncBuffer,
		)
		return &RecorderError{EntryID: entry.ID, Cause: ErrQueueFull}
	}
}

// Dropped returns the number of entries dropped because the queue was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting entries, drains the queue and waits for pending
// writes.
func (r *Recorder) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	close(r.done)
	r.wg.Wait()
	r.logger.Info("generation log recorder shut down")
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		case <-r.done:
			for {
				select {
				case entry := <-r.queue:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(entry *Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.storage.Store(ctx, entry)
	if r.observer != nil {
		r.observer.RecordLogWrite(err == nil)
	}
	if err != nil {
		r.logger.Error("failed to store generation log entry",
			"entry_id", entry.ID,
			"error", err,
		)
		return
	}

	duration := time.Since(start)
	r.logger.Debug("generation logged",
		"entry_id", entry.ID,
		"provider", entry.Provider,
		"success", entry.Success,
		"duration_ms", duration.Milliseconds(),
	)
	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow generation log write",
			"entry_id", entry.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}
