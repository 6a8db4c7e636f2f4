package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"mercator-hq/scribe/pkg/templates"
)

// Config describes a Git repository holding template seed files.
type Config struct {
	// Repository is the clone URL (https, ssh or a local path).
	Repository string

	// Branch to track. Default: main
	Branch string

	// Path is the directory inside the repository containing seed files.
	Path string

	// LocalPath is where the repository is cloned.
	// Default: <tmp>/scribe-templates
	LocalPath string

	// Token is an optional HTTPS access token.
	Token string

	// Timeout bounds each clone or pull. Default: 30s
	Timeout time.Duration

	// PollInterval is how often Run pulls. Default: 5m
	PollInterval time.Duration
}

// SyncResult reports one synchronization.
type SyncResult struct {
	Commit  string
	Changed bool
	Files   []string
	Import  templates.ImportResult
}

// Source keeps a local clone of a template repository and imports its seed
// files into a template store.
type Source struct {
	cfg    Config
	store  templates.Store
	repo   *gogit.Repository
	mu     sync.Mutex
	commit string
	logger *slog.Logger
}

// New validates cfg and creates a source. Nothing is cloned until Sync.
func New(cfg Config, store templates.Store) (*Source, error) {
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = filepath.Join(os.TempDir(), "scribe-templates")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Minute
	}

	return &Source{
		cfg:    cfg,
		store:  store,
		logger: slog.Default().With("component", "templates.gitsource", "repository", cfg.Repository),
	}, nil
}

// Sync clones the repository on first use, pulls afterwards, and imports
// every seed file when HEAD moved (always on the first sync).
func (s *Source) Sync(ctx context.Context) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if s.repo == nil {
		if err := s.open(opCtx); err != nil {
			return SyncResult{}, err
		}
	} else if err := s.pull(opCtx); err != nil {
		return SyncResult{}, err
	}

	ref, err := s.repo.Head()
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to get HEAD: %w", err)
	}
	head := ref.Hash().String()

	result := SyncResult{Commit: head, Changed: head != s.commit}
	if !result.Changed {
		return result, nil
	}

	files, err := s.seedFiles()
	if err != nil {
		return result, err
	}
	result.Files = files

	for _, f := range files {
		res, err := templates.ImportFile(ctx, s.store, f)
		if err != nil {
			return result, err
		}
		result.Import.Created += res.Created
		result.Import.Updated += res.Updated
		result.Import.Unchanged += res.Unchanged
	}

	s.commit = head
	s.logger.Info("template repository synchronized",
		"commit", shortSHA(head),
		"files", len(files),
		"import", result.Import.String(),
	)
	return result, nil
}

// Run synchronizes immediately and then every PollInterval until ctx is
// cancelled. Sync failures are logged and retried on the next tick.
func (s *Source) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("template repository sync failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Source) open(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(s.cfg.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(s.cfg.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo: %w", err)
		}
		s.repo = repo
		return s.pull(ctx)
	}

	if err := os.MkdirAll(s.cfg.LocalPath, 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	repo, err := gogit.PlainCloneContext(ctx, s.cfg.LocalPath, false, &gogit.CloneOptions{
		URL:           s.cfg.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(s.cfg.Branch),
		SingleBranch:  true,
		Auth:          s.auth(),
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	s.repo = repo
	return nil
}

func (s *Source) pull(ctx context.Context) error {
	wt, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = wt.PullContext(ctx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(s.cfg.Branch),
		SingleBranch:  true,
		Auth:          s.auth(),
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull: %w", err)
	}
	return nil
}

func (s *Source) auth() transport.AuthMethod {
	if s.cfg.Token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "git", Password: s.cfg.Token}
}

// seedFiles lists .yaml and .yml files under Path, skipping hidden entries.
func (s *Source) seedFiles() ([]string, error) {
	root := filepath.Join(s.cfg.LocalPath, s.cfg.Path)
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("template path does not exist: %w", err)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk template directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
