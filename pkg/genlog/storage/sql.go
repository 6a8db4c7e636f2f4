package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/scribe/pkg/genlog"
	"mercator-hq/scribe/pkg/storage/sqldb"
)

// Schema statements for the generation log. Timestamps are unix
// milliseconds so the same statements run on SQLite and Postgres.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS generation_logs (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL DEFAULT '',
    provider TEXT NOT NULL,
    model TEXT NOT NULL DEFAULT '',
    field_type TEXT NOT NULL DEFAULT '',
    prompt_source TEXT NOT NULL DEFAULT '',
    template_id TEXT NOT NULL DEFAULT '',
    prompt TEXT NOT NULL DEFAULT '',
    prompt_hash TEXT NOT NULL DEFAULT '',
    response TEXT NOT NULL DEFAULT '',
    tokens_used INTEGER NOT NULL DEFAULT 0,
    success BOOLEAN NOT NULL,
    error TEXT,
    error_kind TEXT NOT NULL DEFAULT '',
    latency_ms BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_generation_logs_created ON generation_logs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_generation_logs_user ON generation_logs(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_generation_logs_provider ON generation_logs(provider)`,
}

const columns = `id, request_id, user_id, provider, model, field_type, prompt_source, template_id,
    prompt, prompt_hash, response, tokens_used, success, error, error_kind, latency_ms, created_at`

// SQLStorage stores entries in a SQLite or Postgres database.
type SQLStorage struct {
	db      *sqldb.DB
	backend string
	owned   bool
	logger  *slog.Logger
}

// NewSQLStorage creates the schema on db. The caller keeps ownership of db.
func NewSQLStorage(ctx context.Context, db *sqldb.DB) (*SQLStorage, error) {
	backend := string(db.Dialect())
	if err := db.Migrate(ctx, Schema...); err != nil {
		return nil, genlog.NewStorageError(backend, "create_schema", err)
	}

	logger := slog.Default().With("component", "genlog.storage.sql")
	logger.Debug("generation log schema ready", "dialect", backend)

	return &SQLStorage{db: db, backend: backend, logger: logger}, nil
}

// OpenSQLStorage opens its own database from cfg. Close closes it.
func OpenSQLStorage(ctx context.Context, cfg sqldb.Config) (*SQLStorage, error) {
	db, err := sqldb.Open(ctx, cfg)
	if err != nil {
		return nil, genlog.NewStorageError(cfg.Driver, "open", err)
	}
	s, err := NewSQLStorage(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Store implements genlog.Storage.
func (s *SQLStorage) Store(ctx context.Context, e *genlog.Entry) error {
	var errVal any
	if e.Error != "" {
		errVal = e.Error
	}

	query := s.db.Rebind(`INSERT INTO generation_logs (` + columns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.RequestID, e.UserID, e.Provider, e.Model, e.FieldType, e.PromptSource, e.TemplateID,
		e.Prompt, e.PromptHash, e.Response, e.TokensUsed, e.Success, errVal, e.ErrorKind,
		e.Latency.Milliseconds(), e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return genlog.NewStorageError(s.backend, "store", err)
	}
	return nil
}

// Query implements genlog.Storage.
func (s *SQLStorage) Query(ctx context.Context, q *genlog.Query) ([]*genlog.Entry, error) {
	where, args := buildWhereClause(q)

	order := "DESC"
	if q.SortOrder == "asc" {
		order = "ASC"
	}
	limit := genlog.DefaultLimit
	if q.Limit > 0 {
		limit = q.Limit
	}

	stmt := "SELECT " + columns + " FROM generation_logs" + where +
		fmt.Sprintf(" ORDER BY created_at %s, id %s LIMIT %d", order, order, limit)
	if q.Offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(stmt), args...)
	if err != nil {
		return nil, genlog.NewStorageError(s.backend, "query", err)
	}
	defer rows.Close()

	entries := []*genlog.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, genlog.NewStorageError(s.backend, "scan", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, genlog.NewStorageError(s.backend, "query", err)
	}
	return entries, nil
}

// Count implements genlog.Storage.
func (s *SQLStorage) Count(ctx context.Context, q *genlog.Query) (int64, error) {
	where, args := buildWhereClause(q)

	var n int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT COUNT(*) FROM generation_logs"+where), args...).Scan(&n)
	if err != nil {
		return 0, genlog.NewStorageError(s.backend, "count", err)
	}
	return n, nil
}

// Delete implements genlog.Storage.
func (s *SQLStorage) Delete(ctx context.Context, q *genlog.Query) (int64, error) {
	where, args := buildWhereClause(q)

	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM generation_logs"+where), args...)
	if err != nil {
		return 0, genlog.NewStorageError(s.backend, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, genlog.NewStorageError(s.backend, "delete", err)
	}
	return n, nil
}

// Close closes the database when this storage opened it.
func (s *SQLStorage) Close() error {
	if !s.owned {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return genlog.NewStorageError(s.backend, "close", err)
	}
	s.logger.Info("generation log storage closed")
	return nil
}

// buildWhereClause returns " WHERE ..." (or "") and its arguments.
func buildWhereClause(q *genlog.Query) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, arg any) {
		conditions = append(conditions, cond)
		args = append(args, arg)
	}

	if q.StartTime != nil {
		add("created_at >= ?", q.StartTime.UnixMilli())
	}
	if q.EndTime != nil {
		add("created_at <= ?", q.EndTime.UnixMilli())
	}
	if q.UserID != "" {
		add("user_id = ?", q.UserID)
	}
	if q.Provider != "" {
		add("provider = ?", q.Provider)
	}
	if q.Model != "" {
		add("model = ?", q.Model)
	}
	if q.FieldType != "" {
		add("field_type = ?", q.FieldType)
	}
	switch q.Status {
	case genlog.StatusSuccess:
		add("success = ?", true)
	case genlog.StatusError:
		add("success = ?", false)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanEntry(rows *sql.Rows) (*genlog.Entry, error) {
	var (
		e                  genlog.Entry
		errVal             sql.NullString
		latencyMs, created int64
	)
	err := rows.Scan(
		&e.ID, &e.RequestID, &e.UserID, &e.Provider, &e.Model, &e.FieldType, &e.PromptSource, &e.TemplateID,
		&e.Prompt, &e.PromptHash, &e.Response, &e.TokensUsed, &e.Success, &errVal, &e.ErrorKind,
		&latencyMs, &created,
	)
	if err != nil {
		return nil, err
	}
	if errVal.Valid {
		e.Error = errVal.String
	}
	e.Latency = time.Duration(latencyMs) * time.Millisecond
	e.CreatedAt = time.UnixMilli(created).UTC()
	return &e, nil
}
