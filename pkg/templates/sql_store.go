package templates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/scribe/pkg/fields"
	"mercator-hq/scribe/pkg/storage/sqldb"
)

// Schema creates the templates table. It is valid for both SQLite and
// Postgres; timestamps are stored as Unix milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS prompt_templates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    field_type TEXT NOT NULL,
    template_body TEXT NOT NULL,
    industry TEXT NOT NULL DEFAULT '',
    framework TEXT NOT NULL DEFAULT '',
    variables TEXT NOT NULL DEFAULT '{}',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    is_default BOOLEAN NOT NULL DEFAULT FALSE,
    version INTEGER NOT NULL DEFAULT 1,
    created_by TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prompt_templates_field ON prompt_templates(field_type, is_active);
`

const templateColumns = `id, name, description, field_type, template_body, industry, framework,
    variables, is_active, is_default, version, created_by, created_at, updated_at`

// SQLStore is a Store backed by SQLite or Postgres.
type SQLStore struct {
	db     *sqldb.DB
	logger *slog.Logger
}

// NewSQLStore creates the schema if needed and returns the store.
// The store does not own db; Close is a no-op.
func NewSQLStore(ctx context.Context, db *sqldb.DB) (*SQLStore, error) {
	if err := db.Migrate(ctx, splitStatements(Schema)...); err != nil {
		return nil, &StoreError{Backend: string(db.Dialect()), Operation: "create_schema", Cause: err}
	}
	return &SQLStore{
		db:     db,
		logger: slog.Default().With("component", "templates.store", "dialect", db.Dialect()),
	}, nil
}

// Candidates implements Store.
func (s *SQLStore) Candidates(ctx context.Context, fieldType fields.FieldType) ([]Template, error) {
	query := s.db.Rebind(`SELECT ` + templateColumns + ` FROM prompt_templates
        WHERE field_type = ? AND is_active = ?
        ORDER BY is_default DESC, version DESC, id ASC`)

	rows, err := s.db.QueryContext(ctx, query, string(fieldType), true)
	if err != nil {
		return nil, s.wrap("candidates", err)
	}
	return s.scanAll(rows, "candidates")
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, id string) (Template, error) {
	query := s.db.Rebind(`SELECT ` + templateColumns + ` FROM prompt_templates WHERE id = ?`)

	t, err := scanTemplate(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	if err != nil {
		return Template{}, s.wrap("get", err)
	}
	return t, nil
}

// List implements Store.
func (s *SQLStore) List(ctx context.Context, filter Filter) ([]Template, error) {
	var (
		where []string
		args  []any
	)
	if filter.FieldType != "" {
		where = append(where, "field_type = ?")
		args = append(args, string(filter.FieldType))
	}
	if filter.Industry != "" {
		where = append(where, "industry = ?")
		args = append(args, filter.Industry)
	}
	if filter.Framework != "" {
		where = append(where, "framework = ?")
		args = append(args, filter.Framework)
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = ?")
		args = append(args, true)
	}

	query := `SELECT ` + templateColumns + ` FROM prompt_templates`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY field_type, name"

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, s.wrap("list", err)
	}
	return s.scanAll(rows, "list")
}

// Upsert implements Store.
func (s *SQLStore) Upsert(ctx context.Context, t Template) error {
	vars, err := json.Marshal(t.Variables)
	if err != nil {
		return s.wrap("encode_variables", err)
	}
	if t.Variables == nil {
		vars = []byte("{}")
	}
	if t.Version == 0 {
		t.Version = 1
	}
	now := time.Now().UnixMilli()
	created := now
	if !t.CreatedAt.IsZero() {
		created = t.CreatedAt.UnixMilli()
	}

	query := s.db.Rebind(`INSERT INTO prompt_templates (` + templateColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            description = excluded.description,
            field_type = excluded.field_type,
            template_body = excluded.template_body,
            industry = excluded.industry,
            framework = excluded.framework,
            variables = excluded.variables,
            is_active = excluded.is_active,
            is_default = excluded.is_default,
            version = excluded.version,
            created_by = excluded.created_by,
            updated_at = excluded.updated_at`)

	_, err = s.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Description, string(t.FieldType), t.Body, t.Industry, t.Framework,
		string(vars), t.Active, t.IsDefault, t.Version, t.CreatedBy, created, now,
	)
	if err != nil {
		return s.wrap("upsert", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return nil
}

func (s *SQLStore) wrap(op string, err error) error {
	return &StoreError{Backend: string(s.db.Dialect()), Operation: op, Cause: err}
}

func (s *SQLStore) scanAll(rows *sql.Rows, op string) ([]Template, error) {
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, s.wrap(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (Template, error) {
	var (
		t                Template
		fieldType, vars  string
		created, updated int64
	)
	err := row.Scan(&t.ID, &t.Name, &t.Description, &fieldType, &t.Body, &t.Industry, &t.Framework,
		&vars, &t.Active, &t.IsDefault, &t.Version, &t.CreatedBy, &created, &updated)
	if err != nil {
		return Template{}, err
	}
	t.FieldType = fields.FieldType(fieldType)
	t.CreatedAt = time.UnixMilli(created).UTC()
	t.UpdatedAt = time.UnixMilli(updated).UTC()
	if vars != "" && vars != "{}" && vars != "null" {
		if err := json.Unmarshal([]byte(vars), &t.Variables); err != nil {
			return Template{}, err
		}
	}
	return t, nil
}

// splitStatements splits a schema script on semicolons.
func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
