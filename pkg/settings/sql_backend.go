package settings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mercator-hq/scribe/pkg/storage/sqldb"
)

const createTable = `CREATE TABLE IF NOT EXISTS ai_configurations (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    model_name TEXT NOT NULL DEFAULT '',
    api_endpoint TEXT NOT NULL DEFAULT '',
    api_key TEXT NOT NULL DEFAULT '',
    temperature DOUBLE PRECISION NOT NULL DEFAULT 0.7,
    max_tokens INTEGER NOT NULL DEFAULT 2000,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    UNIQUE (user_id, provider)
)`

const createIndex = `CREATE INDEX IF NOT EXISTS idx_ai_configurations_user ON ai_configurations(user_id, is_active)`

// Postgres only: owner-scoped row level security keyed on a session setting.
var postgresRLS = []string{
	`ALTER TABLE ai_configurations ENABLE ROW LEVEL SECURITY`,
	`DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_policies
        WHERE tablename = 'ai_configurations' AND policyname = 'ai_configurations_owner'
    ) THEN
        CREATE POLICY ai_configurations_owner ON ai_configurations
            USING (user_id = current_setting('app.current_user_id', true))
            WITH CHECK (user_id = current_setting('app.current_user_id', true));
    END IF;
END
$$`,
}

// SQLBackend is a Backend on SQLite or Postgres. On Postgres every
// operation runs in a transaction that sets app.current_user_id so that row
// level security applies in addition to the explicit owner predicate.
type SQLBackend struct {
	db  *sqldb.DB
	now func() time.Time
}

// NewSQLBackend creates the schema if needed.
func NewSQLBackend(ctx context.Context, db *sqldb.DB) (*SQLBackend, error) {
	stmts := []string{createTable, createIndex}
	if db.Dialect() == sqldb.DialectPostgres {
		stmts = append(stmts, postgresRLS...)
	}
	if err := db.Migrate(ctx, stmts...); err != nil {
		return nil, &StorageError{Backend: string(db.Dialect()), Operation: "create_schema", Cause: err}
	}
	return &SQLBackend{db: db, now: time.Now}, nil
}

// Upsert implements Backend.
func (b *SQLBackend) Upsert(ctx context.Context, userID string, c Configuration) (Configuration, error) {
	now := b.now().UTC()
	c.UserID = userID
	c.UpdatedAt = now

	err := b.inTx(ctx, userID, "upsert", func(tx *sql.Tx) error {
		query := b.db.Rebind(`INSERT INTO ai_configurations
            (id, user_id, provider, model_name, api_endpoint, api_key, temperature, max_tokens, is_active, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (user_id, provider) DO UPDATE SET
                model_name = excluded.model_name,
                api_endpoint = excluded.api_endpoint,
                api_key = excluded.api_key,
                temperature = excluded.temperature,
                max_tokens = excluded.max_tokens,
                is_active = excluded.is_active,
                updated_at = excluded.updated_at
            RETURNING id, created_at`)

		var created int64
		err := tx.QueryRowContext(ctx, query,
			uuid.NewString(), userID, c.Provider, c.Model, c.Endpoint, c.APIKey,
			c.Temperature, c.MaxTokens, c.Active, now.UnixMilli(), now.UnixMilli(),
		).Scan(&c.ID, &created)
		if err != nil {
			return err
		}
		c.CreatedAt = time.UnixMilli(created).UTC()
		return nil
	})
	if err != nil {
		return Configuration{}, err
	}
	return c, nil
}

// ListActive implements Backend.
func (b *SQLBackend) ListActive(ctx context.Context, userID string) ([]Configuration, error) {
	out := []Configuration{}

	err := b.inTx(ctx, userID, "list", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, b.db.Rebind(`SELECT
                id, user_id, provider, model_name, api_endpoint, api_key,
                temperature, max_tokens, is_active, created_at, updated_at
            FROM ai_configurations
            WHERE user_id = ? AND is_active = ?
            ORDER BY created_at DESC, id DESC`), userID, true)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				c                Configuration
				created, updated int64
			)
			if err := rows.Scan(&c.ID, &c.UserID, &c.Provider, &c.Model, &c.Endpoint, &c.APIKey,
				&c.Temperature, &c.MaxTokens, &c.Active, &created, &updated); err != nil {
				return err
			}
			c.CreatedAt = time.UnixMilli(created).UTC()
			c.UpdatedAt = time.UnixMilli(updated).UTC()
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete implements Backend.
func (b *SQLBackend) Delete(ctx context.Context, userID, id string) (int64, error) {
	var n int64
	err := b.inTx(ctx, userID, "delete", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			b.db.Rebind(`DELETE FROM ai_configurations WHERE id = ? AND user_id = ?`), id, userID)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func (b *SQLBackend) inTx(ctx context.Context, userID, op string, fn func(*sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return b.wrap(op, err)
	}
	defer tx.Rollback()

	if b.db.Dialect() == sqldb.DialectPostgres {
		if _, err := tx.ExecContext(ctx, `SELECT set_config('app.current_user_id', $1, true)`, userID); err != nil {
			return b.wrap(op, fmt.Errorf("set session user: %w", err))
		}
	}

	if err := fn(tx); err != nil {
		return b.wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return b.wrap(op, err)
	}
	return nil
}

func (b *SQLBackend) wrap(op string, err error) error {
	return &StorageError{Backend: string(b.db.Dialect()), Operation: op, Cause: err}
}
