package sqldb

import (
	"context"
	"path/filepath"
	"testing"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{DialectSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{DialectPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		if got := Rebind(tt.dialect, tt.in); got != tt.want {
			t.Errorf("Rebind(%s, %q) = %q, want %q", tt.dialect, tt.in, got, tt.want)
		}
	}
}

func TestOpen_SQLiteDrivers(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverSQLite3} {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "test.db")

			db, err := Open(context.Background(), Config{Driver: driver, Path: path})
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer db.Close()

			if db.Dialect() != DialectSQLite {
				t.Errorf("expected sqlite dialect, got %s", db.Dialect())
			}

			err = db.Migrate(context.Background(),
				`CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT)`,
				`INSERT INTO kv (k, v) VALUES ('a', 'b')`,
			)
			if err != nil {
				t.Fatalf("Migrate failed: %v", err)
			}

			var v string
			if err := db.QueryRow(db.Rebind(`SELECT v FROM kv WHERE k = ?`), "a").Scan(&v); err != nil {
				t.Fatal(err)
			}
			if v != "b" {
				t.Errorf("expected b, got %s", v)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "oracle"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
	if _, err := Open(context.Background(), Config{Driver: DriverPostgres}); err == nil {
		t.Error("expected error for postgres without dsn")
	}
}
