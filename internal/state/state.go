// Package state keeps the small amount of local state that is not part of the
// events file: OAuth tokens and the log of imported events.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no token is stored for an account.
var ErrNoToken = errors.New("no token stored")

const schemaName = "yewcal"

// migrations[i] moves the schema from version i to i+1.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS tokens (
			account_name TEXT PRIMARY KEY,
			token TEXT)`,
	},
	{
		`CREATE TABLE IF NOT EXISTS imports (
			source TEXT,
			external_id TEXT,
			uid TEXT,
			imported_at TEXT,
			PRIMARY KEY (source, external_id))`,
	},
}

type DB struct {
	db *sqlx.DB
}

// Open opens the database at path and brings its schema up to date.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open state %s: %w", path, err)
	}
	s := &DB{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) Close() error { return s.db.Close() }

// Version reports the schema version.
func (s *DB) Version(ctx context.Context) (int, error) {
	var v int
	err := s.db.GetContext(ctx, &v, "SELECT version FROM db_version WHERE name = ?", schemaName)
	return v, err
}

func (s *DB) migrate(ctx context.Context) error {
	version, err := s.Version(ctx)
	if err != nil {
		if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS db_version (
			name TEXT PRIMARY KEY,
			version INTEGER
		)`); err != nil {
			return fmt.Errorf("create db_version table: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO db_version (name, version) VALUES (?, 0)", schemaName); err != nil {
			return fmt.Errorf("initialize db_version table: %w", err)
		}
		version = 0
	}

	for ; version < len(migrations); version++ {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		for _, stmt := range migrations[version] {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migrate to version %d: %w", version+1, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "UPDATE db_version SET version = ? WHERE name = ?", version+1, schemaName); err != nil {
			tx.Rollback()
			return fmt.Errorf("update db_version table: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Token returns the stored token for account.
func (s *DB) Token(ctx context.Context, account string) (*oauth2.Token, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw, "SELECT token FROM tokens WHERE account_name = ?", account)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for account %s", ErrNoToken, account)
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("decode token for account %s: %w", account, err)
	}
	return &tok, nil
}

// SaveToken stores tok for account, replacing any previous one.
func (s *DB) SaveToken(ctx context.Context, account string, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "INSERT OR REPLACE INTO tokens (account_name, token) VALUES (?, ?)", account, string(raw))
	return err
}

// RecordImport notes that externalID from source was stored as uid.
func (s *DB) RecordImport(ctx context.Context, source, externalID, uid string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO imports (source, external_id, uid, imported_at) VALUES (?, ?, ?, ?)",
		source, externalID, uid, at.UTC().Format(time.RFC3339))
	return err
}

// ImportStat summarises the imports from one source.
type ImportStat struct {
	Source string
	Count  int
	Last   time.Time
}

type importRow struct {
	Source string `db:"source"`
	Count  int    `db:"count"`
	Last   string `db:"last"`
}

// ImportStats lists per-source import counts ordered by source.
func (s *DB) ImportStats(ctx context.Context) ([]ImportStat, error) {
	var rows []importRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT source, COUNT(*) AS count, MAX(imported_at) AS last FROM imports GROUP BY source ORDER BY source")
	if err != nil {
		return nil, err
	}
	out := make([]ImportStat, 0, len(rows))
	for _, r := range rows {
		last, _ := time.Parse(time.RFC3339, r.Last)
		out = append(out, ImportStat{Source: r.Source, Count: r.Count, Last: last})
	}
	return out, nil
}

// ForgetImports drops the import log for source and reports how many rows
// were removed.
func (s *DB) ForgetImports(ctx context.Context, source string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM imports WHERE source = ?", source)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
