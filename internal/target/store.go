// Package target talks to the externally-owned analytics database. The
// reconciler only ever reads matching keys and writes the email plus its two
// audit columns; rows are never created or deleted here.
package target

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const (
	operationTimeout = 30 * time.Second
	defaultTable     = "contacts"

	// SourceOriginal and SourceWebhook are the email_source audit values.
	SourceOriginal = "original"
	SourceWebhook  = "webhook-linkedin"
)

type Row struct {
	ID             int64
	Name           string
	Company        string
	Email          string
	EmailSource    string
	EmailUpdatedAt sql.NullTime
}

type Store struct {
	db    *sql.DB
	table string
}

func Open(dsn, table string) (*Store, error) {
	if strings.TrimSpace(table) == "" {
		table = defaultTable
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, table: table}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureAuditColumns adds email_source / email_updated_at if the table
// predates them. Idempotent; only commit runs call it so a dry run performs
// zero writes of any kind.
func (s *Store) EnsureAuditColumns(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	stmts := []string{
		`ALTER TABLE ` + quoteIdent(s.table) + ` ADD COLUMN IF NOT EXISTS email_source TEXT NOT NULL DEFAULT 'original'`,
		`ALTER TABLE ` + quoteIdent(s.table) + ` ADD COLUMN IF NOT EXISTS email_updated_at TIMESTAMPTZ`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ListPlaceholders returns the rows whose email the matcher should try to
// resolve. The placeholder test runs in Go because the pattern is an
// operator-supplied regexp. On a table without audit columns (possible in
// dry-run mode before any commit ever ran) it degrades to email_source =
// 'original' for every row.
func (s *Store) ListPlaceholders(ctx context.Context, isPlaceholder func(string) bool) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT id, COALESCE(name, ''), COALESCE(company, ''), COALESCE(email, ''),
       COALESCE(email_source, 'original'), email_updated_at
FROM `+quoteIdent(s.table)+`
ORDER BY id ASC`)
	if err != nil {
		rows, err = s.db.QueryContext(ctx, `
SELECT id, COALESCE(name, ''), COALESCE(company, ''), COALESCE(email, '')
FROM `+quoteIdent(s.table)+`
ORDER BY id ASC`)
		if err != nil {
			return nil, err
		}
		return scanLegacyRows(rows, isPlaceholder)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Name, &r.Company, &r.Email, &r.EmailSource, &r.EmailUpdatedAt); err != nil {
			return nil, err
		}
		if keepCandidate(r, isPlaceholder) {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

func scanLegacyRows(rows *sql.Rows, isPlaceholder func(string) bool) ([]Row, error) {
	defer rows.Close()
	var out []Row
	for rows.Next() {
		r := Row{EmailSource: SourceOriginal}
		if err := rows.Scan(&r.ID, &r.Name, &r.Company, &r.Email); err != nil {
			return nil, err
		}
		if keepCandidate(r, isPlaceholder) {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

// keepCandidate: placeholder rows are the real candidates; rows already
// resolved by a previous run stay in the set so reruns classify them as
// no-ops or conflicts instead of silently skipping them.
func keepCandidate(r Row, isPlaceholder func(string) bool) bool {
	if r.EmailSource == SourceWebhook {
		return true
	}
	return isPlaceholder(r.Email)
}

// ApplyUpdate replaces a placeholder email and stamps the audit columns.
// The WHERE clause re-checks the snapshot email, so a row changed by an
// external writer since the snapshot is skipped, not clobbered: applied is
// false and the caller records the row as stale.
func (s *Store) ApplyUpdate(ctx context.Context, id int64, snapshotEmail, newEmail string) (applied bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
UPDATE `+quoteIdent(s.table)+`
SET email = $1, email_source = $2, email_updated_at = NOW()
WHERE id = $3 AND email = $4`,
		newEmail, SourceWebhook, id, snapshotEmail,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func quoteIdent(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
