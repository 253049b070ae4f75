package store

import (
	"database/sql"
	"fmt"
)

// repairColumns are columns that older databases may be missing. Migrate adds
// each one with an ALTER that is a no-op when the column already exists, so a
// partial schema never blocks startup.
var repairColumns = []struct {
	table, column, ddl string
}{
	{"webhook_logs", "processing_notes", "TEXT"},
	{"contacts", "website_text", "TEXT NOT NULL DEFAULT ''"},
	{"contacts", "raw_json", "TEXT NOT NULL DEFAULT ''"},
}

// Migrate creates the schema if absent and repairs known column drift.
// It returns the list of columns it added, as "table.column".
func Migrate(db *sql.DB) ([]string, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS contacts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  linkedin_url TEXT NOT NULL DEFAULT '',
  website_url TEXT NOT NULL DEFAULT '',
  website_text TEXT NOT NULL DEFAULT '',
  profile_url TEXT NOT NULL DEFAULT '',
  raw_json TEXT NOT NULL DEFAULT '',
  name_key TEXT NOT NULL,
  company_key TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS webhook_logs (
  log_id INTEGER PRIMARY KEY AUTOINCREMENT,
  event_type TEXT NOT NULL DEFAULT '',
  contact_email TEXT,
  webhook_data TEXT NOT NULL DEFAULT '',
  received_at TEXT NOT NULL,
  processed INTEGER NOT NULL DEFAULT 0,
  processing_notes TEXT
);
`); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_profile_url
ON contacts(profile_url)
WHERE profile_url != '';
`); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_natural_key
ON contacts(name_key, company_key)
WHERE profile_url = '';
`); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_contacts_updated
ON contacts(updated_at DESC);
`); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_webhook_logs_received
ON webhook_logs(received_at DESC);
`); err != nil {
		return nil, err
	}

	var added []string
	for _, rc := range repairColumns {
		if columnExists(tx, rc.table, rc.column) {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s;`, rc.table, rc.column, rc.ddl)
		if _, err := tx.Exec(stmt); err != nil {
			return nil, fmt.Errorf("add column %s.%s: %w", rc.table, rc.column, err)
		}
		added = append(added, rc.table+"."+rc.column)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return added, nil
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
