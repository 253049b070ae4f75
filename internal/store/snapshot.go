package store

import (
	"context"
	"database/sql"
	"time"
)

type SnapshotContact struct {
	ID         int64
	Name       string
	Company    string
	Email      string
	ProfileURL string
	UpdatedAt  time.Time
}

// ReconcileSnapshot returns every contact in a stable order for the batch
// reconciler. Plain read-committed reads; the sqlite writer is never blocked.
func ReconcileSnapshot(ctx context.Context, db *sql.DB) ([]SnapshotContact, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, name, company, email, profile_url, updated_at
FROM contacts
ORDER BY id ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotContact
	for rows.Next() {
		var c SnapshotContact
		var updated string
		if err := rows.Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.ProfileURL, &updated); err != nil {
			return nil, err
		}
		c.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, c)
	}
	return out, rows.Err()
}
