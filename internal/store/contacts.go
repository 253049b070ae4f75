package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"leadsync/internal/ingest"
)

type Contact struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Email       string `json:"email"`
	LinkedInURL string `json:"linkedin_url"`
	WebsiteURL  string `json:"website_url"`
	WebsiteText string `json:"website_text,omitempty"`
	ProfileURL  string `json:"profile_url"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// UpsertContact writes one event into the contacts table. Lookup order is
// profile URL first (best unique key when the client captured it), then the
// normalized (name, company) pair. Existing rows are merged: non-empty
// incoming fields win, blank ones leave the stored value alone.
//
// The whole lookup-then-write runs in one transaction on the single sqlite
// writer connection, so concurrent events for the same key cannot both
// insert.
func UpsertContact(ctx context.Context, db *sql.DB, ev ingest.ContactEvent) (id int64, created bool, err error) {
	nameKey := ingest.NormalizeKey(ev.Name)
	companyKey := ingest.NormalizeKey(ev.Company)
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback() }()

	id, err = findContact(ctx, tx, ev.ProfileURL, nameKey, companyKey)
	if err != nil {
		return 0, false, err
	}

	if id > 0 {
		_, err = tx.ExecContext(ctx, `
UPDATE contacts SET
  name         = CASE WHEN ? != '' THEN ? ELSE name END,
  title        = CASE WHEN ? != '' THEN ? ELSE title END,
  company      = CASE WHEN ? != '' THEN ? ELSE company END,
  location     = CASE WHEN ? != '' THEN ? ELSE location END,
  email        = CASE WHEN ? != '' THEN ? ELSE email END,
  linkedin_url = CASE WHEN ? != '' THEN ? ELSE linkedin_url END,
  website_url  = CASE WHEN ? != '' THEN ? ELSE website_url END,
  website_text = CASE WHEN ? != '' THEN ? ELSE website_text END,
  profile_url  = CASE WHEN ? != '' THEN ? ELSE profile_url END,
  raw_json     = CASE WHEN ? != '' THEN ? ELSE raw_json END,
  name_key     = CASE WHEN ? != '' THEN ? ELSE name_key END,
  company_key  = CASE WHEN ? != '' THEN ? ELSE company_key END,
  updated_at   = ?
WHERE id = ?;`,
			ev.Name, ev.Name,
			ev.Title, ev.Title,
			ev.Company, ev.Company,
			ev.Location, ev.Location,
			ev.Email, ev.Email,
			ev.LinkedInURL, ev.LinkedInURL,
			ev.WebsiteURL, ev.WebsiteURL,
			ev.WebsiteText, ev.WebsiteText,
			ev.ProfileURL, ev.ProfileURL,
			string(ev.Raw), string(ev.Raw),
			nameKey, nameKey,
			companyKey, companyKey,
			now, id,
		)
		if err != nil {
			return 0, false, fmt.Errorf("merge contact %d: %w", id, err)
		}
		if err := tx.Commit(); err != nil {
			return 0, false, err
		}
		return id, false, nil
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO contacts
  (name, title, company, location, email, linkedin_url, website_url,
   website_text, profile_url, raw_json, name_key, company_key,
   created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		ev.Name, ev.Title, ev.Company, ev.Location, ev.Email, ev.LinkedInURL,
		ev.WebsiteURL, ev.WebsiteText, ev.ProfileURL, string(ev.Raw),
		nameKey, companyKey, now, now,
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert contact: %w", err)
	}
	id, _ = res.LastInsertId()
	if err := tx.Commit(); err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func findContact(ctx context.Context, tx *sql.Tx, profileURL, nameKey, companyKey string) (int64, error) {
	var id int64

	if profileURL != "" {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM contacts WHERE profile_url = ? LIMIT 1;`, profileURL,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
	}

	err := tx.QueryRowContext(ctx,
		`SELECT id FROM contacts WHERE name_key = ? AND company_key = ? LIMIT 1;`,
		nameKey, companyKey,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListContacts returns the full dump, most recently updated first.
func ListContacts(ctx context.Context, db *sql.DB) ([]Contact, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, name, title, company, location, email, linkedin_url,
       website_url, website_text, profile_url, created_at, updated_at
FROM contacts
ORDER BY updated_at DESC, id DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Title, &c.Company, &c.Location, &c.Email,
			&c.LinkedInURL, &c.WebsiteURL, &c.WebsiteText, &c.ProfileURL,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func ContactCount(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts;`).Scan(&n)
	return n, err
}
