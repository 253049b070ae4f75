package store

import (
	"context"
	"database/sql"
	"time"
)

type LogEntry struct {
	LogID           int64   `json:"log_id"`
	EventType       string  `json:"event_type"`
	ContactEmail    *string `json:"contact_email"`
	ReceivedAt      string  `json:"received_at"`
	Processed       bool    `json:"processed"`
	ProcessingNotes *string `json:"processing_notes"`
}

// AppendLog records a raw inbound event. It runs outside any contact
// transaction so a failed upsert never loses the payload.
func AppendLog(ctx context.Context, db *sql.DB, eventType, contactEmail, webhookData string) (int64, error) {
	var email any
	if contactEmail != "" {
		email = contactEmail
	}
	res, err := db.ExecContext(ctx, `
INSERT INTO webhook_logs (event_type, contact_email, webhook_data, received_at, processed)
VALUES (?, ?, ?, ?, 0);`,
		eventType, email, webhookData, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MarkLogProcessed flips the processed flag and attaches notes. On a legacy
// schema without processing_notes it still flips the flag.
func MarkLogProcessed(ctx context.Context, db *sql.DB, logID int64, processed bool, notes string) error {
	p := 0
	if processed {
		p = 1
	}
	_, err := db.ExecContext(ctx,
		`UPDATE webhook_logs SET processed = ?, processing_notes = ? WHERE log_id = ?;`,
		p, notes, logID,
	)
	if err == nil {
		return nil
	}
	_, err2 := db.ExecContext(ctx,
		`UPDATE webhook_logs SET processed = ? WHERE log_id = ?;`, p, logID,
	)
	if err2 != nil {
		return err
	}
	return nil
}

// RecentLogs returns the newest entries first. A database missing the
// processing_notes column reports null notes instead of failing.
func RecentLogs(ctx context.Context, db *sql.DB, limit int) ([]LogEntry, error) {
	notesCol := "processing_notes"
	if !columnExists(db, "webhook_logs", "processing_notes") {
		notesCol = "NULL"
	}

	rows, err := db.QueryContext(ctx, `
SELECT log_id, event_type, contact_email, received_at, processed, `+notesCol+`
FROM webhook_logs
ORDER BY received_at DESC, log_id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LogEntry, 0, limit)
	for rows.Next() {
		var e LogEntry
		var email, notes sql.NullString
		var processed int
		if err := rows.Scan(&e.LogID, &e.EventType, &email, &e.ReceivedAt, &processed, &notes); err != nil {
			return nil, err
		}
		e.Processed = processed != 0
		if email.Valid {
			e.ContactEmail = &email.String
		}
		if notes.Valid {
			e.ProcessingNotes = &notes.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// WebhooksSince counts log entries received after the cutoff.
func WebhooksSince(ctx context.Context, db *sql.DB, cutoff time.Time) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM webhook_logs WHERE received_at > ?;`,
		cutoff.UTC().Format(time.RFC3339),
	).Scan(&n)
	return n, err
}
