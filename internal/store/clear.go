package store

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
)

// ErrConfirmationRequired is returned when a destructive wipe is attempted
// without the configured confirmation token.
var ErrConfirmationRequired = errors.New("confirmation required")

// Clear deletes every contact row. The caller must present the exact
// confirmation token configured for the deployment; the webhook log is
// append-only history and is left alone.
func Clear(ctx context.Context, db *sql.DB, got, want string) (int64, error) {
	if want == "" || got == "" {
		return 0, ErrConfirmationRequired
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return 0, ErrConfirmationRequired
	}

	res, err := db.ExecContext(ctx, `DELETE FROM contacts;`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
