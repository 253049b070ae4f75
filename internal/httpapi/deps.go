package httpapi

import (
	"database/sql"

	"leadsync/internal/config"
)

type Deps struct {
	DB *sql.DB

	Cfg config.Config

	// Limiter throttles POST /webhook per remote host. Nil disables
	// throttling (tests).
	Limiter *SenderLimiter

	// FixSchema reruns the idempotent migration and reports added columns.
	FixSchema func(db *sql.DB) ([]string, error)
}
