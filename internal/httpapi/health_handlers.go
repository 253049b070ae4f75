package httpapi

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"leadsync/internal/store"
)

type HealthHandler struct {
	DB *sql.DB
}

// Root reports liveness plus collection counters. A broken store degrades
// the payload instead of failing the endpoint, so the platform health check
// keeps passing while the database recovers.
func (h HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	contacts, err := store.ContactCount(ctx, h.DB)
	if err != nil {
		log.Printf("level=warn msg=\"health degraded\" err=%v", err)
		writeJSON(w, map[string]any{
			"status":           "degraded",
			"contact_count":    0,
			"webhooks_last_24h": 0,
		})
		return
	}
	recent, err := store.WebhooksSince(ctx, h.DB, time.Now().Add(-24*time.Hour))
	if err != nil {
		recent = 0
	}

	writeJSON(w, map[string]any{
		"status":           "ok",
		"contact_count":    contacts,
		"webhooks_last_24h": recent,
	})
}
