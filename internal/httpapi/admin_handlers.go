package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"leadsync/internal/store"
)

type AdminHandler struct {
	DB         *sql.DB
	ClearToken string
	Repair     func(db *sql.DB) ([]string, error)
}

// FixSchema reruns the idempotent migration on demand. The same repair runs
// at every startup; this endpoint exists so an operator can heal a drifted
// database without a restart.
func (h AdminHandler) FixSchema(w http.ResponseWriter, r *http.Request) {
	repair := h.Repair
	if repair == nil {
		repair = store.Migrate
	}
	added, err := repair(h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "schema_repair_failed", "schema repair failed")
		return
	}
	if added == nil {
		added = []string{}
	}
	writeJSON(w, map[string]any{"columns_added": added})
}

// Clear wipes the contacts table. Destructive, so the caller must echo the
// configured confirmation token.
func (h AdminHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Confirm string `json:"confirm"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	n, err := store.Clear(r.Context(), h.DB, body.Confirm, h.ClearToken)
	if errors.Is(err, store.ErrConfirmationRequired) {
		WriteError(w, r, http.StatusBadRequest, "confirmation_required",
			"send {\"confirm\": \"<token>\"} to clear collected data")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "clear failed")
		return
	}

	log.Printf("level=warn msg=\"contacts cleared\" request_id=%s deleted=%d", RequestIDFrom(r.Context()), n)
	writeJSON(w, map[string]any{"status": "ok", "deleted": n})
}
