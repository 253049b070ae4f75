package httpapi

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"leadsync/internal/store"
)

type ExportHandler struct {
	DB *sql.DB
}

// Export dumps every collected contact, most recently updated first, as a
// downloadable JSON document.
func (h ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	contacts, err := store.ListContacts(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "export failed")
		return
	}
	if contacts == nil {
		contacts = []store.Contact{}
	}

	now := time.Now().UTC()
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="contacts_%s.json"`, now.Format("20060102_150405")))
	writeJSON(w, map[string]any{
		"export_timestamp": now.Format(time.RFC3339),
		"total_contacts":   len(contacts),
		"contacts":         contacts,
	})
}

func (h ExportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := store.GetStats(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "stats failed")
		return
	}
	writeJSON(w, s)
}
