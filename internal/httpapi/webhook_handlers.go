package httpapi

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"leadsync/internal/ingest"
	"leadsync/internal/store"
)

const (
	maxEventBytes    = 1 << 20
	defaultLogsLimit = 50
	maxLogsLimit     = 500
)

type WebhookHandler struct {
	DB      *sql.DB
	Limiter *SenderLimiter
}

// Ingest accepts one contact event. The raw payload is always appended to
// the webhook log first — a validation or upsert failure after that point
// loses nothing, the log row just stays unprocessed with the error noted.
func (h WebhookHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if !h.Limiter.AllowAddr(r.RemoteAddr) {
		WriteError(w, r, http.StatusTooManyRequests, "rate_limited", "slow down")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_payload", "unreadable body")
		return
	}

	ctx := r.Context()
	ev, decodeErr := ingest.Decode(body)

	logID, logErr := store.AppendLog(ctx, h.DB, "linkedin_data", ev.Email, string(body))
	if logErr != nil {
		reqID := RequestIDFrom(ctx)
		log.Printf("level=error msg=\"append log failed\" request_id=%s err=%v", reqID, logErr)
		WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "event not stored")
		return
	}

	if decodeErr != nil {
		notes := strings.TrimPrefix(decodeErr.Error(), ingest.ErrInvalidPayload.Error()+": ")
		_ = store.MarkLogProcessed(ctx, h.DB, logID, false, notes)
		WriteError(w, r, http.StatusBadRequest, "invalid_payload", notes)
		return
	}

	ingest.EnrichFromHTML(&ev)

	id, created, err := store.UpsertContact(ctx, h.DB, ev)
	if err != nil {
		reqID := RequestIDFrom(ctx)
		log.Printf("level=error msg=\"upsert failed\" request_id=%s err=%v", reqID, err)
		_ = store.MarkLogProcessed(ctx, h.DB, logID, false, "store error: "+err.Error())
		WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "event logged but not applied")
		return
	}

	action := "updated"
	if created {
		action = "created"
	}
	_ = store.MarkLogProcessed(ctx, h.DB, logID, true, fmt.Sprintf("contact %s id=%d", action, id))

	writeJSON(w, map[string]any{"id": id, "created": created})
}

// Logs returns recent webhook log entries, newest first. Schema drift (or
// any read failure) degrades to an empty list rather than a 500.
func (h WebhookHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLogsLimit {
		limit = maxLogsLimit
	}

	entries, err := store.RecentLogs(r.Context(), h.DB, limit)
	if err != nil {
		log.Printf("level=warn msg=\"webhook logs degraded\" err=%v", err)
		entries = []store.LogEntry{}
	}
	if entries == nil {
		entries = []store.LogEntry{}
	}
	writeJSON(w, entries)
}
