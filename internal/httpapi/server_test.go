package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"leadsync/internal/config"
	"leadsync/internal/store"
)

func newTestServer(t *testing.T, mutate func(*Deps)) *httptest.Server {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := store.Migrate(db.Pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Default()
	cfg.Admin.ClearToken = "test-token"
	d := Deps{DB: db.Pool, Cfg: cfg, FixSchema: store.Migrate}
	if mutate != nil {
		mutate(&d)
	}

	h := Chain(NewMux(d), RequestID, Recover, AccessLog, Cors)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestWebhookIngestAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/webhook", `{"name":"Jane Doe","company":"Acme","email":"jane@acme.example"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ingest status = %d", resp.StatusCode)
	}
	var out struct {
		ID      int64 `json:"id"`
		Created bool  `json:"created"`
	}
	decodeBody(t, resp, &out)
	if out.ID == 0 || !out.Created {
		t.Fatalf("ingest response: %+v", out)
	}

	// same contact again merges instead of duplicating
	resp = postJSON(t, srv.URL+"/webhook", `{"name":"jane doe","company":"ACME","title":"CTO"}`)
	decodeBody(t, resp, &out)
	if out.Created {
		t.Fatal("repeat event should merge, not create")
	}

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	var health struct {
		Status       string `json:"status"`
		ContactCount int    `json:"contact_count"`
		Webhooks24h  int    `json:"webhooks_last_24h"`
	}
	decodeBody(t, resp, &health)
	if health.Status != "ok" || health.ContactCount != 1 || health.Webhooks24h != 2 {
		t.Fatalf("health payload: %+v", health)
	}
}

func TestWebhookInvalidPayload(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/webhook", `{"email":"no-name@acme.example"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var apiErr APIError
	decodeBody(t, resp, &apiErr)
	if apiErr.Error.Code != "invalid_payload" {
		t.Errorf("error code = %q", apiErr.Error.Code)
	}
	if apiErr.Error.RequestID == "" {
		t.Error("error envelope missing request id")
	}

	// the bad payload still landed in the log, unprocessed
	resp, err := http.Get(srv.URL + "/webhook/logs")
	if err != nil {
		t.Fatal(err)
	}
	var logs []store.LogEntry
	decodeBody(t, resp, &logs)
	if len(logs) != 1 {
		t.Fatalf("want 1 log entry, got %d", len(logs))
	}
	if logs[0].Processed {
		t.Error("invalid payload marked processed")
	}
	if logs[0].ProcessingNotes == nil || !strings.Contains(*logs[0].ProcessingNotes, "name") {
		t.Errorf("processing notes should name the problem: %v", logs[0].ProcessingNotes)
	}
}

func TestWebhookLogsLimit(t *testing.T) {
	srv := newTestServer(t, nil)

	for i := 0; i < 4; i++ {
		resp := postJSON(t, srv.URL+"/webhook", `{"name":"Jane Doe"}`)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/webhook/logs?limit=2")
	if err != nil {
		t.Fatal(err)
	}
	var logs []store.LogEntry
	decodeBody(t, resp, &logs)
	if len(logs) != 2 {
		t.Fatalf("limit ignored: got %d entries", len(logs))
	}
}

func TestWebhookRateLimited(t *testing.T) {
	srv := newTestServer(t, func(d *Deps) {
		d.Limiter = NewSenderLimiter(0.0001, 1)
	})

	resp := postJSON(t, srv.URL+"/webhook", `{"name":"Jane Doe"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first request status = %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/webhook", `{"name":"Jane Doe"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", resp.StatusCode)
	}
	var apiErr APIError
	decodeBody(t, resp, &apiErr)
	if apiErr.Error.Code != "rate_limited" {
		t.Errorf("error code = %q", apiErr.Error.Code)
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/webhook", `{"name":"Jane Doe","email":"jane@acme.example"}`)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/export")
	if err != nil {
		t.Fatal(err)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="contacts_`) {
		t.Errorf("content-disposition = %q", cd)
	}
	var export struct {
		ExportTimestamp string          `json:"export_timestamp"`
		TotalContacts   int             `json:"total_contacts"`
		Contacts        []store.Contact `json:"contacts"`
	}
	decodeBody(t, resp, &export)
	if export.TotalContacts != 1 || len(export.Contacts) != 1 {
		t.Fatalf("export payload: %+v", export)
	}
	if export.Contacts[0].Email != "jane@acme.example" {
		t.Errorf("contact fields: %+v", export.Contacts[0])
	}
}

func TestExportEmpty(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/export")
	if err != nil {
		t.Fatal(err)
	}
	var export struct {
		TotalContacts int             `json:"total_contacts"`
		Contacts      []store.Contact `json:"contacts"`
	}
	decodeBody(t, resp, &export)
	if export.TotalContacts != 0 || export.Contacts == nil {
		t.Fatalf("empty export should have a non-null contacts array: %+v", export)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/webhook", `{"name":"Jane Doe","company":"Acme"}`)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	var s store.Stats
	decodeBody(t, resp, &s)
	if s.TotalContacts != 1 || len(s.TopCompanies) != 1 {
		t.Fatalf("stats payload: %+v", s)
	}
}

func TestFixSchemaEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/fix-schema", ``)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		ColumnsAdded []string `json:"columns_added"`
	}
	decodeBody(t, resp, &out)
	if out.ColumnsAdded == nil {
		t.Fatal("columns_added should be an empty array, not null")
	}
	if len(out.ColumnsAdded) != 0 {
		t.Errorf("fresh schema needed repairs: %v", out.ColumnsAdded)
	}
}

func TestClearEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/webhook", `{"name":"Jane Doe"}`)
	resp.Body.Close()

	// wrong token
	resp = postJSON(t, srv.URL+"/clear", `{"confirm":"nope"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrong token status = %d", resp.StatusCode)
	}
	var apiErr APIError
	decodeBody(t, resp, &apiErr)
	if apiErr.Error.Code != "confirmation_required" {
		t.Errorf("error code = %q", apiErr.Error.Code)
	}

	// right token
	resp = postJSON(t, srv.URL+"/clear", `{"confirm":"test-token"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d", resp.StatusCode)
	}
	var out struct {
		Status  string `json:"status"`
		Deleted int64  `json:"deleted"`
	}
	decodeBody(t, resp, &out)
	if out.Status != "ok" || out.Deleted != 1 {
		t.Fatalf("clear response: %+v", out)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/webhook")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /webhook status = %d, want 405", resp.StatusCode)
	}
}

func TestCorsPreflight(t *testing.T) {
	srv := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/webhook", nil)
	req.Header.Set("Origin", "chrome-extension://abcdef")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "chrome-extension://abcdef" {
		t.Errorf("allow-origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestUnknownPath(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	req.Header.Set("X-Request-ID", "trace-me-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") != "trace-me-123" {
		t.Errorf("request id not echoed: %q", resp.Header.Get("X-Request-ID"))
	}
}
