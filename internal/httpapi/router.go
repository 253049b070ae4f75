package httpapi

import "net/http"

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	hh := HealthHandler{DB: d.DB}
	mux.HandleFunc("/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Root,
	}))

	wh := WebhookHandler{DB: d.DB, Limiter: d.Limiter}
	mux.HandleFunc("/webhook", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: wh.Ingest,
	}))
	mux.HandleFunc("/webhook/logs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: wh.Logs,
	}))

	eh := ExportHandler{DB: d.DB}
	mux.HandleFunc("/export", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.Export,
	}))
	mux.HandleFunc("/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.Stats,
	}))

	ah := AdminHandler{DB: d.DB, ClearToken: d.Cfg.Admin.ClearToken, Repair: d.FixSchema}
	mux.HandleFunc("/fix-schema", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.FixSchema,
	}))
	mux.HandleFunc("/clear", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ah.Clear,
	}))

	return mux
}
