package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"leadsync/internal/config"
	"leadsync/internal/httpapi"
	"leadsync/internal/store"
)

func main() {
	cfgPath := os.Getenv("LEADSYNC_CONFIG")
	if cfgPath == "" {
		cfgPath = filepath.Join("config", "config.yml")
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", cfgPath, err)
	}
	config.OverlayEnv(&cfg)
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		log.Fatal(err)
	}
	dbPath := cfg.App.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.App.DataDir, "leadsync.db")
	}

	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("open event store (%s): %v", dbPath, err)
	}
	defer db.Close()

	added, err := store.Migrate(db.Pool)
	if err != nil {
		log.Fatalf("migrate event store: %v", err)
	}
	if len(added) > 0 {
		log.Printf("schema repaired, added columns: %v", added)
	}

	if cfg.Admin.ClearToken == "" {
		log.Printf("level=warn msg=\"CLEAR_TOKEN not set; POST /clear is disabled\"")
	}

	mux := httpapi.NewMux(httpapi.Deps{
		DB:        db.Pool,
		Cfg:       cfg,
		Limiter:   httpapi.NewSenderLimiter(cfg.Ingest.RatePerSec, cfg.Ingest.Burst),
		FixSchema: store.Migrate,
	})
	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
		httpapi.Cors,
	)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("webhookd listening on %s (db=%s)", addr, dbPath)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Printf("webhookd stopped")
}
