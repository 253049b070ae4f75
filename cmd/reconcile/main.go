// reconcile matches collected contacts against placeholder rows in the
// analytics database and fills in real emails.
//
// Safe by default: runs in dry-run mode unless invoked with --dry-run=false.
// A dry run performs zero writes against either store; a commit applies
// each update as one guarded row write, so a second commit over the same
// data classifies everything as a no-op.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"leadsync/internal/reconcile"
	"leadsync/internal/secrets"
	"leadsync/internal/store"
	"leadsync/internal/target"
)

var (
	dbPath      = flag.String("db", getenv("LEADSYNC_DB", "leadsync.db"), "event store sqlite path (or LEADSYNC_DB)")
	targetDSN   = flag.String("target-dsn", getenv("TARGET_DATABASE_URL", ""), "target Postgres DSN (or TARGET_DATABASE_URL)")
	targetTable = flag.String("target-table", getenv("TARGET_TABLE", "contacts"), "target contact table name")
	pattern     = flag.String("placeholder-pattern", getenv("PLACEHOLDER_PATTERN", ""), "placeholder email regexp (default built in)")
	dryRun      = flag.Bool("dry-run", getenvBool("RECONCILE_DRY_RUN", true), "compute only; pass --dry-run=false to apply updates")
	reportPath  = flag.String("report-path", "", "report file path (default reconcile-<timestamp>.json)")
	lockPath    = flag.String("lock-path", getenv("RECONCILE_LOCK", ""), "lock file guarding against concurrent runs (default <db>.reconcile.lock)")
	runTimeout  = flag.Duration("timeout", getenvDuration("RECONCILE_TIMEOUT", 10*time.Minute), "overall run timeout")
)

func main() {
	flag.Parse()
	log.SetPrefix("[reconcile] ")
	log.SetFlags(log.LstdFlags)

	if *targetDSN == "" {
		log.Print("missing --target-dsn / TARGET_DATABASE_URL")
		flag.Usage()
		os.Exit(2)
	}

	mode := reconcile.ModeCommit
	if *dryRun {
		mode = reconcile.ModeDryRun
	}

	lp := *lockPath
	if lp == "" {
		lp = *dbPath + ".reconcile.lock"
	}
	lock := flock.New(lp)
	held, err := lock.TryLock()
	if err != nil {
		log.Printf("lock %s: %v", lp, err)
		os.Exit(1)
	}
	if !held {
		log.Printf("another reconcile run holds %s", lp)
		os.Exit(1)
	}
	defer func() { _ = lock.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), *runTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := run(ctx, mode)
	if rep != nil {
		path := *reportPath
		if path == "" {
			path = fmt.Sprintf("reconcile-%s.json", time.Now().UTC().Format("20060102-150405"))
		}
		if werr := rep.WriteFile(path); werr != nil {
			log.Printf("write report %s: %v", path, werr)
		} else {
			log.Printf("report written to %s", path)
		}
		fmt.Print(rep.Summary())
	}
	if err != nil {
		log.Printf("run failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, mode reconcile.Mode) (*reconcile.Report, error) {
	isPlaceholder, err := target.CompilePlaceholderPattern(*pattern)
	if err != nil {
		return nil, fmt.Errorf("placeholder pattern: %w", err)
	}

	eventDB, err := store.Open(*dbPath)
	if err != nil {
		return nil, fmt.Errorf("open event store %s: %w", filepath.Clean(*dbPath), err)
	}
	defer eventDB.Close()

	dsn := secrets.ResolveDSNPassword(*targetDSN)
	tgt, err := target.Open(dsn, *targetTable)
	if err != nil {
		return nil, fmt.Errorf("open target store: %w", err)
	}
	defer tgt.Close()

	if mode == reconcile.ModeCommit {
		if err := tgt.EnsureAuditColumns(ctx); err != nil {
			return nil, fmt.Errorf("ensure audit columns: %w", err)
		}
	}

	deps := reconcile.Deps{
		LoadSources: func(ctx context.Context) ([]reconcile.Source, error) {
			rows, err := store.ReconcileSnapshot(ctx, eventDB.Pool)
			if err != nil {
				return nil, err
			}
			out := make([]reconcile.Source, 0, len(rows))
			for _, r := range rows {
				out = append(out, reconcile.Source{
					ID:         r.ID,
					Name:       r.Name,
					Company:    r.Company,
					Email:      r.Email,
					ProfileURL: r.ProfileURL,
					UpdatedAt:  r.UpdatedAt,
				})
			}
			return out, nil
		},
		LoadTargets: func(ctx context.Context) ([]target.Row, error) {
			return tgt.ListPlaceholders(ctx, isPlaceholder)
		},
		Apply: tgt.ApplyUpdate,
	}

	log.Printf("starting run mode=%s db=%s table=%s", mode, *dbPath, *targetTable)
	return reconcile.Run(ctx, mode, deps)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
