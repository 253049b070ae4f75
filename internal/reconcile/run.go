package reconcile

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"leadsync/internal/target"
)

// consecutiveFailureLimit distinguishes a sick row from a dead connection:
// this many Apply failures in a row aborts the rest of the run.
const consecutiveFailureLimit = 3

// Deps injects the two snapshots and the write path so tests can run the
// whole engine against fakes.
type Deps struct {
	LoadSources func(ctx context.Context) ([]Source, error)
	LoadTargets func(ctx context.Context) ([]target.Row, error)

	// Apply performs one guarded email update. applied=false means the row
	// changed underneath the snapshot and was skipped. Unused in dry-run.
	Apply func(ctx context.Context, targetID int64, snapshotEmail, newEmail string) (applied bool, err error)
}

// Run loads both snapshots, classifies, and in commit mode applies the
// "update" entries one row at a time. A row-level failure skips that row; a
// cancelled context or repeated failures abort the remainder and mark the
// report partial. The report is always returned, even alongside an error.
func Run(ctx context.Context, mode Mode, d Deps) (*Report, error) {
	var (
		sources []Source
		targets []target.Row
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sources, err = d.LoadSources(gctx)
		if err != nil {
			return fmt.Errorf("load collected contacts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		targets, err = d.LoadTargets(gctx)
		if err != nil {
			return fmt.Errorf("load target candidates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		rep := newReport()
		rep.GeneratedAt = time.Now().UTC()
		rep.Mode = mode
		rep.Partial = true
		rep.Errors = append(rep.Errors, err.Error())
		rep.refreshCounts()
		return rep, err
	}

	rep := Plan(sources, targets)
	rep.GeneratedAt = time.Now().UTC()
	rep.Mode = mode

	if mode != ModeCommit {
		return rep, nil
	}

	planned := rep.Updated
	rep.Updated = make([]Match, 0, len(planned))
	consecutive := 0

	for i, m := range planned {
		if ctx.Err() != nil {
			rep.Partial = true
			rep.Errors = append(rep.Errors, fmt.Sprintf("run aborted: %v", ctx.Err()))
			rep.NotAttempted = append(rep.NotAttempted, planned[i:]...)
			break
		}

		applied, err := d.Apply(ctx, m.TargetID, m.OldEmail, m.NewEmail)
		if err != nil {
			consecutive++
			rep.Errors = append(rep.Errors, fmt.Sprintf("target %d: %v", m.TargetID, err))
			log.Printf("[reconcile] target=%d update failed: %v", m.TargetID, err)
			if consecutive >= consecutiveFailureLimit {
				rep.Partial = true
				rep.Errors = append(rep.Errors, "aborting run: repeated store failures")
				rep.NotAttempted = append(rep.NotAttempted, planned[i+1:]...)
				break
			}
			continue
		}
		consecutive = 0

		if !applied {
			log.Printf("[reconcile] target=%d changed since snapshot, skipping", m.TargetID)
			rep.SkippedStale = append(rep.SkippedStale, m)
			continue
		}
		rep.Updated = append(rep.Updated, m)
	}

	rep.refreshCounts()
	if rep.Partial {
		return rep, fmt.Errorf("reconcile run partial: %d updates not attempted", rep.Counts.NotAttempted)
	}
	return rep, nil
}
