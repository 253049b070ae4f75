package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type Mode string

const (
	ModeDryRun Mode = "dry-run"
	ModeCommit Mode = "commit"
)

// Source is one collected contact from the event store.
type Source struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Company    string    `json:"company"`
	Email      string    `json:"email"`
	ProfileURL string    `json:"profile_url,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Match pairs a candidate target row with the collected contact that won it.
type Match struct {
	TargetID      int64  `json:"target_id"`
	TargetName    string `json:"target_name"`
	TargetCompany string `json:"target_company"`
	OldEmail      string `json:"old_email"`
	NewEmail      string `json:"new_email"`
	SourceID      int64  `json:"source_id"`

	// NameOnly marks a low-confidence match made without a company key.
	NameOnly bool `json:"name_only,omitempty"`

	// RejectedAlternates lists collected-contact ids that tied on the key
	// but lost the recency tie-break.
	RejectedAlternates []int64 `json:"rejected_alternates,omitempty"`
}

type UnmatchedSource struct {
	SourceID int64  `json:"source_id"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Email    string `json:"email"`
	Reason   string `json:"reason"`
}

type UnmatchedTarget struct {
	TargetID int64  `json:"target_id"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Email    string `json:"email"`
}

type Counts struct {
	Updated            int `json:"updated"`
	Noops              int `json:"noops"`
	Conflicts          int `json:"conflicts"`
	LowConfidence      int `json:"low_confidence"`
	SkippedStale       int `json:"skipped_stale"`
	NotAttempted       int `json:"not_attempted"`
	UnmatchedCollected int `json:"unmatched_collected"`
	UnmatchedTarget    int `json:"unmatched_target"`
	Errors             int `json:"errors"`
}

// Report is the per-run artifact. Every slice is sorted by target (or
// source) id, so two dry runs over unchanged stores serialize identically
// apart from GeneratedAt.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Mode        Mode      `json:"mode"`
	Partial     bool      `json:"partial"`
	Counts      Counts    `json:"counts"`

	Updated       []Match `json:"updated"`
	Noops         []Match `json:"noops"`
	Conflicts     []Match `json:"conflicts"`
	LowConfidence []Match `json:"low_confidence"`
	SkippedStale  []Match `json:"skipped_stale"`
	NotAttempted  []Match `json:"not_attempted"`

	UnmatchedCollected []UnmatchedSource `json:"unmatched_collected"`
	UnmatchedTarget    []UnmatchedTarget `json:"unmatched_target"`

	Errors []string `json:"errors"`
}

func newReport() *Report {
	return &Report{
		Updated:            make([]Match, 0),
		Noops:              make([]Match, 0),
		Conflicts:          make([]Match, 0),
		LowConfidence:      make([]Match, 0),
		SkippedStale:       make([]Match, 0),
		NotAttempted:       make([]Match, 0),
		UnmatchedCollected: make([]UnmatchedSource, 0),
		UnmatchedTarget:    make([]UnmatchedTarget, 0),
		Errors:             make([]string, 0),
	}
}

func (r *Report) refreshCounts() {
	r.Counts = Counts{
		Updated:            len(r.Updated),
		Noops:              len(r.Noops),
		Conflicts:          len(r.Conflicts),
		LowConfidence:      len(r.LowConfidence),
		SkippedStale:       len(r.SkippedStale),
		NotAttempted:       len(r.NotAttempted),
		UnmatchedCollected: len(r.UnmatchedCollected),
		UnmatchedTarget:    len(r.UnmatchedTarget),
		Errors:             len(r.Errors),
	}
}

// WriteFile persists the report as an indented JSON artifact.
func (r *Report) WriteFile(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// Summary renders the operator-facing run summary.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reconcile run mode=%s partial=%v\n", r.Mode, r.Partial)
	fmt.Fprintf(&b, "  updated:             %d\n", r.Counts.Updated)
	fmt.Fprintf(&b, "  no-ops:              %d\n", r.Counts.Noops)
	fmt.Fprintf(&b, "  conflicts:           %d\n", r.Counts.Conflicts)
	fmt.Fprintf(&b, "  low-confidence:      %d\n", r.Counts.LowConfidence)
	fmt.Fprintf(&b, "  skipped (stale):     %d\n", r.Counts.SkippedStale)
	fmt.Fprintf(&b, "  unmatched collected: %d\n", r.Counts.UnmatchedCollected)
	fmt.Fprintf(&b, "  unmatched target:    %d\n", r.Counts.UnmatchedTarget)
	if r.Counts.NotAttempted > 0 {
		fmt.Fprintf(&b, "  not attempted:       %d\n", r.Counts.NotAttempted)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  error: %s\n", e)
	}
	for _, c := range r.Conflicts {
		fmt.Fprintf(&b, "  conflict: target=%d %q stored=%s matched=%s (manual review)\n",
			c.TargetID, c.TargetName, c.OldEmail, c.NewEmail)
	}
	return b.String()
}
