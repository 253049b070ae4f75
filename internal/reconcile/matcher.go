package reconcile

import (
	"sort"

	"leadsync/internal/ingest"
	"leadsync/internal/target"
)

type naturalKey struct {
	name    string
	company string
}

// sourceIndex indexes collected contacts by their normalized natural key,
// with a name-only fallback level for rows where company is unavailable on
// either side.
type sourceIndex struct {
	byKey  map[naturalKey][]*Source
	byName map[string][]*Source
}

func buildIndex(sources []Source) *sourceIndex {
	idx := &sourceIndex{
		byKey:  make(map[naturalKey][]*Source),
		byName: make(map[string][]*Source),
	}
	for i := range sources {
		s := &sources[i]
		if s.Email == "" || s.Name == "" {
			continue // nothing to reconcile with
		}
		nameKey := ingest.NormalizeKey(s.Name)
		companyKey := ingest.NormalizeKey(s.Company)
		if companyKey != "" {
			k := naturalKey{nameKey, companyKey}
			idx.byKey[k] = append(idx.byKey[k], s)
		}
		idx.byName[nameKey] = append(idx.byName[nameKey], s)
	}
	return idx
}

// pickWinner resolves a multi-candidate tie: most recently updated wins,
// lowest id on equal timestamps so the choice is stable across runs.
func pickWinner(cands []*Source) (winner *Source, rejected []int64) {
	winner = cands[0]
	for _, c := range cands[1:] {
		if c.UpdatedAt.After(winner.UpdatedAt) ||
			(c.UpdatedAt.Equal(winner.UpdatedAt) && c.ID < winner.ID) {
			winner = c
		}
	}
	for _, c := range cands {
		if c != winner {
			rejected = append(rejected, c.ID)
		}
	}
	sort.Slice(rejected, func(i, j int) bool { return rejected[i] < rejected[j] })
	return winner, rejected
}

// Plan classifies every candidate target row against the collected-contact
// snapshot. Pure function of its inputs: no store access, no writes, and a
// deterministic report given identical snapshots.
//
// Per target row the cascade is:
//  1. (name, company) key lookup — a hit is a full-confidence match.
//  2. name-only lookup — a hit is low-confidence: reported, never applied.
//  3. no hit — unmatched target.
//
// Full-confidence matches classify as update, no-op or conflict depending
// on the stored email and its audit source. A webhook-sourced email that
// differs from the fresh match is a conflict and is never overwritten.
func Plan(sources []Source, targets []target.Row) *Report {
	rep := newReport()
	idx := buildIndex(sources)

	ordered := make([]target.Row, len(targets))
	copy(ordered, targets)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	seen := make(map[int64]bool)

	for _, t := range ordered {
		nameKey := ingest.NormalizeKey(t.Name)
		companyKey := ingest.NormalizeKey(t.Company)

		var cands []*Source
		nameOnly := false
		if companyKey != "" {
			cands = idx.byKey[naturalKey{nameKey, companyKey}]
		}
		if len(cands) == 0 {
			cands = idx.byName[nameKey]
			nameOnly = true
		}
		if len(cands) == 0 {
			rep.UnmatchedTarget = append(rep.UnmatchedTarget, UnmatchedTarget{
				TargetID: t.ID, Name: t.Name, Company: t.Company, Email: t.Email,
			})
			continue
		}

		winner, rejected := pickWinner(cands)
		seen[winner.ID] = true
		for _, id := range rejected {
			seen[id] = true
		}

		m := Match{
			TargetID:           t.ID,
			TargetName:         t.Name,
			TargetCompany:      t.Company,
			OldEmail:           t.Email,
			NewEmail:           winner.Email,
			SourceID:           winner.ID,
			NameOnly:           nameOnly,
			RejectedAlternates: rejected,
		}

		switch {
		case nameOnly:
			rep.LowConfidence = append(rep.LowConfidence, m)
		case t.EmailSource == target.SourceWebhook && t.Email == winner.Email:
			rep.Noops = append(rep.Noops, m)
		case t.EmailSource == target.SourceWebhook:
			rep.Conflicts = append(rep.Conflicts, m)
		case t.Email == winner.Email:
			rep.Noops = append(rep.Noops, m)
		default:
			rep.Updated = append(rep.Updated, m)
		}
	}

	for i := range sources {
		s := &sources[i]
		if seen[s.ID] {
			continue
		}
		reason := "no matching target row"
		if s.Email == "" {
			reason = "no email collected"
		} else if s.Name == "" {
			reason = "no name collected"
		}
		rep.UnmatchedCollected = append(rep.UnmatchedCollected, UnmatchedSource{
			SourceID: s.ID, Name: s.Name, Company: s.Company, Email: s.Email,
			Reason: reason,
		})
	}
	sort.Slice(rep.UnmatchedCollected, func(i, j int) bool {
		return rep.UnmatchedCollected[i].SourceID < rep.UnmatchedCollected[j].SourceID
	})

	rep.refreshCounts()
	return rep
}
