package sentinel

import (
	"sort"

	"sentinel-go/internal/store"
)

// DiffResult classifies every file of a target against its stored approved
// set. Path slices are sorted byte-wise.
type DiffResult struct {
	Unchanged []string
	Modified  []string
	Added     []string
	Removed   []string

	// NeedsReview is true iff Modified or Added is non-empty. Pure removals
	// never force re-review: there is nothing new to inspect, but they are
	// recorded so the next approved set drops them.
	NeedsReview bool

	// ShortCircuit is true when the stored aggregate hash matched the
	// current file set and the stored status was ok, in which case per-file
	// comparison was skipped entirely.
	ShortCircuit bool

	// CurrentAggregate is the aggregate hash over the current file set.
	CurrentAggregate string

	// Hashes holds the content hash of every current file, computed once
	// here and reused when finalizing the session.
	Hashes map[string]string
}

// Diff compares a target's current files against its stored metadata
// document.
func Diff(current FileSet, stored *store.MetadataDocument) DiffResult {
	res := DiffResult{Hashes: make(map[string]string, len(current))}

	pairs := make([]HashedFile, 0, len(current))
	for path, content := range current {
		hash := FileHash(content)
		res.Hashes[path] = hash
		pairs = append(pairs, HashedFile{Path: path, Hash: hash})
	}
	res.CurrentAggregate = AggregateHash(pairs)

	// Fast pre-check: if the approved set's aggregate matches the current
	// set and the last session approved everything, nothing changed.
	if stored.ModelHash == res.CurrentAggregate && stored.OverallStatus == store.StatusOk {
		for path := range current {
			res.Unchanged = append(res.Unchanged, path)
		}
		sort.Strings(res.Unchanged)
		res.ShortCircuit = true
		return res
	}

	approved := stored.ApprovedMap()

	for path, hash := range res.Hashes {
		rec, ok := approved[path]
		switch {
		case !ok:
			res.Added = append(res.Added, path)
		case rec.Hash != hash:
			res.Modified = append(res.Modified, path)
		default:
			res.Unchanged = append(res.Unchanged, path)
		}
	}

	for path := range approved {
		if _, ok := current[path]; !ok {
			res.Removed = append(res.Removed, path)
		}
	}

	sort.Strings(res.Unchanged)
	sort.Strings(res.Modified)
	sort.Strings(res.Added)
	sort.Strings(res.Removed)

	res.NeedsReview = len(res.Modified) > 0 || len(res.Added) > 0
	return res
}
