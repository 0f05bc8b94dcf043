// Package feed derives the ordered display list from cached state. The
// pipeline is a pure function: no side effects, and equal input state
// produces equal output, so re-rendering on every recomputation is safe.
package feed

import (
	"sort"

	"dreamlog-client/domain"
)

// Mode selects which slice of the public superset the feed shows.
type Mode string

const (
	ModeLatest    Mode = "latest"
	ModeFollowing Mode = "following"
)

// SortKey selects the ordering of the feed.
type SortKey string

const (
	SortRecency  SortKey = "recency"
	SortLikes    SortKey = "likes"
	SortViews    SortKey = "views"
	SortComments SortKey = "comments"
)

// Options are the inputs of one derivation pass.
type Options struct {
	// ViewerID excludes the viewer's own entries; those are shown in a
	// separate list.
	ViewerID string
	Mode     Mode
	Sort     SortKey
	// Search keeps only entries whose title or body contains the term.
	// Matching is case-insensitive.
	Search string
	// IsFollowing answers membership for ModeFollowing. The pipeline takes
	// the predicate rather than the cache so it stays a pure function of
	// its arguments.
	IsFollowing func(ownerID string) bool
	// Limit truncates the result when positive.
	Limit int
}

// Build produces the ordered, de-duplicated display list.
//
// Steps, in order: restrict to the public superset excluding the viewer,
// apply the following filter, apply the search term, stable-sort by the
// active key, then de-duplicate by (entry id, owner id) with the first
// occurrence winning.
func Build(entries []domain.Entry, opts Options) []domain.Entry {
	filtered := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.OwnerID == opts.ViewerID {
			continue
		}
		if !entry.Public {
			continue
		}
		if opts.Mode == ModeFollowing {
			if opts.IsFollowing == nil || !opts.IsFollowing(entry.OwnerID) {
				continue
			}
		}
		if !entry.Matches(opts.Search) {
			continue
		}
		filtered = append(filtered, entry)
	}

	sort.SliceStable(filtered, less(filtered, opts.Sort))

	out := dedupe(filtered)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// less returns the descending comparison for the active sort key. Tied keys
// fall back to the entry id so equal store state always yields the same
// order; the store hands entries out in map order, which varies per call.
func less(entries []domain.Entry, key SortKey) func(i, j int) bool {
	byID := func(i, j int) bool { return entries[i].ID < entries[j].ID }
	switch key {
	case SortLikes:
		return func(i, j int) bool {
			if entries[i].Likes != entries[j].Likes {
				return entries[i].Likes > entries[j].Likes
			}
			return byID(i, j)
		}
	case SortViews:
		return func(i, j int) bool {
			if entries[i].Views != entries[j].Views {
				return entries[i].Views > entries[j].Views
			}
			return byID(i, j)
		}
	case SortComments:
		return func(i, j int) bool {
			if entries[i].Comments != entries[j].Comments {
				return entries[i].Comments > entries[j].Comments
			}
			return byID(i, j)
		}
	default:
		return func(i, j int) bool {
			if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
				return entries[i].CreatedAt.After(entries[j].CreatedAt)
			}
			return byID(i, j)
		}
	}
}

// dedupe drops repeated (id, owner) pairs, keeping the first occurrence.
// Overlapping fetch batches can surface the same entry more than once.
func dedupe(entries []domain.Entry) []domain.Entry {
	seen := make(map[domain.Key]struct{}, len(entries))
	out := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		key := entry.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}
