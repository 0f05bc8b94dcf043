package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dreamlog-client/domain"
)

func entry(id, owner string, public bool, created time.Time) domain.Entry {
	return domain.Entry{
		ID:        id,
		OwnerID:   owner,
		Title:     "Night " + id,
		Body:      "body " + id,
		Public:    public,
		CreatedAt: created,
	}
}

var base = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func TestBuild_ExcludesOwnAndPrivateEntries(t *testing.T) {
	entries := []domain.Entry{
		entry("e1", "viewer", true, base),
		entry("e2", "other", false, base),
		entry("e3", "other", true, base),
	}

	got := Build(entries, Options{ViewerID: "viewer", Mode: ModeLatest, Sort: SortRecency})

	require.Len(t, got, 1)
	assert.Equal(t, "e3", got[0].ID)
}

func TestBuild_FollowingModeKeepsFollowedOwnersOnly(t *testing.T) {
	entries := []domain.Entry{
		entry("e1", "followed", true, base),
		entry("e2", "stranger", true, base),
	}

	got := Build(entries, Options{
		ViewerID:    "viewer",
		Mode:        ModeFollowing,
		Sort:        SortRecency,
		IsFollowing: func(ownerID string) bool { return ownerID == "followed" },
	})

	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
}

func TestBuild_SearchIsCaseInsensitive(t *testing.T) {
	e1 := entry("e1", "other", true, base)
	e1.Title = "Dream logic"
	e2 := entry("e2", "other", true, base)
	e2.Title = "Morning walk"
	e2.Body = "nothing relevant"

	got := Build([]domain.Entry{e1, e2}, Options{
		ViewerID: "viewer",
		Mode:     ModeLatest,
		Sort:     SortRecency,
		Search:   "dream",
	})

	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
}

func TestBuild_SortsByRecencyDescending(t *testing.T) {
	entries := []domain.Entry{
		entry("old", "a", true, base),
		entry("new", "b", true, base.Add(48*time.Hour)),
		entry("mid", "c", true, base.Add(24*time.Hour)),
	}

	got := Build(entries, Options{ViewerID: "viewer", Mode: ModeLatest, Sort: SortRecency})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestBuild_SortsByLikesDescending(t *testing.T) {
	e1 := entry("e1", "a", true, base)
	e1.Likes = 1
	e2 := entry("e2", "b", true, base)
	e2.Likes = 7
	e3 := entry("e3", "c", true, base)
	e3.Likes = 4

	got := Build([]domain.Entry{e1, e2, e3}, Options{ViewerID: "viewer", Mode: ModeLatest, Sort: SortLikes})

	require.Len(t, got, 3)
	assert.Equal(t, "e2", got[0].ID)
	assert.Equal(t, "e3", got[1].ID)
	assert.Equal(t, "e1", got[2].ID)
}

func TestBuild_TiedKeysOrderByIDRegardlessOfInputOrder(t *testing.T) {
	// The store hands entries out in map order, so the same state can reach
	// the pipeline in any permutation. Tied sort keys must still produce
	// the same output every time.
	var entries []domain.Entry
	for _, id := range []string{"e4", "e1", "e3", "e0", "e2"} {
		entries = append(entries, entry(id, "owner-"+id, true, base))
	}
	reversed := make([]domain.Entry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	opts := Options{ViewerID: "viewer", Mode: ModeLatest, Sort: SortRecency}

	first := Build(entries, opts)
	second := Build(reversed, opts)

	require.Len(t, first, 5)
	assert.Equal(t, first, second)
	assert.Equal(t, "e0", first[0].ID)
	assert.Equal(t, "e4", first[4].ID)
}

func TestBuild_TiedLikesOrderByID(t *testing.T) {
	e1 := entry("b-entry", "a", true, base)
	e1.Likes = 3
	e2 := entry("a-entry", "b", true, base)
	e2.Likes = 3

	got := Build([]domain.Entry{e1, e2}, Options{ViewerID: "viewer", Mode: ModeLatest, Sort: SortLikes})

	require.Len(t, got, 2)
	assert.Equal(t, "a-entry", got[0].ID)
	assert.Equal(t, "b-entry", got[1].ID)
}

func TestBuild_DedupesOnEntryAndOwnerFirstWins(t *testing.T) {
	// The same entry arriving in overlapping batches appears once, and the
	// first occurrence wins.
	e1 := entry("e1", "a", true, base)
	e1.Likes = 5
	dup := entry("e1", "a", true, base)
	dup.Likes = 2

	got := Build([]domain.Entry{e1, dup}, Options{ViewerID: "viewer", Mode: ModeLatest, Sort: SortRecency})

	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Likes)
}

func TestBuild_LimitTruncates(t *testing.T) {
	entries := []domain.Entry{
		entry("e1", "a", true, base.Add(3*time.Hour)),
		entry("e2", "b", true, base.Add(2*time.Hour)),
		entry("e3", "c", true, base.Add(1*time.Hour)),
	}

	got := Build(entries, Options{ViewerID: "viewer", Mode: ModeLatest, Sort: SortRecency, Limit: 2})

	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
}

func TestBuild_EmptyInputYieldsEmptyOutput(t *testing.T) {
	got := Build(nil, Options{ViewerID: "viewer", Mode: ModeLatest, Sort: SortRecency})
	assert.Empty(t, got)
}
