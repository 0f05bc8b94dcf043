// Package domain holds the normalized shapes the engine operates on.
// Remote payloads are validated and converted into these types at the
// gateway boundary; nothing downstream ever sees a raw response.
package domain

import (
	"strings"
	"time"
)

// Interpretation is the AI-generated payload attached to an entry.
// Both fields are empty until a generation pass completes; once present
// they stay immutable until the next regeneration.
type Interpretation struct {
	Interpretation string `json:"interpretation"`
	Narrative      string `json:"narrative"`
}

// IsEmpty reports whether no generation pass has produced content yet.
func (i Interpretation) IsEmpty() bool {
	return i.Interpretation == "" && i.Narrative == ""
}

// Entry is one journal record owned by a user, public or private.
//
// Views, Likes and Comments are soft state mutated by the system on behalf
// of any user; IsLiked is viewer-local state resolved per session.
type Entry struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Emotion   string         `json:"emotion,omitempty"`
	// Date is the day the dream happened, as the author recorded it. It is
	// display metadata, distinct from CreatedAt.
	Date   string `json:"date,omitempty"`
	Public bool   `json:"public"`
	Views     int            `json:"views"`
	Likes     int            `json:"likes"`
	Comments  int            `json:"comments"`
	IsLiked   bool           `json:"is_liked"`
	AI        Interpretation `json:"ai"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Owner     *User          `json:"owner,omitempty"`
}

// Key identifies an entry across overlapping fetch batches. The same entry
// may arrive in more than one batch, so de-duplication keys on the
// (id, owner) pair rather than the id alone.
type Key struct {
	EntryID string
	OwnerID string
}

// Key returns the composite de-duplication key for the entry.
func (e Entry) Key() Key {
	return Key{EntryID: e.ID, OwnerID: e.OwnerID}
}

// HasInterpretation reports whether the interpretation text has arrived.
func (e Entry) HasInterpretation() bool {
	return e.AI.Interpretation != ""
}

// HasNarrative reports whether the narrative text has arrived.
func (e Entry) HasNarrative() bool {
	return e.AI.Narrative != ""
}

// Clone returns an independent copy of the entry, including the owner
// reference. Snapshots taken for rollback rely on this being a full copy.
func (e Entry) Clone() Entry {
	clone := e
	if e.Owner != nil {
		owner := *e.Owner
		clone.Owner = &owner
	}
	return clone
}

// Matches reports whether the search term occurs in the title or body.
// Matching is case-insensitive: "dream" finds "Dream logic".
func (e Entry) Matches(term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(e.Title), needle) ||
		strings.Contains(strings.ToLower(e.Body), needle)
}

// EntryInput is the owner-supplied portion of an entry, validated before a
// create or update call leaves the client.
type EntryInput struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Body    string `json:"body" validate:"required,min=1,max=20000"`
	Emotion string `json:"emotion" validate:"omitempty,max=50"`
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Public  bool   `json:"public"`
}
