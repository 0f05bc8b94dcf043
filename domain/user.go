package domain

import "time"

// User is a participant in the social graph. Only the handle is mutable.
type User struct {
	ID        string    `json:"id"`
	Handle    string    `json:"handle"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FollowEdge is an ordered (follower, followee) pair. At most one edge may
// exist per pair; self-edges are excluded by convention upstream.
type FollowEdge struct {
	FollowerID string `json:"follower_id"`
	FolloweeID string `json:"followee_id"`
}

// SocialStats carries the display-only counters of a third-party user.
// They are fetched lazily and may be stale.
type SocialStats struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// LikeState is the authoritative like counter a gateway may return after a
// like mutation or a dedicated lookup.
type LikeState struct {
	Count   int  `json:"count"`
	IsLiked bool `json:"is_liked"`
}
