package domain

import "time"

// Comment is a remark left on an entry by any user.
type Comment struct {
	ID        string    `json:"id"`
	EntryID   string    `json:"entry_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Author    *User     `json:"author,omitempty"`
}

// CommentInput is the author-supplied portion of a comment.
type CommentInput struct {
	EntryID string `json:"entry_id" validate:"required"`
	Body    string `json:"body" validate:"required,min=1,max=2000"`
}
