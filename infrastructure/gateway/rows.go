package gateway

import (
	"time"

	"dreamlog-client/domain"
)

// Wire shapes of the Supabase tables. Rows are normalized into domain
// types before they leave this package; raw payloads never reach the
// entry store.

type aiPayload struct {
	DreamInterpretation string `json:"dream_interpretation"`
	Story               string `json:"story"`
}

type diaryRow struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Emotion       string     `json:"emotion"`
	Date          string     `json:"date"`
	IsPublic      bool       `json:"is_public"`
	Views         int        `json:"views"`
	LikesCount    int        `json:"likes_count"`
	CommentsCount int        `json:"comments_count"`
	AI            *aiPayload `json:"ai_interpretation"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type userRow struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type likeRow struct {
	DiaryID string `json:"diary_id"`
	UserID  string `json:"user_id"`
}

type followRow struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

type commentRow struct {
	ID        string    `json:"id"`
	DiaryID   string    `json:"diary_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// toEntry normalizes a diary row. Counters are clamped to zero; a row with
// a negative counter would otherwise poison every derived view.
func (r diaryRow) toEntry() domain.Entry {
	entry := domain.Entry{
		ID:        r.ID,
		OwnerID:   r.UserID,
		Title:     r.Title,
		Body:      r.Content,
		Emotion:   r.Emotion,
		Date:      r.Date,
		Public:    r.IsPublic,
		Views:     max(r.Views, 0),
		Likes:     max(r.LikesCount, 0),
		Comments:  max(r.CommentsCount, 0),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.AI != nil {
		entry.AI = domain.Interpretation{
			Interpretation: r.AI.DreamInterpretation,
			Narrative:      r.AI.Story,
		}
	}
	return entry
}

func (r userRow) toUser() domain.User {
	return domain.User{
		ID:        r.ID,
		Handle:    r.Nickname,
		Email:     r.Email,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r followRow) toEdge() domain.FollowEdge {
	return domain.FollowEdge{
		FollowerID: r.FollowerID,
		FolloweeID: r.FollowingID,
	}
}

func (r commentRow) toComment() domain.Comment {
	return domain.Comment{
		ID:        r.ID,
		EntryID:   r.DiaryID,
		AuthorID:  r.UserID,
		Body:      r.Content,
		CreatedAt: r.CreatedAt,
	}
}
