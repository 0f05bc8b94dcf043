package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dreamlog-client/domain"
)

func TestDiaryRow_ToEntryClampsNegativeCounters(t *testing.T) {
	// Arrange
	row := diaryRow{
		ID:         "e1",
		UserID:     "u1",
		Title:      "t",
		Content:    "c",
		Views:      -3,
		LikesCount: -1,
	}

	// Act
	entry := row.toEntry()

	// Assert
	assert.Equal(t, 0, entry.Views)
	assert.Equal(t, 0, entry.Likes)
}

func TestDiaryRow_ToEntryMapsAIPayload(t *testing.T) {
	// Arrange
	row := diaryRow{
		ID:     "e1",
		UserID: "u1",
		AI:     &aiPayload{DreamInterpretation: "meaning", Story: "tale"},
	}

	// Act
	entry := row.toEntry()

	// Assert
	assert.Equal(t, "meaning", entry.AI.Interpretation)
	assert.Equal(t, "tale", entry.AI.Narrative)
}

func TestFollowRow_ToEdge(t *testing.T) {
	// Arrange
	row := followRow{FollowerID: "a", FollowingID: "b"}

	// Act
	edge := row.toEdge()

	// Assert
	assert.Equal(t, domain.FollowEdge{FollowerID: "a", FolloweeID: "b"}, edge)
}
