package gateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dreamlog-client/pkg/errors"
)

func TestClassify_NilPassesThrough(t *testing.T) {
	assert.NoError(t, classify("set like", nil))
}

func TestClassify_DuplicateKeyBecomesConflict(t *testing.T) {
	// Arrange
	raw := errors.New(`(23505) duplicate key value violates unique constraint "likes_pkey"`)

	// Act
	err := classify("set like", raw)

	// Assert
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestClassify_NoRowsBecomesNotFound(t *testing.T) {
	// Arrange
	raw := errors.New("(PGRST116) JSON object requested, multiple (or no) rows returned")

	// Act
	err := classify("fetch entry", raw)

	// Assert
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClassify_AnythingElseBecomesRemote(t *testing.T) {
	// Arrange
	raw := errors.New("connection refused")

	// Act
	err := classify("fetch entry", raw)

	// Assert
	require.Error(t, err)
	assert.True(t, apperrors.IsRemote(err))
	assert.False(t, apperrors.IsConflict(err))
}
