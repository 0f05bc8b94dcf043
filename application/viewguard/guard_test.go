package viewguard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dreamlog-client/pkg/observability"
)

func newTestGuard() *Guard {
	return NewGuard(observability.NewCollector("dreamlog"))
}

func TestShouldCount_FirstViewCounts(t *testing.T) {
	// Arrange
	guard := newTestGuard()

	// Act
	counted := guard.ShouldCount("entry-1", false)

	// Assert
	assert.True(t, counted)
	assert.True(t, guard.Counted("entry-1"))
}

func TestShouldCount_RepeatViewIsSuppressed(t *testing.T) {
	// Arrange
	guard := newTestGuard()
	guard.ShouldCount("entry-1", false)

	// Act
	counted := guard.ShouldCount("entry-1", false)

	// Assert
	assert.False(t, counted)
}

func TestShouldCount_OwnerViewNeverCounts(t *testing.T) {
	// Arrange
	guard := newTestGuard()

	// Act
	counted := guard.ShouldCount("entry-1", true)

	// Assert
	assert.False(t, counted)
	assert.False(t, guard.Counted("entry-1"), "owner views must not mark the entry")
}

func TestShouldCount_DistinctEntriesCountIndependently(t *testing.T) {
	// Arrange
	guard := newTestGuard()

	// Act
	first := guard.ShouldCount("entry-1", false)
	second := guard.ShouldCount("entry-2", false)

	// Assert
	assert.True(t, first)
	assert.True(t, second)
}

func TestReset_ClearsCountedEntries(t *testing.T) {
	// Arrange
	guard := newTestGuard()
	guard.ShouldCount("entry-1", false)

	// Act
	guard.Reset()

	// Assert
	assert.False(t, guard.Counted("entry-1"))
	assert.True(t, guard.ShouldCount("entry-1", false))
}
