package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := NotFound("professional not found")
	wrapped := fmt.Errorf("load professional: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, base)
}

func TestKindOf_Plain(t *testing.T) {
	assert.Empty(t, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindConflict), "nil error must not match any kind")
}

func TestError_Message(t *testing.T) {
	err := Validation("slotDurationMinutes", "must be between %d and %d", 5, 120)
	assert.EqualError(t, err, "slotDurationMinutes: must be between 5 and 120")

	c := Conflict(map[string]string{"start_time": "09:00"}, "overlap")
	assert.EqualError(t, c, "overlap")
	assert.Equal(t, "09:00", c.Details["start_time"])
}
