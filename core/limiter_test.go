package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelLimiter(t *testing.T) {
	l := NewModelLimiter(2)

	assert.NoError(t, l.Acquire())
	assert.NoError(t, l.Acquire())
	assert.Equal(t, 0, l.Remaining())

	err := l.Acquire()
	assert.ErrorIs(t, err, ErrTurnLimit)
	assert.Equal(t, 3, l.Count())
}

func TestModelLimiter_Unlimited(t *testing.T) {
	l := NewModelLimiter(0)
	for range 50 {
		assert.NoError(t, l.Acquire())
	}
	assert.Equal(t, -1, l.Remaining())
}
