package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTurnLimit is wrapped by ModelLimiter when the cap is exceeded.
var ErrTurnLimit = errors.New("model turn limit exceeded")

// ModelLimiter caps the number of model calls a single agent invocation may
// make. Tool-calling loops consult it before every turn so a model that keeps
// requesting tools cannot spin forever.
type ModelLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewModelLimiter creates a limiter allowing max calls. Zero means unlimited.
func NewModelLimiter(max int) *ModelLimiter {
	return &ModelLimiter{max: max}
}

// Acquire records one model call and fails once the cap is passed.
func (ml *ModelLimiter) Acquire() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.count++
	if ml.max > 0 && ml.count > ml.max {
		return fmt.Errorf("%w: %d calls allowed", ErrTurnLimit, ml.max)
	}

	return nil
}

// Count returns the number of calls recorded so far.
func (ml *ModelLimiter) Count() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	return ml.count
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (ml *ModelLimiter) Remaining() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.max == 0 {
		return -1
	}

	return max(ml.max-ml.count, 0)
}
