package core

import "github.com/google/uuid"

// NewID returns a new random identifier used to correlate runs, sub-tasks
// and log lines.
func NewID() string { return uuid.NewString() }
