package model

import (
	"context"
	"iter"
	"strings"
	"sync"
)

// Producer generates text chunks for a TextStream. It calls emit for every
// chunk, from its own goroutine, and stops as soon as emit returns false.
type Producer func(ctx context.Context, emit func(chunk string) bool) error

// TextStream is a lazy, finite and non-restartable sequence of text chunks.
// Nothing is generated until Chunks is ranged over; a second range yields
// nothing. The concatenation of all chunks equals Text once drained.
type TextStream struct {
	produce Producer

	mu      sync.Mutex
	started bool
	done    bool
	text    strings.Builder
	err     error
}

// NewTextStream wraps a producer.
func NewTextStream(p Producer) *TextStream {
	return &TextStream{produce: p}
}

// StaticStream returns a stream yielding the given chunks.
func StaticStream(chunks ...string) *TextStream {
	return NewTextStream(func(ctx context.Context, emit func(string) bool) error {
		for _, c := range chunks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !emit(c) {
				return nil
			}
		}
		return nil
	})
}

// Chunks returns the chunk sequence. Breaking out of the range cancels the
// producer. Errors are reported by Err after the range ends.
func (s *TextStream) Chunks(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		s.mu.Lock()
		if s.started {
			s.mu.Unlock()
			return
		}
		s.started = true
		s.mu.Unlock()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		err := s.produce(ctx, func(chunk string) bool {
			if stopped {
				return false
			}
			if chunk == "" {
				return true
			}

			s.mu.Lock()
			s.text.WriteString(chunk)
			s.mu.Unlock()

			if !yield(chunk) {
				stopped = true
				cancel()
				return false
			}
			return true
		})

		s.mu.Lock()
		defer s.mu.Unlock()
		s.done = true
		if !stopped {
			s.err = err
		}
	}
}

// Collect drains the stream and returns the full text.
func (s *TextStream) Collect(ctx context.Context) (string, error) {
	for range s.Chunks(ctx) {
	}
	return s.Text(), s.Err()
}

// Text returns the text received so far.
func (s *TextStream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Err returns the error that ended the stream, if any.
func (s *TextStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done reports whether the stream has been consumed.
func (s *TextStream) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
