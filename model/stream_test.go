package model

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextStream_SingleConsumption(t *testing.T) {
	s := StaticStream("Sunny ", "and ", "warm")

	var got []string
	for c := range s.Chunks(context.Background()) {
		got = append(got, c)
	}

	assert.Equal(t, []string{"Sunny ", "and ", "warm"}, got)
	assert.Equal(t, "Sunny and warm", s.Text())
	assert.True(t, s.Done())

	for range s.Chunks(context.Background()) {
		t.Fatal("second range must yield nothing")
	}
}

func TestTextStream_CollectEqualsConcatenation(t *testing.T) {
	chunks := []string{"a", "", "b", "c"}
	s := StaticStream(chunks...)

	text, err := s.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strings.Join(chunks, ""), text)
}

func TestTextStream_IsLazy(t *testing.T) {
	started := false
	s := NewTextStream(func(ctx context.Context, emit func(string) bool) error {
		started = true
		emit("x")
		return nil
	})

	assert.False(t, started)
	_, err := s.Collect(context.Background())
	require.NoError(t, err)
	assert.True(t, started)
}

func TestTextStream_BreakCancelsProducer(t *testing.T) {
	var producerCtx context.Context
	s := NewTextStream(func(ctx context.Context, emit func(string) bool) error {
		producerCtx = ctx
		for _, c := range []string{"1", "2", "3"} {
			if !emit(c) {
				return ctx.Err()
			}
		}
		return nil
	})

	for c := range s.Chunks(context.Background()) {
		if c == "2" {
			break
		}
	}

	assert.Equal(t, "12", s.Text())
	assert.NoError(t, s.Err())
	assert.Error(t, producerCtx.Err())
}

func TestTextStream_ReportsProducerError(t *testing.T) {
	boom := errors.New("boom")
	s := NewTextStream(func(ctx context.Context, emit func(string) bool) error {
		emit("partial")
		return boom
	})

	text, err := s.Collect(context.Background())
	assert.Equal(t, "partial", text)
	assert.ErrorIs(t, err, boom)
}

func TestTextStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := StaticStream("a", "b").Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
