package circuitbreaker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")
var errMissing = errors.New("missing")

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 3
	cfg.Timeout = time.Hour
	b := New[int](cfg)

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (int, error) { return 0, errBackend })
		require.ErrorIs(t, err, errBackend)
	}

	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Execute(func() (int, error) { return 1, nil })
	require.Error(t, err)
	assert.True(t, IsOpen(err))
	assert.True(t, IsOpen(fmt.Errorf("wrapped: %w", err)))
}

func TestBreaker_IsSuccessfulIgnoresExpectedErrors(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 2
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errMissing)
	}
	b := New[string](cfg)

	for i := 0; i < 5; i++ {
		_, err := b.Execute(func() (string, error) { return "", errMissing })
		require.ErrorIs(t, err, errMissing)
	}

	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_PassesResult(t *testing.T) {
	b := New[string](DefaultConfig("test"))

	v, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.False(t, IsOpen(err))
}
