package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig() circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig("catalog-test")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour
	return cfg
}

func TestGuarded_OpensOnBackendFailures(t *testing.T) {
	backend := &mockProvider{err: errors.New("connection refused")}
	g := NewGuarded(backend, testBreakerConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := g.GetProduct(ctx, 1)
		require.Error(t, err)
		assert.False(t, circuitbreaker.IsOpen(err))
	}

	backend.setErr(nil)
	_, err := g.GetProduct(ctx, 1)
	require.Error(t, err)
	assert.True(t, circuitbreaker.IsOpen(err))
	assert.EqualValues(t, 2, backend.calls.Load())
}

func TestGuarded_NotFoundDoesNotTrip(t *testing.T) {
	backend := &mockProvider{err: ErrProductNotFound}
	g := NewGuarded(backend, testBreakerConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := g.GetProduct(ctx, 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
	}

	backend.setErr(nil)
	backend.product = &domain.Product{ID: 1}
	p, err := g.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
}

func TestGuarded_SizeNotFoundDoesNotTrip(t *testing.T) {
	backend := &mockProvider{err: ErrSizeNotFound}
	g := NewGuarded(backend, testBreakerConfig(), nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := g.SizePrice(ctx, 1, "XL")
		assert.ErrorIs(t, err, ErrSizeNotFound)
	}

	backend.setErr(errors.New("connection refused"))
	for i := 0; i < 2; i++ {
		_, err := g.SizePrice(ctx, 1, "M")
		assert.False(t, circuitbreaker.IsOpen(err))
	}
	_, err := g.SizePrice(ctx, 1, "M")
	assert.True(t, circuitbreaker.IsOpen(err))
}
