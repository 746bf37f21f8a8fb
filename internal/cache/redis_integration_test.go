//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"tradeflow/internal/domain/domaintest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	store, err := NewRedis(ctx, "redis://"+endpoint)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedis_GenerationGuardsSet(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)

	gen, err := r.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)

	stored, err := r.Set(ctx, domaintest.Sample(), time.Minute, gen)
	require.NoError(t, err)
	require.True(t, stored)
	got, ok, err := r.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sample", got.Version)

	require.NoError(t, r.Delete(ctx))
	_, ok, err = r.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err = r.Set(ctx, domaintest.Sample(), time.Minute, gen)
	require.NoError(t, err)
	assert.False(t, stored, "generation moved on with the delete")
	_, ok, _ = r.Get(ctx)
	assert.False(t, ok)

	next, err := r.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
	stored, err = r.Set(ctx, domaintest.Sample(), time.Minute, next)
	require.NoError(t, err)
	assert.True(t, stored)
}
