package shows_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/models"
	"ms-showbooking/internal/shows"
)

func startRedis(t *testing.T) *redis.Client {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	client := startRedis(t)
	defer client.Close()

	cache := shows.NewCache(client, time.Minute, logger.NewNop())
	ctx := context.Background()

	show := &models.Show{
		ID:             uuid.New().String(),
		Name:           "Cached Show",
		StartTime:      time.Now().UTC().Add(time.Hour).Truncate(time.Second),
		TotalSeats:     20,
		AvailableSeats: 20,
	}

	// Miss before set.
	_, ok := cache.GetShow(ctx, show.ID)
	assert.False(t, ok)

	cache.SetShow(ctx, show)
	got, ok := cache.GetShow(ctx, show.ID)
	require.True(t, ok)
	assert.Equal(t, show.ID, got.ID)
	assert.Equal(t, show.Name, got.Name)

	cache.SetShowList(ctx, []models.Show{*show})
	list, ok := cache.GetShowList(ctx)
	require.True(t, ok)
	require.Len(t, list, 1)

	// Invalidation drops both the entry and the list.
	cache.InvalidateShow(ctx, show.ID)
	_, ok = cache.GetShow(ctx, show.ID)
	assert.False(t, ok)
	_, ok = cache.GetShowList(ctx)
	assert.False(t, ok)
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *shows.Cache
	ctx := context.Background()

	// Every operation on an absent cache is a safe no-op.
	_, ok := cache.GetShow(ctx, "x")
	assert.False(t, ok)
	_, ok = cache.GetShowList(ctx)
	assert.False(t, ok)
	cache.SetShow(ctx, &models.Show{ID: "x"})
	cache.SetShowList(ctx, nil)
	cache.InvalidateShow(ctx, "x")
}
