//go:build integration

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisCredentialCache_Integration(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	c := NewRedisCredentialCache(client, WithRedisLogger(zaptest.NewLogger(t)))

	got, err := c.Get(ctx, "store-a")
	require.NoError(t, err)
	assert.Nil(t, got)

	stamped := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Set(ctx, &integration.AccessCredential{ScopeID: "store-a", Token: "tok", UpdatedAt: stamped}, time.Minute))

	got, err = c.Get(ctx, "store-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok", got.Token)
	assert.True(t, stamped.Equal(got.UpdatedAt))

	ttl, err := client.TTL(ctx, "order_source:credential:store-a").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, client.Set(ctx, "order_source:credential:store-b", "{not json", time.Minute).Err())
	got, err = c.Get(ctx, "store-b")
	require.NoError(t, err)
	assert.Nil(t, got, "corrupted entry is a miss")
	exists, _ := client.Exists(ctx, "order_source:credential:store-b").Result()
	assert.Zero(t, exists)

	require.NoError(t, c.Delete(ctx, "store-a"))
	got, _ = c.Get(ctx, "store-a")
	assert.Nil(t, got)
}

func TestCredentialInvalidation_Integration(t *testing.T) {
	client := startRedis(t)
	logger := zaptest.NewLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backing := newFakeCredentialStore(&integration.AccessCredential{ScopeID: "store-a", Token: "old"})
	shared := NewRedisCredentialCache(client)

	memoryA, _ := newTestMemoryCache(t)
	memoryB, _ := newTestMemoryCache(t)
	instanceA := NewCachedCredentialStore(backing, memoryA, time.Minute,
		WithSharedCache(shared, NewRedisCredentialInvalidator(client, DefaultInvalidationChannel, "instance-a", logger)))
	instanceB := NewCachedCredentialStore(backing, memoryB, time.Minute,
		WithSharedCache(shared, NewRedisCredentialInvalidator(client, DefaultInvalidationChannel, "instance-b", logger)))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = instanceB.ListenForInvalidations(ctx)
	}()

	cred, err := instanceB.Read(ctx, "store-a")
	require.NoError(t, err)
	assert.Equal(t, "old", cred.Token)

	// give the subscription time to register before publishing
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, DefaultInvalidationChannel).Result()
		return err == nil && n[DefaultInvalidationChannel] > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, instanceA.Write(ctx, &integration.AccessCredential{ScopeID: "store-a", Token: "new"}))

	require.Eventually(t, func() bool {
		cred, err := instanceB.Read(ctx, "store-a")
		return err == nil && cred.Token == "new"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	wg.Wait()
}
