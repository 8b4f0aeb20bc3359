// The redisutils package simplifies and automates recurring operations like
// connecting to, formatting for, and parsing from Redis.
package redisutils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProdAddress string = "localhost:6379"
	TestAddress string = "localhost:6380"
)

// SetupClient() initializes a new Redis client connected to addr.
func SetupClient(addr string) *redis.Client {
	if addr == "" {
		addr = ProdAddress
	}
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

// SetupTestClient() initializes a new Redis client for tests.
func SetupTestClient() *redis.Client {
	return SetupClient(TestAddress)
}

// Ping() returns an error if the Redis server can't be reached within one second.
func Ping(ctx context.Context, cl *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return cl.Ping(ctx).Err()
}

// CleanupRedis() cleans up the Redis database between tests to ensure isolation.
func CleanupRedis(client *redis.Client) {
	client.FlushAll(context.Background())
}
