package redis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	Client *redis.Client
	Ctx    = context.Background()
)

func InitRedis() {
	Client = redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_ADDR"),
		DB:   0,
	})

	// Test connection
	_, err := Client.Ping(Ctx).Result()
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	fmt.Println("✅ Connected to Redis")
}

// AcquireJobLock claims a named batch-job lock with SETNX. The expiry/payout
// jobs take it before scanning so overlapping trigger invocations cannot run
// the same job concurrently; the TTL guards against a crashed holder.
func AcquireJobLock(name string, ttl time.Duration) (bool, error) {
	return Client.SetNX(Ctx, "lock:"+name, time.Now().Unix(), ttl).Result()
}

// ReleaseJobLock drops a lock taken with AcquireJobLock.
func ReleaseJobLock(name string) {
	Client.Del(Ctx, "lock:"+name)
}

// CachePendingPayment mirrors a pending payment reference for quick webhook
// lookups. The DB row stays authoritative; the cache entry just expires on
// its own.
func CachePendingPayment(reference string, userID uint, ttl time.Duration) error {
	return Client.Set(Ctx, "pending_payment:"+reference, userID, ttl).Err()
}
