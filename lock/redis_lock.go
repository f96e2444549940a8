package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"telehealth-scheduling-core/utils"
)

// releaseScript deletes key only if its value still matches token, making
// Release safe to call from a handle whose lease may already have expired
// and been re-acquired by someone else. Compiled once at package init and
// reused via EVALSHA, the same pattern other_examples' decrQuotaIncrQueue
// Lua script uses for its atomic operations.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// RedisLockService implements Service with a Redis SET NX PX lock,
// following the go-redis/v9 client conventions of the teacher's
// cache_service.go.
type RedisLockService struct {
	client *redis.Client
}

// NewRedisLockService wraps an existing Redis client.
func NewRedisLockService(client *redis.Client) *RedisLockService {
	return &RedisLockService{client: client}
}

func (s *RedisLockService) Acquire(ctx context.Context, key string, timeout time.Duration) (Handle, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(timeout)
	backoff := 10 * time.Millisecond

	for {
		ok, err := s.client.SetNX(ctx, key, token, timeout).Result()
		if err != nil {
			return Handle{}, fmt.Errorf("lock: redis error acquiring %s: %w", key, err)
		}
		if ok {
			return Handle{Key: key, Token: token}, nil
		}
		if time.Now().After(deadline) {
			return Handle{}, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return Handle{}, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

func (s *RedisLockService) Release(ctx context.Context, handle Handle) error {
	res, err := releaseScript.Run(ctx, s.client, []string{handle.Key}, handle.Token).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		utils.LogError(err, "failed to release redis lock", nil)
		return fmt.Errorf("lock: failed to release %s: %w", handle.Key, err)
	}
	if res == 0 {
		return ErrNotHeld
	}
	return nil
}
