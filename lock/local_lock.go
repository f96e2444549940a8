package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// entry pairs a per-key mutex with a last-used timestamp so the cleanup
// sweep can evict keys nobody has touched recently, following the
// mutexWithTimestamp pattern used for per-schedule locking elsewhere in the
// pack.
type entry struct {
	mu       sync.Mutex
	lastUsed atomic.Int64
	holder   string // current token, empty when unlocked
}

// LocalLockService is an in-process Service for single-node deployments and
// tests, avoiding a Redis dependency when there's only one scheduling
// process to coordinate.
type LocalLockService struct {
	entries sync.Map // key string -> *entry
	done    chan struct{}
}

// NewLocalLockService starts a LocalLockService with a background sweep
// that evicts unlocked, stale entries every interval.
func NewLocalLockService(sweepInterval time.Duration) *LocalLockService {
	s := &LocalLockService{done: make(chan struct{})}
	go s.sweepLoop(sweepInterval)
	return s
}

// Close stops the background sweep goroutine.
func (s *LocalLockService) Close() {
	close(s.done)
}

func (s *LocalLockService) sweepLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(interval * 10)
		}
	}
}

func (s *LocalLockService) sweep(staleAfter time.Duration) {
	cutoff := time.Now().Add(-staleAfter).UnixNano()
	s.entries.Range(func(key, value any) bool {
		e := value.(*entry)
		if e.lastUsed.Load() > cutoff {
			return true
		}
		if e.mu.TryLock() {
			if e.holder == "" && e.lastUsed.Load() <= cutoff {
				s.entries.Delete(key)
			}
			e.mu.Unlock()
		}
		return true
	})
}

func (s *LocalLockService) entryFor(key string) *entry {
	v, _ := s.entries.LoadOrStore(key, &entry{})
	return v.(*entry)
}

// Acquire polls TryLock rather than blocking on mu.Lock so a caller that
// gives up on timeout never leaves a goroutine waiting to take ownership
// behind its back.
func (s *LocalLockService) Acquire(ctx context.Context, key string, timeout time.Duration) (Handle, error) {
	e := s.entryFor(key)
	deadline := time.Now().Add(timeout)
	backoff := time.Millisecond
	for {
		if e.mu.TryLock() {
			token := uuid.NewString()
			e.holder = token
			e.lastUsed.Store(time.Now().UnixNano())
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
		if backoff < 20*time.Millisecond {
			backoff *= 2
		}
	}
}

func (s *LocalLockService) Release(_ context.Context, handle Handle) error {
	v, ok := s.entries.Load(handle.Key)
	if !ok {
		return ErrNotHeld
	}
	e := v.(*entry)
	if e.holder != handle.Token {
		return ErrNotHeld
	}
	e.holder = ""
	e.lastUsed.Store(time.Now().UnixNano())
	e.mu.Unlock()
	return nil
}
