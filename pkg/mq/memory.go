package mq

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/cespare/xxhash/v2"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const memoryPollInterval = 100 * time.Millisecond

// MemoryBackend keeps queues in process memory. Queues are shared by every Channel
// opened on the same MemoryBackend value.
type MemoryBackend struct {
	byKey      cmap.ConcurrentMap[string, *memQueue]
	byHandle   cmap.ConcurrentMap[string, *memQueue]
	nextHandle atomic.Int64
	poll       time.Duration
}

type memQueue struct {
	key    Key
	handle Handle

	mu      sync.RWMutex
	removed bool
	types   cmap.ConcurrentMap[string, *queue.Queue]
}

// Memory returns an empty in-process backend.
func Memory() *MemoryBackend {
	return &MemoryBackend{
		byKey:    cmap.New[*memQueue](),
		byHandle: cmap.New[*memQueue](),
		poll:     memoryPollInterval,
	}
}

func (b *MemoryBackend) Name() string { return "memory" }

// DeriveKey hashes the absolute token path with the seed. Like ftok it requires the path to exist.
func (b *MemoryBackend) DeriveKey(token string, seed byte) (Key, error) {
	abs, err := filepath.Abs(token)
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(abs); err != nil {
		return 0, err
	}
	sum := xxhash.Sum64String(abs + "\x00" + string([]byte{seed}))
	return Key(int32(uint32(sum))), nil
}

func (b *MemoryBackend) Open(key Key, _ os.FileMode) (Handle, error) {
	q := b.byKey.Upsert(keyString(key), nil, func(exist bool, inMap, _ *memQueue) *memQueue {
		if exist {
			return inMap
		}
		return &memQueue{
			key:    key,
			handle: Handle(b.nextHandle.Add(1)),
			types:  cmap.New[*queue.Queue](),
		}
	})
	b.byHandle.Set(handleString(q.handle), q)
	return q.handle, nil
}

func (b *MemoryBackend) Send(_ context.Context, h Handle, typ int64, text []byte) error {
	q, ok := b.byHandle.Get(handleString(h))
	if !ok {
		return fmt.Errorf("handle %d: %w", h, ErrNoQueue)
	}
	tq, err := q.typeQueue(typ)
	if err != nil {
		return err
	}
	msg := make([]byte, len(text))
	copy(msg, text)
	if err := tq.Put(msg); err != nil {
		return fmt.Errorf("handle %d: %w", h, ErrNoQueue)
	}
	return nil
}

func (b *MemoryBackend) Receive(ctx context.Context, h Handle, typ int64, text []byte) (int, error) {
	q, ok := b.byHandle.Get(handleString(h))
	if !ok {
		return 0, fmt.Errorf("handle %d: %w", h, ErrNoQueue)
	}
	tq, err := q.typeQueue(typ)
	if err != nil {
		return 0, err
	}
	for {
		items, err := tq.Poll(1, b.poll)
		switch {
		case err == queue.ErrTimeout:
			if cerr := ctx.Err(); cerr != nil {
				return 0, cerr
			}
			continue
		case err != nil:
			return 0, fmt.Errorf("handle %d removed while waiting: %w", h, ErrNoQueue)
		}
		msg := items[0].([]byte)
		if len(msg) > len(text) {
			return 0, fmt.Errorf("message of %d bytes does not fit %d byte buffer: %w", len(msg), len(text), syscall.E2BIG)
		}
		return copy(text, msg), nil
	}
}

func (b *MemoryBackend) Remove(h Handle) error {
	q, ok := b.byHandle.Pop(handleString(h))
	if !ok {
		return fmt.Errorf("handle %d: %w", h, ErrNoQueue)
	}
	b.byKey.RemoveCb(keyString(q.key), func(_ string, v *memQueue, exists bool) bool {
		return exists && v == q
	})
	q.close()
	return nil
}

// Len reports the number of queues currently alive.
func (b *MemoryBackend) Len() int {
	return b.byHandle.Count()
}

func (q *memQueue) typeQueue(typ int64) (*queue.Queue, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.removed {
		return nil, fmt.Errorf("handle %d: %w", q.handle, ErrNoQueue)
	}
	return q.types.Upsert(strconv.FormatInt(typ, 10), nil, func(exist bool, inMap, _ *queue.Queue) *queue.Queue {
		if exist {
			return inMap
		}
		return queue.New(1)
	}), nil
}

func (q *memQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removed = true
	for _, tq := range q.types.Items() {
		tq.Dispose()
	}
}

func keyString(k Key) string {
	return strconv.FormatInt(int64(k), 10)
}

func handleString(h Handle) string {
	return strconv.Itoa(int(h))
}
