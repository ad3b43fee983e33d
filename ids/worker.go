// Package ids mints globally unique, time-ordered 64-bit identifiers: a
// seconds-since-epoch segment in the high bits and a per-day Redis counter in
// the low 32. IDs are strictly increasing within a day bucket; across days
// the time segment dominates. Precondition: the clock source does not move
// backwards.
package ids

import (
	"context"
	"time"

	"github.com/malwarebo/dealhub/cache"
)

const (
	// epoch is 2023-01-01T00:00:00Z. Fixed forever; changing it would break
	// ordering against already-issued IDs.
	epoch int64 = 1672531200

	sequenceBits = 32

	keyPrefix = "icr:"

	// counterTTL keeps finished day buckets from accumulating in Redis.
	counterTTL = 48 * time.Hour
)

type Worker struct {
	store *cache.RedisCache
	now   func() time.Time
}

func NewWorker(store *cache.RedisCache) *Worker {
	return &Worker{
		store: store,
		now:   time.Now,
	}
}

// NextID returns the next identifier for the named sequence. The day-bucketed
// counter key bounds counter growth and keeps 32 sequence bits sufficient for
// realistic daily volumes.
func (w *Worker) NextID(ctx context.Context, name string) (int64, error) {
	now := w.now().UTC()
	timestamp := now.Unix() - epoch

	key := keyPrefix + name + ":" + now.Format("2006:01:02")
	sequence, err := w.store.IncrWithTTL(ctx, key, counterTTL)
	if err != nil {
		return 0, err
	}

	return timestamp<<sequenceBits | sequence, nil
}
