package reconcile

import (
	"context"
	"encoding/json"
	"time"

	syncsvc "attendance/sync/internal/service/sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// reviewKey is the hash of pending manual-review items, keyed by vendor
// employee code.
const reviewKey = "recon:review"

// ReviewItem is a vendor employee whose best score landed between the
// two thresholds, together with its ranked shortlist.
type ReviewItem struct {
	VendorEmpCode string      `json:"vendor_emp_code"`
	VendorName    string      `json:"vendor_name"`
	Candidates    []Candidate `json:"candidates"`
	QueuedAt      time.Time   `json:"queued_at"`
}

// Queue is the staging state shared with the sync ticks: unmapped codes
// waiting for a run, and review items waiting for a human.
type Queue interface {
	Staged(ctx context.Context) (map[string]string, error)
	Unstage(ctx context.Context, code string) error
	QueueReview(ctx context.Context, item ReviewItem) error
	PendingReviews(ctx context.Context) ([]ReviewItem, error)
	RemoveReview(ctx context.Context, code string) error
}

// RedisQueue keeps the staging state in the same Redis the sync status
// reports live in.
type RedisQueue struct {
	rdb *redis.Client
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

func (q *RedisQueue) Staged(ctx context.Context) (map[string]string, error) {
	staged, err := q.rdb.HGetAll(ctx, syncsvc.KeyUnmapped).Result()
	if err != nil {
		return nil, errors.Wrap(err, "loading staged unmapped codes")
	}
	return staged, nil
}

func (q *RedisQueue) Unstage(ctx context.Context, code string) error {
	return q.rdb.HDel(ctx, syncsvc.KeyUnmapped, code).Err()
}

func (q *RedisQueue) QueueReview(ctx context.Context, item ReviewItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return errors.Wrap(err, "marshalling review item")
	}
	return errors.Wrap(q.rdb.HSet(ctx, reviewKey, item.VendorEmpCode, body).Err(), "queueing review item")
}

func (q *RedisQueue) PendingReviews(ctx context.Context) ([]ReviewItem, error) {
	entries, err := q.rdb.HGetAll(ctx, reviewKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "loading review queue")
	}

	items := make([]ReviewItem, 0, len(entries))
	for _, body := range entries {
		var item ReviewItem
		if err := json.Unmarshal([]byte(body), &item); err != nil {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (q *RedisQueue) RemoveReview(ctx context.Context, code string) error {
	return errors.Wrap(q.rdb.HDel(ctx, reviewKey, code).Err(), "removing review item")
}
