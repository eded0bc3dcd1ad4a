package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	statusKeyPrefix = "sync:status:"

	// KeyUnmapped is the hash of vendor codes seen during ticks that had
	// no active mapping, keyed code -> employee name. The bulk
	// reconciliation run consumes it.
	KeyUnmapped = "sync:unmapped"
)

// Report summarizes one pipeline execution for operators.
type Report struct {
	RunID      string    `json:"run_id"`
	StreamID   string    `json:"stream_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Fetched    int       `json:"fetched"`
	Merged     int       `json:"merged"`
	Skipped    int       `json:"skipped"`
	Unmapped   int       `json:"unmapped"`
	Errors     int       `json:"errors"`
	Cursor     string    `json:"cursor"`
	Error      string    `json:"error,omitempty"`
}

// StatusStore keeps the latest run report per stream and the staging set
// of unmapped vendor codes in Redis so the dashboard and the reconciler
// can read them without touching Postgres.
type StatusStore struct {
	rdb *redis.Client
}

func NewStatusStore(rdb *redis.Client) *StatusStore {
	return &StatusStore{rdb: rdb}
}

func (s *StatusStore) SetReport(ctx context.Context, report Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "marshalling sync report")
	}

	return errors.Wrap(
		s.rdb.Set(ctx, statusKeyPrefix+report.StreamID, body, 0).Err(),
		"storing sync report",
	)
}

func (s *StatusStore) GetReport(ctx context.Context, streamID string) (Report, error) {
	body, err := s.rdb.Get(ctx, statusKeyPrefix+streamID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Report{}, errors.Errorf("no sync report for stream %q", streamID)
	}
	if err != nil {
		return Report{}, errors.Wrap(err, "loading sync report")
	}

	var report Report
	if err = json.Unmarshal(body, &report); err != nil {
		return Report{}, errors.Wrap(err, "unmarshalling sync report")
	}

	return report, nil
}

func (s *StatusStore) StageUnmapped(ctx context.Context, code, name string) error {
	return errors.Wrap(s.rdb.HSet(ctx, KeyUnmapped, code, name).Err(), "staging unmapped code")
}
