package sync

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"attendance/sync/internal/entity"
	"attendance/sync/internal/repository/postgres"
	"attendance/sync/internal/repository/postgres/attendance"
	"attendance/sync/internal/service/vendor"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// VendorAPI is the slice of the vendor client the syncer needs.
type VendorAPI interface {
	FetchSince(ctx context.Context, token string) (json.RawMessage, error)
	FetchRange(ctx context.Context, from, to time.Time) (json.RawMessage, error)
}

type CursorStore interface {
	GetByStreamID(ctx context.Context, streamID string) (entity.SyncCursor, error)
	Advance(ctx context.Context, streamID, token string) error
}

type MappingStore interface {
	GetActiveByCode(ctx context.Context, vendorEmpCode string) (entity.EmployeeMapping, error)
}

type AttendanceWriter interface {
	Merge(ctx context.Context, request attendance.MergeRequest) error
}

type Reporter interface {
	SetReport(ctx context.Context, report Report) error
	StageUnmapped(ctx context.Context, code, name string) error
}

// Options tune the retry loop and lateness policy.
type Options struct {
	Retries    int
	Backoff    time.Duration
	LateCutoff string
}

// Syncer runs one pipeline execution at a time per stream: fetch,
// resolve, aggregate, merge, advance cursor.
type Syncer struct {
	vendorAPI VendorAPI
	cursors   CursorStore
	mappings  MappingStore
	writer    AttendanceWriter
	reporter  Reporter
	logger    *zap.Logger
	opts      Options

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewSyncer(
	vendorAPI VendorAPI,
	cursors CursorStore,
	mappings MappingStore,
	writer AttendanceWriter,
	reporter Reporter,
	logger *zap.Logger,
	opts Options,
) *Syncer {
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	if opts.LateCutoff == "" {
		opts.LateCutoff = "10:45"
	}

	return &Syncer{
		vendorAPI: vendorAPI,
		cursors:   cursors,
		mappings:  mappings,
		writer:    writer,
		reporter:  reporter,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
		sleep:     sleepContext,
		inFlight:  make(map[string]bool),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// TryRun starts a tick unless one is already in flight for the stream.
// A skipped tick is not queued; the next interval will pick the work up.
func (s *Syncer) TryRun(ctx context.Context, streamID string) (Report, bool, error) {
	if !s.acquire(streamID) {
		s.logger.Info("sync tick skipped, previous still in flight", zap.String("stream_id", streamID))
		return Report{}, false, nil
	}
	defer s.release(streamID)

	report, err := s.runOnce(ctx, streamID)
	return report, true, err
}

func (s *Syncer) acquire(streamID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[streamID] {
		return false
	}
	s.inFlight[streamID] = true
	return true
}

func (s *Syncer) release(streamID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, streamID)
}

func (s *Syncer) runOnce(ctx context.Context, streamID string) (Report, error) {
	started := s.now()
	report := Report{
		RunID:     uuid.NewString(),
		StreamID:  streamID,
		StartedAt: started,
	}

	finish := func(err error) (Report, error) {
		report.DurationMS = s.now().Sub(started).Milliseconds()
		if err != nil {
			report.Error = err.Error()
		}
		if rerr := s.reporter.SetReport(ctx, report); rerr != nil {
			s.logger.Warn("storing sync report failed", zap.Error(rerr))
		}
		return report, err
	}

	token, err := s.currentToken(ctx, streamID)
	if err != nil {
		// Losing the cursor store is fatal to the tick; state is left
		// untouched so the same window replays safely.
		return finish(errors.Wrap(err, "loading sync cursor"))
	}
	report.Cursor = token

	raw, err := s.fetchWithRetry(ctx, token)
	if err != nil {
		return finish(err)
	}

	events := vendor.Normalize(raw)
	report.Fetched = len(events)

	s.processEvents(ctx, events, &report)

	newToken := token
	for _, ev := range events {
		if ev.Token != "" {
			newToken = MaxTokenString(newToken, ev.Token)
		}
	}
	if err = s.cursors.Advance(ctx, streamID, newToken); err != nil {
		return finish(errors.Wrap(err, "advancing cursor"))
	}
	report.Cursor = newToken

	s.logger.Info("sync tick completed",
		zap.String("run_id", report.RunID),
		zap.String("stream_id", streamID),
		zap.Int("fetched", report.Fetched),
		zap.Int("merged", report.Merged),
		zap.Int("unmapped", report.Unmapped),
		zap.String("cursor", newToken),
	)

	return finish(nil)
}

func (s *Syncer) currentToken(ctx context.Context, streamID string) (string, error) {
	cursor, err := s.cursors.GetByStreamID(ctx, streamID)
	if errors.Is(err, postgres.ErrNotFound) {
		return BootstrapToken(s.now()).String(), nil
	}
	if err != nil {
		return "", err
	}
	return cursor.Token, nil
}

// fetchWithRetry retries transport failures with exponential backoff.
// Anything else fails the tick immediately.
func (s *Syncer) fetchWithRetry(ctx context.Context, token string) (json.RawMessage, error) {
	var lastErr error

	backoff := s.opts.Backoff
	for attempt := 0; attempt < s.opts.Retries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("retrying vendor fetch",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			if err := s.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
		}

		raw, err := s.vendorAPI.FetchSince(ctx, token)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, vendor.ErrUnavailable) {
			return nil, err
		}
		lastErr = err
	}

	return nil, errors.Wrap(lastErr, "vendor fetch retries exhausted")
}

// processEvents resolves identities, aggregates days and merges them.
// Per-record problems are absorbed and counted, never fatal to the tick.
func (s *Syncer) processEvents(ctx context.Context, events []vendor.PunchEvent, report *Report) {
	days := GroupByDay(events)

	resolved := make(map[string]int)
	for _, day := range days {
		userID, ok := resolved[day.VendorEmpCode]
		if !ok {
			m, err := s.mappings.GetActiveByCode(ctx, day.VendorEmpCode)
			if errors.Is(err, postgres.ErrNotFound) {
				report.Unmapped++
				if serr := s.reporter.StageUnmapped(ctx, day.VendorEmpCode, day.EmployeeName); serr != nil {
					s.logger.Warn("staging unmapped code failed", zap.Error(serr))
				}
				resolved[day.VendorEmpCode] = 0
				continue
			}
			if err != nil {
				report.Errors++
				s.logger.Warn("mapping lookup failed",
					zap.String("vendor_emp_code", day.VendorEmpCode),
					zap.Error(err),
				)
				continue
			}
			userID = m.UserID
			resolved[day.VendorEmpCode] = userID
		}
		if userID == 0 {
			report.Skipped++
			continue
		}

		if day.CheckInAt == nil && day.CheckOutAt == nil {
			report.Skipped++
			continue
		}

		request := attendance.MergeRequest{
			UserID:           userID,
			WorkDay:          day.WorkDay,
			CheckInAt:        day.CheckInAt,
			CheckOutAt:       day.CheckOutAt,
			TotalWorkMinutes: WorkMinutes(day.CheckInAt, day.CheckOutAt, nil, nil),
			Status:           DeriveStatus(day.CheckInAt, day.CheckOutAt),
			IsLate:           IsLate(day.CheckInAt, s.opts.LateCutoff),
			LateCutoff:       s.opts.LateCutoff,
		}

		if err := s.writer.Merge(ctx, request); err != nil {
			report.Errors++
			s.logger.Warn("merging day failed",
				zap.String("vendor_emp_code", day.VendorEmpCode),
				zap.String("work_day", day.WorkDay),
				zap.Error(err),
			)
			continue
		}
		report.Merged++
	}
}
