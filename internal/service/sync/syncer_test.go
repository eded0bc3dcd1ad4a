package sync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"attendance/sync/internal/entity"
	"attendance/sync/internal/repository/postgres"
	"attendance/sync/internal/repository/postgres/attendance"
	"attendance/sync/internal/service/vendor"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockVendorAPI struct{ mock.Mock }

func (m *mockVendorAPI) FetchSince(ctx context.Context, token string) (json.RawMessage, error) {
	args := m.Called(ctx, token)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockVendorAPI) FetchRange(ctx context.Context, from, to time.Time) (json.RawMessage, error) {
	args := m.Called(ctx, from, to)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

type mockCursorStore struct{ mock.Mock }

func (m *mockCursorStore) GetByStreamID(ctx context.Context, streamID string) (entity.SyncCursor, error) {
	args := m.Called(ctx, streamID)
	return args.Get(0).(entity.SyncCursor), args.Error(1)
}

func (m *mockCursorStore) Advance(ctx context.Context, streamID, token string) error {
	return m.Called(ctx, streamID, token).Error(0)
}

type mockMappingStore struct{ mock.Mock }

func (m *mockMappingStore) GetActiveByCode(ctx context.Context, code string) (entity.EmployeeMapping, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(entity.EmployeeMapping), args.Error(1)
}

type mockWriter struct{ mock.Mock }

func (m *mockWriter) Merge(ctx context.Context, request attendance.MergeRequest) error {
	return m.Called(ctx, request).Error(0)
}

type mockReporter struct{ mock.Mock }

func (m *mockReporter) SetReport(ctx context.Context, report Report) error {
	return m.Called(ctx, report).Error(0)
}

func (m *mockReporter) StageUnmapped(ctx context.Context, code, name string) error {
	return m.Called(ctx, code, name).Error(0)
}

func newTestSyncer(api *mockVendorAPI, cursors *mockCursorStore, mappings *mockMappingStore, writer *mockWriter, reporter *mockReporter) *Syncer {
	s := NewSyncer(api, cursors, mappings, writer, reporter, zap.NewNop(), Options{
		Retries:    3,
		Backoff:    time.Millisecond,
		LateCutoff: "10:45",
	})
	s.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return s
}

func TestTryRunAdvancesCursorToMaxToken(t *testing.T) {
	api := &mockVendorAPI{}
	cursors := &mockCursorStore{}
	mappings := &mockMappingStore{}
	writer := &mockWriter{}
	reporter := &mockReporter{}

	cursors.On("GetByStreamID", mock.Anything, "vendor-live").
		Return(entity.SyncCursor{StreamID: "vendor-live", Token: "062025$100"}, nil)

	batch := json.RawMessage(`[
		{"Id": 101, "EmpCode": "E1", "Name": "Aziz", "PunchDate": "19/06/2025_09:00:00", "Direction": "IN"},
		{"Id": 103, "EmpCode": "E1", "Name": "Aziz", "PunchDate": "19/06/2025_18:00:00", "Direction": "OUT"},
		{"Id": 102, "EmpCode": "E1", "Name": "Aziz", "PunchDate": "19/06/2025_13:00:00", "Direction": "OUT"}
	]`)
	api.On("FetchSince", mock.Anything, "062025$100").Return(batch, nil)

	mappings.On("GetActiveByCode", mock.Anything, "E1").
		Return(entity.EmployeeMapping{VendorEmpCode: "E1", UserID: 7}, nil)

	writer.On("Merge", mock.Anything, mock.MatchedBy(func(r attendance.MergeRequest) bool {
		return r.UserID == 7 &&
			r.WorkDay == "2025-06-19" &&
			r.Status == entity.StatusCompleted &&
			r.TotalWorkMinutes != nil && *r.TotalWorkMinutes == 540 &&
			!r.IsLate
	})).Return(nil)

	cursors.On("Advance", mock.Anything, "vendor-live", "062025$103").Return(nil)
	reporter.On("SetReport", mock.Anything, mock.Anything).Return(nil)

	s := newTestSyncer(api, cursors, mappings, writer, reporter)

	report, ran, err := s.TryRun(context.Background(), "vendor-live")
	require.NoError(t, err)
	require.True(t, ran)

	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 1, report.Merged)
	assert.Equal(t, "062025$103", report.Cursor)

	cursors.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestTryRunBootstrapsCursor(t *testing.T) {
	api := &mockVendorAPI{}
	cursors := &mockCursorStore{}
	mappings := &mockMappingStore{}
	writer := &mockWriter{}
	reporter := &mockReporter{}

	cursors.On("GetByStreamID", mock.Anything, "vendor-live").
		Return(entity.SyncCursor{}, postgres.ErrNotFound)
	api.On("FetchSince", mock.Anything, "062025$0").Return(json.RawMessage(`[]`), nil)
	cursors.On("Advance", mock.Anything, "vendor-live", "062025$0").Return(nil)
	reporter.On("SetReport", mock.Anything, mock.Anything).Return(nil)

	s := newTestSyncer(api, cursors, mappings, writer, reporter)
	s.now = func() time.Time { return time.Date(2025, 6, 19, 12, 0, 0, 0, time.UTC) }

	_, ran, err := s.TryRun(context.Background(), "vendor-live")
	require.NoError(t, err)
	require.True(t, ran)
	cursors.AssertExpectations(t)
}

func TestTryRunCursorUntouchedOnFetchFailure(t *testing.T) {
	api := &mockVendorAPI{}
	cursors := &mockCursorStore{}
	mappings := &mockMappingStore{}
	writer := &mockWriter{}
	reporter := &mockReporter{}

	cursors.On("GetByStreamID", mock.Anything, "vendor-live").
		Return(entity.SyncCursor{StreamID: "vendor-live", Token: "062025$100"}, nil)
	api.On("FetchSince", mock.Anything, "062025$100").
		Return(json.RawMessage(nil), errors.Wrap(vendor.ErrUnavailable, "dial tcp"))
	reporter.On("SetReport", mock.Anything, mock.Anything).Return(nil)

	s := newTestSyncer(api, cursors, mappings, writer, reporter)

	_, ran, err := s.TryRun(context.Background(), "vendor-live")
	require.Error(t, err)
	require.True(t, ran)

	api.AssertNumberOfCalls(t, "FetchSince", 3)
	cursors.AssertNotCalled(t, "Advance", mock.Anything, mock.Anything, mock.Anything)
	writer.AssertNotCalled(t, "Merge", mock.Anything, mock.Anything)
}

func TestTryRunNonTransientFetchErrorFailsFast(t *testing.T) {
	api := &mockVendorAPI{}
	cursors := &mockCursorStore{}
	mappings := &mockMappingStore{}
	writer := &mockWriter{}
	reporter := &mockReporter{}

	cursors.On("GetByStreamID", mock.Anything, "vendor-live").
		Return(entity.SyncCursor{StreamID: "vendor-live", Token: "062025$100"}, nil)
	api.On("FetchSince", mock.Anything, "062025$100").
		Return(json.RawMessage(nil), errors.New("vendor request failed with status 401"))
	reporter.On("SetReport", mock.Anything, mock.Anything).Return(nil)

	s := newTestSyncer(api, cursors, mappings, writer, reporter)

	_, _, err := s.TryRun(context.Background(), "vendor-live")
	require.Error(t, err)
	api.AssertNumberOfCalls(t, "FetchSince", 1)
}

func TestTryRunStagesUnmappedCodes(t *testing.T) {
	api := &mockVendorAPI{}
	cursors := &mockCursorStore{}
	mappings := &mockMappingStore{}
	writer := &mockWriter{}
	reporter := &mockReporter{}

	cursors.On("GetByStreamID", mock.Anything, "vendor-live").
		Return(entity.SyncCursor{StreamID: "vendor-live", Token: "062025$100"}, nil)

	batch := json.RawMessage(`[
		{"Id": 101, "EmpCode": "GHOST", "Name": "New Hire", "PunchDate": "19/06/2025_09:00:00", "Direction": "IN"}
	]`)
	api.On("FetchSince", mock.Anything, "062025$100").Return(batch, nil)
	mappings.On("GetActiveByCode", mock.Anything, "GHOST").
		Return(entity.EmployeeMapping{}, postgres.ErrNotFound)
	reporter.On("StageUnmapped", mock.Anything, "GHOST", "New Hire").Return(nil)
	cursors.On("Advance", mock.Anything, "vendor-live", "062025$101").Return(nil)
	reporter.On("SetReport", mock.Anything, mock.Anything).Return(nil)

	s := newTestSyncer(api, cursors, mappings, writer, reporter)

	report, _, err := s.TryRun(context.Background(), "vendor-live")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Unmapped)
	assert.Zero(t, report.Merged)
	reporter.AssertExpectations(t)
	writer.AssertNotCalled(t, "Merge", mock.Anything, mock.Anything)
}

func TestTryRunSkipsWhenInFlight(t *testing.T) {
	api := &mockVendorAPI{}
	cursors := &mockCursorStore{}
	mappings := &mockMappingStore{}
	writer := &mockWriter{}
	reporter := &mockReporter{}

	s := newTestSyncer(api, cursors, mappings, writer, reporter)
	require.True(t, s.acquire("vendor-live"))
	defer s.release("vendor-live")

	_, ran, err := s.TryRun(context.Background(), "vendor-live")
	require.NoError(t, err)
	assert.False(t, ran)
	cursors.AssertNotCalled(t, "GetByStreamID", mock.Anything, mock.Anything)
}

func TestBackfillNeverTouchesCursor(t *testing.T) {
	api := &mockVendorAPI{}
	cursors := &mockCursorStore{}
	mappings := &mockMappingStore{}
	writer := &mockWriter{}
	reporter := &mockReporter{}

	day1 := json.RawMessage(`[
		{"Id": 1, "EmpCode": "E1", "PunchDate": "10/06/2025_09:00:00", "Direction": "IN"},
		{"Id": 2, "EmpCode": "E1", "PunchDate": "10/06/2025_18:00:00", "Direction": "OUT"}
	]`)
	api.On("FetchRange", mock.Anything, mock.Anything, mock.Anything).Return(day1, nil).Once()
	api.On("FetchRange", mock.Anything, mock.Anything, mock.Anything).
		Return(json.RawMessage(nil), errors.Wrap(vendor.ErrUnavailable, "boom")).Once()

	mappings.On("GetActiveByCode", mock.Anything, "E1").
		Return(entity.EmployeeMapping{VendorEmpCode: "E1", UserID: 3}, nil)
	writer.On("Merge", mock.Anything, mock.Anything).Return(nil)

	s := newTestSyncer(api, cursors, mappings, writer, reporter)

	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 6, 11, 0, 0, 0, 0, time.Local)

	report, ran, err := s.Backfill(context.Background(), start, end)
	require.NoError(t, err)
	require.True(t, ran)

	assert.Equal(t, 1, report.Days)
	assert.Equal(t, []string{"2025-06-11"}, report.FailedDays)
	assert.Equal(t, 1, report.Merged)

	cursors.AssertNotCalled(t, "Advance", mock.Anything, mock.Anything, mock.Anything)
	cursors.AssertNotCalled(t, "GetByStreamID", mock.Anything, mock.Anything)
}

func TestBackfillRejectsInvertedRange(t *testing.T) {
	s := newTestSyncer(&mockVendorAPI{}, &mockCursorStore{}, &mockMappingStore{}, &mockWriter{}, &mockReporter{})

	start := time.Date(2025, 6, 11, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, -1)

	_, _, err := s.Backfill(context.Background(), start, end)
	require.Error(t, err)
}
