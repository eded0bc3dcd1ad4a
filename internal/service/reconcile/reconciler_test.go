package reconcile

import (
	"context"
	"testing"

	"attendance/sync/internal/entity"
	"attendance/sync/internal/pkg/config"
	"attendance/sync/internal/repository/postgres"
	"attendance/sync/internal/repository/postgres/mapping"
	"attendance/sync/internal/repository/postgres/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) GetDirectory(ctx context.Context) ([]user.DirectoryUser, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]user.DirectoryUser)
	return users, args.Error(1)
}

func (m *mockDirectory) Provision(ctx context.Context, request user.ProvisionRequest) (int, error) {
	args := m.Called(ctx, request)
	return args.Int(0), args.Error(1)
}

type mockMappings struct{ mock.Mock }

func (m *mockMappings) GetActiveByCode(ctx context.Context, code string) (entity.EmployeeMapping, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(entity.EmployeeMapping), args.Error(1)
}

func (m *mockMappings) Create(ctx context.Context, request mapping.CreateRequest) error {
	return m.Called(ctx, request).Error(0)
}

type mockQueue struct{ mock.Mock }

func (m *mockQueue) Staged(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	staged, _ := args.Get(0).(map[string]string)
	return staged, args.Error(1)
}

func (m *mockQueue) Unstage(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func (m *mockQueue) QueueReview(ctx context.Context, item ReviewItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockQueue) PendingReviews(ctx context.Context) ([]ReviewItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]ReviewItem)
	return items, args.Error(1)
}

func (m *mockQueue) RemoveReview(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

func testPolicy() config.Policy {
	return config.Policy{
		LateGrace:        "10:45",
		MinMatchScore:    0.3,
		AutoMapThreshold: 0.8,
	}
}

func TestRunAutoMapsHighConfidence(t *testing.T) {
	directory := &mockDirectory{}
	mappings := &mockMappings{}
	queue := &mockQueue{}

	directory.On("GetDirectory", mock.Anything).Return([]user.DirectoryUser{
		{ID: 7, FullName: "Aziz Karimov", Email: "aziz@corp.uz"},
		{ID: 8, FullName: "Malika Yusupova", Email: "malika@corp.uz"},
	}, nil)
	mappings.On("GetActiveByCode", mock.Anything, "E1").
		Return(entity.EmployeeMapping{}, postgres.ErrNotFound)
	mappings.On("Create", mock.Anything, mock.MatchedBy(func(r mapping.CreateRequest) bool {
		return r.VendorEmpCode == "E1" && r.UserID == 7 && r.Confidence >= 0.8
	})).Return(nil)
	queue.On("Unstage", mock.Anything, "E1").Return(nil)

	r := NewReconciler(directory, mappings, queue, zap.NewNop(), testPolicy())

	report, reviews, err := r.Run(context.Background(), []VendorEmployee{
		{Code: "E1", Name: "Aziz Karimov", Email: "aziz@corp.uz"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.AutoMapped)
	assert.Empty(t, reviews)
	mappings.AssertExpectations(t)
}

func TestRunQueuesMidScoreForReview(t *testing.T) {
	directory := &mockDirectory{}
	mappings := &mockMappings{}
	queue := &mockQueue{}

	// name-only roster: similarity must land between the thresholds
	directory.On("GetDirectory", mock.Anything).Return([]user.DirectoryUser{
		{ID: 1, FullName: "Aziza Karimova"},
		{ID: 2, FullName: "Malika Yusupova"},
	}, nil)
	mappings.On("GetActiveByCode", mock.Anything, "E2").
		Return(entity.EmployeeMapping{}, postgres.ErrNotFound)
	queue.On("QueueReview", mock.Anything, mock.MatchedBy(func(item ReviewItem) bool {
		return item.VendorEmpCode == "E2" && len(item.Candidates) == 2 &&
			item.Candidates[0].FullName == "Aziza Karimova"
	})).Return(nil)

	r := NewReconciler(directory, mappings, queue, zap.NewNop(), testPolicy())

	report, reviews, err := r.Run(context.Background(), []VendorEmployee{
		{Code: "E2", Name: "Aziz Karimov"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.ManualReview)
	require.Len(t, reviews, 1)
	best := reviews[0].Candidates[0].Score
	assert.GreaterOrEqual(t, best, 0.3)
	assert.Less(t, best, 0.8)
	mappings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunCountsNoMatch(t *testing.T) {
	directory := &mockDirectory{}
	mappings := &mockMappings{}
	queue := &mockQueue{}

	directory.On("GetDirectory", mock.Anything).Return([]user.DirectoryUser{
		{ID: 1, FullName: "Malika Yusupova"},
	}, nil)
	mappings.On("GetActiveByCode", mock.Anything, "E3").
		Return(entity.EmployeeMapping{}, postgres.ErrNotFound)

	r := NewReconciler(directory, mappings, queue, zap.NewNop(), testPolicy())

	report, _, err := r.Run(context.Background(), []VendorEmployee{
		{Code: "E3", Name: "Xyzzy Qwerty"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.NoMatch)
	mappings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	queue.AssertNotCalled(t, "QueueReview", mock.Anything, mock.Anything)
}

func TestRunProvisionsWhenPolicyAllows(t *testing.T) {
	directory := &mockDirectory{}
	mappings := &mockMappings{}
	queue := &mockQueue{}

	directory.On("GetDirectory", mock.Anything).Return([]user.DirectoryUser{}, nil)
	mappings.On("GetActiveByCode", mock.Anything, "E4").
		Return(entity.EmployeeMapping{}, postgres.ErrNotFound)
	directory.On("Provision", mock.Anything, mock.MatchedBy(func(r user.ProvisionRequest) bool {
		return r.FullName == "New Hire" && r.Password == "changeme"
	})).Return(42, nil)
	mappings.On("Create", mock.Anything, mock.MatchedBy(func(r mapping.CreateRequest) bool {
		return r.VendorEmpCode == "E4" && r.UserID == 42 && r.Confidence == 1
	})).Return(nil)
	queue.On("Unstage", mock.Anything, "E4").Return(nil)

	policy := testPolicy()
	policy.CreateMissingUsers = true
	policy.DefaultPassword = "changeme"

	r := NewReconciler(directory, mappings, queue, zap.NewNop(), policy)

	report, _, err := r.Run(context.Background(), []VendorEmployee{
		{Code: "E4", Name: "New Hire"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Provisioned)
	directory.AssertExpectations(t)
	mappings.AssertExpectations(t)
}

func TestRunAlreadyMappedIsNoOp(t *testing.T) {
	directory := &mockDirectory{}
	mappings := &mockMappings{}
	queue := &mockQueue{}

	directory.On("GetDirectory", mock.Anything).Return([]user.DirectoryUser{
		{ID: 7, FullName: "Aziz Karimov"},
	}, nil)
	mappings.On("GetActiveByCode", mock.Anything, "E1").
		Return(entity.EmployeeMapping{VendorEmpCode: "E1", UserID: 7}, nil)
	queue.On("Unstage", mock.Anything, "E1").Return(nil)

	r := NewReconciler(directory, mappings, queue, zap.NewNop(), testPolicy())

	report, _, err := r.Run(context.Background(), []VendorEmployee{
		{Code: "E1", Name: "Aziz Karimov"},
	})
	require.NoError(t, err)

	assert.Zero(t, report.AutoMapped)
	assert.Zero(t, report.NoMatch)
	mappings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunFallsBackToStagedRoster(t *testing.T) {
	directory := &mockDirectory{}
	mappings := &mockMappings{}
	queue := &mockQueue{}

	queue.On("Staged", mock.Anything).Return(map[string]string{"E9": "Ghost Employee"}, nil)
	directory.On("GetDirectory", mock.Anything).Return([]user.DirectoryUser{}, nil)
	mappings.On("GetActiveByCode", mock.Anything, "E9").
		Return(entity.EmployeeMapping{}, postgres.ErrNotFound)

	r := NewReconciler(directory, mappings, queue, zap.NewNop(), testPolicy())

	report, _, err := r.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.NoMatch)
	queue.AssertExpectations(t)
}

func TestDecide(t *testing.T) {
	mappings := &mockMappings{}
	queue := &mockQueue{}

	mappings.On("Create", mock.Anything, mapping.CreateRequest{
		VendorEmpCode: "E5",
		UserID:        11,
		Confidence:    0.55,
	}).Return(nil)
	queue.On("Unstage", mock.Anything, "E5").Return(nil)
	queue.On("RemoveReview", mock.Anything, "E5").Return(nil)

	r := NewReconciler(&mockDirectory{}, mappings, queue, zap.NewNop(), testPolicy())

	require.NoError(t, r.Decide(context.Background(), "E5", 11, true, 0.55))
	mappings.AssertExpectations(t)
	queue.AssertExpectations(t)
}

func TestDecideRejectOnlyRemoves(t *testing.T) {
	mappings := &mockMappings{}
	queue := &mockQueue{}

	queue.On("RemoveReview", mock.Anything, "E6").Return(nil)

	r := NewReconciler(&mockDirectory{}, mappings, queue, zap.NewNop(), testPolicy())

	require.NoError(t, r.Decide(context.Background(), "E6", 0, false, 0))
	mappings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	queue.AssertExpectations(t)
}
