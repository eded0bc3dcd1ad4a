package reconcile

import (
	"context"
	"time"

	"attendance/sync/internal/entity"
	"attendance/sync/internal/pkg/config"
	"attendance/sync/internal/repository/postgres"
	"attendance/sync/internal/repository/postgres/mapping"
	"attendance/sync/internal/repository/postgres/user"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const topCandidates = 5

// Directory is the read side of the internal employee directory plus the
// optional provisioning path.
type Directory interface {
	GetDirectory(ctx context.Context) ([]user.DirectoryUser, error)
	Provision(ctx context.Context, request user.ProvisionRequest) (int, error)
}

type Mappings interface {
	GetActiveByCode(ctx context.Context, vendorEmpCode string) (entity.EmployeeMapping, error)
	Create(ctx context.Context, request mapping.CreateRequest) error
}

// VendorEmployee is one unresolved vendor identity fed into a bulk run.
type VendorEmployee struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Report summarizes one bulk reconciliation run.
type Report struct {
	Processed    int       `json:"processed"`
	AutoMapped   int       `json:"auto_mapped"`
	ManualReview int       `json:"manual_review"`
	NoMatch      int       `json:"no_match"`
	Provisioned  int       `json:"provisioned"`
	Errors       int       `json:"errors"`
	RanAt        time.Time `json:"ran_at"`
}

// Reconciler resolves vendor employee codes to internal users in bulk.
// Its writes are idempotent, so it may run while the live sync tick is
// in flight.
type Reconciler struct {
	directory Directory
	mappings  Mappings
	queue     Queue
	logger    *zap.Logger
	policy    config.Policy
}

func NewReconciler(directory Directory, mappings Mappings, queue Queue, logger *zap.Logger, policy config.Policy) *Reconciler {
	return &Reconciler{
		directory: directory,
		mappings:  mappings,
		queue:     queue,
		logger:    logger,
		policy:    policy,
	}
}

// Run reconciles the given roster. With an empty roster it falls back to
// the unmapped codes staged by sync ticks. Per-employee failures are
// counted, never fatal.
func (r *Reconciler) Run(ctx context.Context, roster []VendorEmployee) (Report, []ReviewItem, error) {
	report := Report{RanAt: time.Now()}

	if len(roster) == 0 {
		staged, err := r.queue.Staged(ctx)
		if err != nil {
			return report, nil, err
		}
		for code, name := range staged {
			roster = append(roster, VendorEmployee{Code: code, Name: name})
		}
	}

	directory, err := r.directory.GetDirectory(ctx)
	if err != nil {
		return report, nil, errors.Wrap(err, "loading user directory")
	}

	var reviews []ReviewItem

	for _, emp := range roster {
		report.Processed++

		item, err := r.reconcileOne(ctx, emp, directory, &report)
		if err != nil {
			report.Errors++
			r.logger.Warn("reconciling vendor employee failed",
				zap.String("vendor_emp_code", emp.Code),
				zap.Error(err),
			)
			continue
		}
		if item != nil {
			reviews = append(reviews, *item)
		}
	}

	r.logger.Info("reconciliation run completed",
		zap.Int("processed", report.Processed),
		zap.Int("auto_mapped", report.AutoMapped),
		zap.Int("manual_review", report.ManualReview),
		zap.Int("no_match", report.NoMatch),
		zap.Int("errors", report.Errors),
	)

	return report, reviews, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, emp VendorEmployee, directory []user.DirectoryUser, report *Report) (*ReviewItem, error) {
	// Re-running on an already mapped code is a no-op.
	if _, err := r.mappings.GetActiveByCode(ctx, emp.Code); err == nil {
		if derr := r.queue.Unstage(ctx, emp.Code); derr != nil {
			r.logger.Warn("unstaging mapped code failed", zap.Error(derr))
		}
		return nil, nil
	} else if !errors.Is(err, postgres.ErrNotFound) {
		return nil, err
	}

	candidates := RankCandidates(emp.Name, emp.Email, directory)

	var best Candidate
	if len(candidates) > 0 {
		best = candidates[0]
	}

	switch {
	case len(candidates) > 0 && best.Score >= r.policy.AutoMapThreshold:
		err := r.mappings.Create(ctx, mapping.CreateRequest{
			VendorEmpCode: emp.Code,
			UserID:        best.UserID,
			Confidence:    best.Score,
		})
		if err != nil {
			return nil, err
		}
		report.AutoMapped++
		if derr := r.queue.Unstage(ctx, emp.Code); derr != nil {
			r.logger.Warn("unstaging mapped code failed", zap.Error(derr))
		}
		return nil, nil

	case len(candidates) > 0 && best.Score >= r.policy.MinMatchScore:
		top := candidates
		if len(top) > topCandidates {
			top = top[:topCandidates]
		}
		item := ReviewItem{
			VendorEmpCode: emp.Code,
			VendorName:    emp.Name,
			Candidates:    top,
			QueuedAt:      time.Now(),
		}
		if err := r.queue.QueueReview(ctx, item); err != nil {
			return nil, err
		}
		report.ManualReview++
		return &item, nil

	default:
		if r.policy.CreateMissingUsers && emp.Name != "" {
			id, err := r.directory.Provision(ctx, user.ProvisionRequest{
				FullName: emp.Name,
				Email:    emp.Email,
				Password: r.policy.DefaultPassword,
			})
			if err != nil {
				return nil, err
			}
			err = r.mappings.Create(ctx, mapping.CreateRequest{
				VendorEmpCode: emp.Code,
				UserID:        id,
				Confidence:    1,
			})
			if err != nil {
				return nil, err
			}
			report.Provisioned++
			if derr := r.queue.Unstage(ctx, emp.Code); derr != nil {
				r.logger.Warn("unstaging provisioned code failed", zap.Error(derr))
			}
			return nil, nil
		}

		report.NoMatch++
		return nil, nil
	}
}

// PendingReviews lists the queued manual-review items.
func (r *Reconciler) PendingReviews(ctx context.Context) ([]ReviewItem, error) {
	return r.queue.PendingReviews(ctx)
}

// Decide settles one manual-review item. Approving creates the mapping;
// either way the item leaves the queue.
func (r *Reconciler) Decide(ctx context.Context, vendorEmpCode string, userID int, approve bool, score float64) error {
	if approve {
		err := r.mappings.Create(ctx, mapping.CreateRequest{
			VendorEmpCode: vendorEmpCode,
			UserID:        userID,
			Confidence:    score,
		})
		if err != nil {
			return err
		}
		if derr := r.queue.Unstage(ctx, vendorEmpCode); derr != nil {
			r.logger.Warn("unstaging decided code failed", zap.Error(derr))
		}
	}

	return r.queue.RemoveReview(ctx, vendorEmpCode)
}
