package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahan/donkeywatch/internal/model"
)

type ReviewRepository interface {
	List(ctx context.Context) ([]model.ViolationReport, error)
	ListPending(ctx context.Context, typeFilter string) ([]model.ViolationReport, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.ViolationReport, error)
	SetStatus(ctx context.Context, reportID uuid.UUID, status model.ReportStatus, reviewedBy uuid.UUID, reviewedAt time.Time) (bool, error)
}

// ReviewService owns the pending queue and the single pending -> decided
// transition. A per-report in-flight set blocks a second concurrent decision
// for the same report; decisions for different reports proceed independently.
type ReviewService struct {
	repo ReviewRepository
	now  func() time.Time

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewReviewService(repo ReviewRepository) *ReviewService {
	return &ReviewService{
		repo:     repo,
		now:      time.Now,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

func (s *ReviewService) AllReports(ctx context.Context, principal model.Principal) ([]model.ViolationReport, error) {
	if !principal.IsPolice() {
		return nil, ErrPermissionDenied
	}
	return s.repo.List(ctx)
}

func (s *ReviewService) PendingQueue(ctx context.Context, principal model.Principal, typeFilter string) ([]model.ViolationReport, error) {
	if !principal.IsPolice() {
		return nil, ErrPermissionDenied
	}
	if typeFilter == "all" {
		typeFilter = ""
	}
	return s.repo.ListPending(ctx, typeFilter)
}

// ValidatedReports returns the register of confirmed violations, newest first
// as listed by the store.
func (s *ReviewService) ValidatedReports(ctx context.Context, principal model.Principal) ([]model.ViolationReport, error) {
	if !principal.IsPolice() {
		return nil, ErrPermissionDenied
	}
	reports, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	validated := make([]model.ViolationReport, 0, len(reports))
	for _, report := range reports {
		if report.Status == model.ReportStatusValidated {
			validated = append(validated, report)
		}
	}
	return validated, nil
}

func (s *ReviewService) GetReport(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.ViolationReport, error) {
	if !principal.IsPolice() {
		return nil, ErrPermissionDenied
	}
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return report, nil
}

// Decide resolves a pending report to validated or rejected. The transition is
// one-shot: a decided report returns ErrAlreadyReviewed, and a decision already
// in flight for the same report returns ErrDecisionInFlight. On any error the
// in-flight marker is cleared so the decision can be retried immediately.
func (s *ReviewService) Decide(ctx context.Context, principal model.Principal, reportID uuid.UUID, valid bool) (*model.ViolationReport, error) {
	if !principal.IsPolice() {
		return nil, ErrPermissionDenied
	}

	if !s.begin(reportID) {
		return nil, ErrDecisionInFlight
	}
	defer s.end(reportID)

	status := model.ReportStatusRejected
	if valid {
		status = model.ReportStatusValidated
	}

	applied, err := s.repo.SetStatus(ctx, reportID, status, principal.UserID, s.now())
	if err != nil {
		return nil, err
	}
	if !applied {
		report, getErr := s.repo.GetByID(ctx, reportID)
		if getErr != nil {
			if errors.Is(getErr, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, getErr
		}
		if report.Status.Terminal() {
			return nil, ErrAlreadyReviewed
		}
		return nil, ErrNotFound
	}

	return s.repo.GetByID(ctx, reportID)
}

func (s *ReviewService) begin(reportID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[reportID]; busy {
		return false
	}
	s.inFlight[reportID] = struct{}{}
	return true
}

func (s *ReviewService) end(reportID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, reportID)
}
