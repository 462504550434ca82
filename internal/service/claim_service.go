package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahan/donkeywatch/internal/config"
	"github.com/sahan/donkeywatch/internal/model"
)

type ClaimRepository interface {
	List(ctx context.Context) ([]model.InsuranceClaim, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.InsuranceClaim, error)
	SetStatus(ctx context.Context, claimID uuid.UUID, status model.ClaimStatus) (bool, error)
	CountRecentByVehicle(ctx context.Context, vehicleNumber string, since time.Time, exclude uuid.UUID) (int64, error)
}

// ClaimService serves the insurance portal: listing claims with a computed
// suspicious score and resolving them to flagged or approved.
type ClaimService struct {
	repo            ClaimRepository
	amountThreshold float64
	recentWindow    time.Duration
	now             func() time.Time
}

func NewClaimService(repo ClaimRepository, cfg *config.Config) *ClaimService {
	return &ClaimService{
		repo:            repo,
		amountThreshold: cfg.Claims.AmountThreshold,
		recentWindow:    time.Duration(cfg.Claims.RecentWindowDays) * 24 * time.Hour,
		now:             time.Now,
	}
}

func (s *ClaimService) Claims(ctx context.Context, principal model.Principal) ([]model.InsuranceClaim, error) {
	if !principal.IsInsurer() {
		return nil, ErrPermissionDenied
	}
	claims, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range claims {
		score, err := s.score(ctx, claims[i])
		if err != nil {
			return nil, err
		}
		claims[i].SuspiciousScore = score
	}
	return claims, nil
}

func (s *ClaimService) Flag(ctx context.Context, principal model.Principal, claimID uuid.UUID) (*model.InsuranceClaim, error) {
	return s.resolve(ctx, principal, claimID, model.ClaimStatusFlagged)
}

func (s *ClaimService) Approve(ctx context.Context, principal model.Principal, claimID uuid.UUID) (*model.InsuranceClaim, error) {
	return s.resolve(ctx, principal, claimID, model.ClaimStatusApproved)
}

func (s *ClaimService) resolve(ctx context.Context, principal model.Principal, claimID uuid.UUID, status model.ClaimStatus) (*model.InsuranceClaim, error) {
	if !principal.IsInsurer() {
		return nil, ErrPermissionDenied
	}

	applied, err := s.repo.SetStatus(ctx, claimID, status)
	if err != nil {
		return nil, err
	}
	if !applied {
		if _, err := s.getClaim(ctx, claimID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyResolved
	}

	claim, err := s.getClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	score, err := s.score(ctx, *claim)
	if err != nil {
		return nil, err
	}
	claim.SuspiciousScore = score
	return claim, nil
}

func (s *ClaimService) getClaim(ctx context.Context, claimID uuid.UUID) (*model.InsuranceClaim, error) {
	claim, err := s.repo.GetByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return claim, nil
}

// score rates a claim 0..100: up to 60 for the amount over the configured
// threshold, plus 20 per other recent claim on the same vehicle, capped at 40.
func (s *ClaimService) score(ctx context.Context, claim model.InsuranceClaim) (int, error) {
	score := 0
	if over := claim.ClaimAmount - s.amountThreshold; over > 0 {
		amountComponent := int(60 * over / s.amountThreshold)
		if amountComponent > 60 {
			amountComponent = 60
		}
		score += amountComponent
	}

	recent, err := s.repo.CountRecentByVehicle(ctx, claim.VehicleNumber, s.now().Add(-s.recentWindow), claim.ID)
	if err != nil {
		return 0, err
	}
	recentComponent := int(recent) * 20
	if recentComponent > 40 {
		recentComponent = 40
	}
	score += recentComponent

	if score > 100 {
		score = 100
	}
	return score, nil
}
