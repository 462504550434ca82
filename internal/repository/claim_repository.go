package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahan/donkeywatch/internal/model"
)

const claimColumns = `
	id,
	'CLM-' || TO_CHAR(created_at, 'YYYY') || '-' || LPAD(ref_seq::text, 6, '0') AS reference,
	policy_holder,
	policy_number,
	vehicle_number,
	claim_amount,
	description,
	status,
	upload_date,
	created_at
`

type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) List(ctx context.Context) ([]model.InsuranceClaim, error) {
	var claims []model.InsuranceClaim
	err := r.db.WithContext(ctx).Raw(`
		SELECT ` + claimColumns + `
		FROM claims
		ORDER BY upload_date DESC
	`).Scan(&claims).Error
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.InsuranceClaim, error) {
	var claim model.InsuranceClaim
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+claimColumns+`
		FROM claims
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&claim).Error
	if err != nil {
		return nil, err
	}
	if claim.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &claim, nil
}

// SetStatus moves an under-review claim to a terminal status. False means the
// claim was not under review or does not exist.
func (r *ClaimRepository) SetStatus(ctx context.Context, claimID uuid.UUID, status model.ClaimStatus) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE claims
		SET status = ?
		WHERE id = ? AND status = 'under-review'
	`, status, claimID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountRecentByVehicle counts claims filed for a vehicle since the given time,
// excluding the claim being scored.
func (r *ClaimRepository) CountRecentByVehicle(ctx context.Context, vehicleNumber string, since time.Time, exclude uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM claims
		WHERE vehicle_number = ?
			AND upload_date >= ?
			AND id <> ?
	`, vehicleNumber, since, exclude).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
