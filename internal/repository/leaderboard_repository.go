package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahan/donkeywatch/internal/model"
)

type LeaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// CountsByVehicleType aggregates validated reports per vehicle and violation
// type. Reports without a plate are excluded; they cannot be attributed.
func (r *LeaderboardRepository) CountsByVehicleType(ctx context.Context) ([]model.VehicleTypeCount, error) {
	var rows []model.VehicleTypeCount
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			vehicle_number,
			type,
			COUNT(*) AS count,
			MAX(occurred_at) AS last_at
		FROM reports
		WHERE status = 'validated'
			AND vehicle_number <> ''
		GROUP BY vehicle_number, type
		ORDER BY vehicle_number ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ValidatedByVehicle returns one vehicle's validated reports, newest first,
// each with its evidence rows.
func (r *LeaderboardRepository) ValidatedByVehicle(ctx context.Context, vehicleNumber string) ([]model.ViolationReport, error) {
	var reports []model.ViolationReport
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+reportColumns+`
		FROM reports
		WHERE status = 'validated'
			AND vehicle_number = ?
		ORDER BY occurred_at DESC
	`, vehicleNumber).Scan(&reports).Error
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return reports, nil
	}

	var evidence []model.Evidence
	err = r.db.WithContext(ctx).Raw(`
		SELECT id, report_id, file_name, content_type, kind, size_bytes, stored_path, created_at
		FROM report_evidence
		WHERE report_id IN (
			SELECT id FROM reports WHERE status = 'validated' AND vehicle_number = ?
		)
		ORDER BY created_at ASC
	`, vehicleNumber).Scan(&evidence).Error
	if err != nil {
		return nil, err
	}

	byReport := make(map[uuid.UUID][]model.Evidence, len(reports))
	for _, item := range evidence {
		byReport[item.ReportID] = append(byReport[item.ReportID], item)
	}
	for i := range reports {
		reports[i].Evidence = byReport[reports[i].ID]
	}
	return reports, nil
}

// LatestLocations returns, per vehicle, the location of its most recent
// validated report.
func (r *LeaderboardRepository) LatestLocations(ctx context.Context) ([]model.VehicleLocation, error) {
	var rows []model.VehicleLocation
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (vehicle_number)
			vehicle_number,
			location
		FROM reports
		WHERE status = 'validated'
			AND vehicle_number <> ''
		ORDER BY vehicle_number ASC, occurred_at DESC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
