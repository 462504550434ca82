package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahan/donkeywatch/internal/model"
)

const reportColumns = `
	id,
	'VR-' || LPAD(ref_seq::text, 6, '0') AS reference,
	type,
	location,
	description,
	vehicle_number,
	reporter,
	media_type,
	status,
	occurred_at,
	reviewed_by,
	reviewed_at,
	created_at
`

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts the report and its evidence rows in one transaction and
// returns the stored report with its generated reference.
func (r *ReportRepository) Create(ctx context.Context, report model.ViolationReport, evidence []model.Evidence) (*model.ViolationReport, error) {
	var saved model.ViolationReport
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO reports (
				type,
				location,
				description,
				vehicle_number,
				reporter,
				media_type,
				status,
				occurred_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING `+reportColumns,
			report.Type,
			report.Location,
			report.Description,
			report.VehicleNumber,
			report.Reporter,
			report.MediaType,
			report.Status,
			report.OccurredAt,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		for _, item := range evidence {
			if err := tx.Exec(`
				INSERT INTO report_evidence (report_id, file_name, content_type, kind, size_bytes, stored_path)
				VALUES (?, ?, ?, ?, ?, ?)
			`, saved.ID, item.FileName, item.ContentType, item.Kind, item.SizeBytes, item.StoredPath).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ViolationReport, error) {
	var report model.ViolationReport
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+reportColumns+`
		FROM reports
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&report).Error
	if err != nil {
		return nil, err
	}
	if report.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	evidence, err := r.ListEvidence(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	report.Evidence = evidence
	return &report, nil
}

func (r *ReportRepository) List(ctx context.Context) ([]model.ViolationReport, error) {
	var reports []model.ViolationReport
	err := r.db.WithContext(ctx).Raw(`
		SELECT ` + reportColumns + `
		FROM reports
		ORDER BY created_at DESC
	`).Scan(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// ListPending returns pending reports, optionally narrowed by a
// case-insensitive substring match on the violation type.
func (r *ReportRepository) ListPending(ctx context.Context, typeFilter string) ([]model.ViolationReport, error) {
	baseQuery := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE status = 'pending'
	`
	args := []interface{}{}
	if typeFilter != "" {
		baseQuery += ` AND type ILIKE '%' || ? || '%'`
		args = append(args, typeFilter)
	}
	baseQuery += ` ORDER BY created_at ASC`

	var reports []model.ViolationReport
	if err := r.db.WithContext(ctx).Raw(baseQuery, args...).Scan(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// SetStatus resolves a pending report. The update is a compare-and-set on the
// pending status; false means the report was already decided or does not exist.
func (r *ReportRepository) SetStatus(
	ctx context.Context,
	reportID uuid.UUID,
	status model.ReportStatus,
	reviewedBy uuid.UUID,
	reviewedAt time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE reports
		SET status = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND status = 'pending'
	`, status, reviewedBy, reviewedAt, reportID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReportRepository) ListEvidence(ctx context.Context, reportID uuid.UUID) ([]model.Evidence, error) {
	var evidence []model.Evidence
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, report_id, file_name, content_type, kind, size_bytes, stored_path, created_at
		FROM report_evidence
		WHERE report_id = ?
		ORDER BY created_at ASC
	`, reportID).Scan(&evidence).Error
	if err != nil {
		return nil, err
	}
	return evidence, nil
}
