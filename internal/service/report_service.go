package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sahan/donkeywatch/internal/analysis"
	"github.com/sahan/donkeywatch/internal/capture"
	"github.com/sahan/donkeywatch/internal/config"
	"github.com/sahan/donkeywatch/internal/media"
	"github.com/sahan/donkeywatch/internal/model"
)

type ReportCreator interface {
	Create(ctx context.Context, report model.ViolationReport, evidence []model.Evidence) (*model.ViolationReport, error)
}

type EvidenceStore interface {
	Save(att media.Attachment) (model.Evidence, error)
	RemoveAll(evidence []model.Evidence)
}

type AnalysisQueue interface {
	Enqueue(task analysis.Task)
}

// ReportService turns a citizen submission into a stored ViolationReport and
// hands video evidence off for analysis.
type ReportService struct {
	repo          ReportCreator
	store         EvidenceStore
	queue         AnalysisQueue
	captures      *capture.Stash
	maxFiles      int
	maxVideoBytes int64
	log           zerolog.Logger
	now           func() time.Time
}

func NewReportService(
	repo ReportCreator,
	store EvidenceStore,
	queue AnalysisQueue,
	captures *capture.Stash,
	cfg *config.Config,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		repo:          repo,
		store:         store,
		queue:         queue,
		captures:      captures,
		maxFiles:      cfg.Media.MaxFiles,
		maxVideoBytes: cfg.Media.MaxVideoBytes,
		log:           log,
		now:           time.Now,
	}
}

type SubmitReportInput struct {
	ViolationType   string
	Location        string
	Description     string
	VehicleNumber   string
	ReporterContact string
	OccurredAt      time.Time
	Attachments     []media.Attachment
	CaptureToken    string
}

type SubmitReportResult struct {
	ID        uuid.UUID `json:"id"`
	Reference string    `json:"reference"`
}

func (s *ReportService) Submit(ctx context.Context, input SubmitReportInput) (*SubmitReportResult, error) {
	violationType := model.ViolationType(strings.ToLower(strings.TrimSpace(input.ViolationType)))
	if !violationType.Valid() {
		return nil, fmt.Errorf("%w: unknown violation type %q", ErrInvalidInput, input.ViolationType)
	}
	location := strings.TrimSpace(input.Location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	attachments := input.Attachments

	// Validate the capture without consuming it, so a rejected submission
	// leaves the token redeemable for the retry.
	var captureID uuid.UUID
	hasCapture := strings.TrimSpace(input.CaptureToken) != ""
	if hasCapture {
		id, err := uuid.Parse(strings.TrimSpace(input.CaptureToken))
		if err != nil {
			return nil, fmt.Errorf("%w: malformed capture token", ErrInvalidInput)
		}
		item, ok := s.captures.Peek(id)
		if !ok {
			return nil, fmt.Errorf("%w: capture token expired or already used", ErrInvalidInput)
		}
		if err := validateAttachment(captureAttachment(item), s.maxVideoBytes); err != nil {
			return nil, err
		}
		captureID = id
	}

	total := len(attachments)
	if hasCapture {
		total++
	}
	if err := media.ValidateCount(total, s.maxFiles); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	for _, att := range attachments {
		if err := validateAttachment(att, s.maxVideoBytes); err != nil {
			return nil, err
		}
	}

	if hasCapture {
		item, ok := s.captures.Take(captureID)
		if !ok {
			return nil, fmt.Errorf("%w: capture token expired or already used", ErrInvalidInput)
		}
		attachments = append(attachments, captureAttachment(item))
	}

	stored := make([]model.Evidence, 0, len(attachments))
	for _, att := range attachments {
		item, err := s.store.Save(att)
		if err != nil {
			s.store.RemoveAll(stored)
			return nil, err
		}
		stored = append(stored, item)
	}

	mediaType := model.MediaKindPhoto
	for _, item := range stored {
		if item.Kind == model.MediaKindVideo {
			mediaType = model.MediaKindVideo
			break
		}
	}

	composed := violationType.Label() + ": " + description

	reporter := strings.TrimSpace(input.ReporterContact)
	if reporter == "" {
		reporter = "Anonymous"
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	report := model.ViolationReport{
		Type:          violationType,
		Location:      location,
		Description:   composed,
		VehicleNumber: strings.ToUpper(strings.TrimSpace(input.VehicleNumber)),
		Reporter:      reporter,
		MediaType:     mediaType,
		Status:        model.ReportStatusPending,
		OccurredAt:    occurredAt,
	}

	saved, err := s.repo.Create(ctx, report, stored)
	if err != nil {
		s.store.RemoveAll(stored)
		return nil, err
	}

	for _, item := range stored {
		if item.Kind != model.MediaKindVideo {
			continue
		}
		s.queue.Enqueue(analysis.Task{
			StoredPath:  item.StoredPath,
			FileName:    item.FileName,
			Description: composed,
		})
	}

	s.log.Info().
		Str("reference", saved.Reference).
		Str("type", string(saved.Type)).
		Int("attachments", len(stored)).
		Msg("report submitted")

	return &SubmitReportResult{ID: saved.ID, Reference: saved.Reference}, nil
}

// StashCapture stores a pre-captured file for a later submission.
func (s *ReportService) StashCapture(att media.Attachment) (uuid.UUID, error) {
	if _, err := media.KindOf(att.ContentType); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	src, err := att.Open()
	if err != nil {
		return uuid.Nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return uuid.Nil, err
	}
	return s.captures.Put(capture.Item{
		FileName:    att.FileName,
		ContentType: att.ContentType,
		Data:        data,
	}), nil
}

func validateAttachment(att media.Attachment, maxVideoBytes int64) error {
	kind, err := media.KindOf(att.ContentType)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if kind == model.MediaKindVideo {
		if err := media.ValidateVideoSize(att.FileName, att.Size, maxVideoBytes); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
	}
	return nil
}

func captureAttachment(item capture.Item) media.Attachment {
	return media.Attachment{
		FileName:    item.FileName,
		ContentType: item.ContentType,
		Size:        int64(len(item.Data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(item.Data)), nil
		},
	}
}
