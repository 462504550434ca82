package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sahan/donkeywatch/internal/analysis"
	"github.com/sahan/donkeywatch/internal/auth"
	"github.com/sahan/donkeywatch/internal/capture"
	"github.com/sahan/donkeywatch/internal/config"
	"github.com/sahan/donkeywatch/internal/excel"
	httphandler "github.com/sahan/donkeywatch/internal/http"
	"github.com/sahan/donkeywatch/internal/http/middleware"
	"github.com/sahan/donkeywatch/internal/media"
	"github.com/sahan/donkeywatch/internal/model"
	"github.com/sahan/donkeywatch/internal/pdf"
	"github.com/sahan/donkeywatch/internal/service"
)

const testSecret = "handler-test-secret"

// memoryReportRepo backs both the submission and review services in tests.
type memoryReportRepo struct {
	mu      sync.Mutex
	seq     int
	reports map[uuid.UUID]*model.ViolationReport
}

func newMemoryReportRepo() *memoryReportRepo {
	return &memoryReportRepo{reports: make(map[uuid.UUID]*model.ViolationReport)}
}

func (m *memoryReportRepo) Create(_ context.Context, report model.ViolationReport, evidence []model.Evidence) (*model.ViolationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	saved := report
	saved.ID = uuid.New()
	saved.Reference = fmt.Sprintf("VR-%06d", m.seq)
	saved.CreatedAt = time.Now()
	saved.Evidence = evidence
	m.reports[saved.ID] = &saved
	return &saved, nil
}

func (m *memoryReportRepo) List(context.Context) ([]model.ViolationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ViolationReport, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memoryReportRepo) ListPending(_ context.Context, _ string) ([]model.ViolationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ViolationReport, 0)
	for _, r := range m.reports {
		if r.Status == model.ReportStatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryReportRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ViolationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memoryReportRepo) SetStatus(_ context.Context, id uuid.UUID, status model.ReportStatus, reviewedBy uuid.UUID, reviewedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || r.Status != model.ReportStatusPending {
		return false, nil
	}
	r.Status = status
	r.ReviewedBy = &reviewedBy
	r.ReviewedAt = &reviewedAt
	return true, nil
}

type memoryLeaderboardRepo struct{}

func (memoryLeaderboardRepo) CountsByVehicleType(context.Context) ([]model.VehicleTypeCount, error) {
	return []model.VehicleTypeCount{
		{VehicleNumber: "CAB-1234", Type: model.ViolationSpeeding, Count: 2, LastAt: time.Now()},
	}, nil
}

func (memoryLeaderboardRepo) LatestLocations(context.Context) ([]model.VehicleLocation, error) {
	return []model.VehicleLocation{{VehicleNumber: "CAB-1234", Location: "Colombo"}}, nil
}

func (memoryLeaderboardRepo) ValidatedByVehicle(_ context.Context, vehicleNumber string) ([]model.ViolationReport, error) {
	if vehicleNumber != "CAB-1234" {
		return nil, nil
	}
	return []model.ViolationReport{
		{
			Reference:     "VR-000005",
			Type:          model.ViolationSpeeding,
			VehicleNumber: "CAB-1234",
			Status:        model.ReportStatusValidated,
			Evidence:      []model.Evidence{{FileName: "clip.mp4", Kind: model.MediaKindVideo}},
		},
	}, nil
}

type memoryClaimRepo struct {
	mu     sync.Mutex
	claims map[uuid.UUID]*model.InsuranceClaim
}

func newMemoryClaimRepo() *memoryClaimRepo {
	return &memoryClaimRepo{claims: make(map[uuid.UUID]*model.InsuranceClaim)}
}

func (m *memoryClaimRepo) add(status model.ClaimStatus) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.claims[id] = &model.InsuranceClaim{ID: id, VehicleNumber: "CAB-1234", ClaimAmount: 1000, Status: status}
	return id
}

func (m *memoryClaimRepo) List(context.Context) ([]model.InsuranceClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.InsuranceClaim, 0, len(m.claims))
	for _, c := range m.claims {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memoryClaimRepo) GetByID(_ context.Context, id uuid.UUID) (*model.InsuranceClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *memoryClaimRepo) SetStatus(_ context.Context, id uuid.UUID, status model.ClaimStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok || c.Status != model.ClaimStatusUnderReview {
		return false, nil
	}
	c.Status = status
	return true, nil
}

func (m *memoryClaimRepo) CountRecentByVehicle(context.Context, string, time.Time, uuid.UUID) (int64, error) {
	return 0, nil
}

type env struct {
	router     http.Handler
	reportRepo *memoryReportRepo
	claimRepo  *memoryClaimRepo
}

func setup(t *testing.T) *env {
	t.Helper()

	cfg := &config.Config{
		Media:  config.MediaConfig{Dir: t.TempDir(), MaxFiles: 5, MaxVideoBytes: 30 * 1024 * 1024},
		Claims: config.ClaimsConfig{AmountThreshold: 100000, RecentWindowDays: 30},
	}

	store, err := media.NewStore(cfg.Media.Dir)
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	forwarder := analysis.NewForwarder("", 1, 1, time.Second, zerolog.Nop())
	t.Cleanup(forwarder.Close)

	reportRepo := newMemoryReportRepo()
	claimRepo := newMemoryClaimRepo()

	reports := service.NewReportService(reportRepo, store, forwarder, capture.NewStash(time.Minute), cfg, zerolog.Nop())
	review := service.NewReviewService(reportRepo)
	leaderboard := service.NewLeaderboardService(memoryLeaderboardRepo{})
	claims := service.NewClaimService(claimRepo, cfg)

	handler := httphandler.NewHandler(reports, review, leaderboard, claims, excel.NewGenerator(), pdf.NewGenerator(), zerolog.Nop())
	authMiddleware := middleware.Auth(auth.NewParser(testSecret))
	router := httphandler.NewRouter(handler, authMiddleware, "test")

	return &env{router: router, reportRepo: reportRepo, claimRepo: claimRepo}
}

func bearer(t *testing.T, role model.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func submitForm(t *testing.T, fields map[string]string, withPhoto bool) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		_ = writer.WriteField(key, value)
	}
	if withPhoto {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="media"; filename="photo.jpg"`)
		header.Set("Content-Type", "image/jpeg")
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write([]byte("jpeg-bytes"))
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestSubmitReport_ReturnsReference(t *testing.T) {
	e := setup(t)

	body, contentType := submitForm(t, map[string]string{
		"violation_type": "speeding",
		"location":       "Galle Road, Colombo",
		"description":    "test",
	}, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Reference != "VR-000001" {
		t.Errorf("reference = %q", result.Reference)
	}
}

func TestSubmitReport_MissingMediaIsRejected(t *testing.T) {
	e := setup(t)

	body, contentType := submitForm(t, map[string]string{
		"violation_type": "speeding",
		"location":       "x",
		"description":    "y",
	}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListReports_RequiresToken(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPendingReports_CitizenForbidden(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/pending", nil)
	req.Header.Set("Authorization", bearer(t, model.RoleCitizen))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestDecision_OneShot(t *testing.T) {
	e := setup(t)
	saved, err := e.reportRepo.Create(context.Background(), model.ViolationReport{
		Type:   model.ViolationSpeeding,
		Status: model.ReportStatusPending,
	}, nil)
	if err != nil {
		t.Fatalf("seed report: %v", err)
	}

	decide := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/v1/reports/"+saved.ID.String()+"/decision",
			bytes.NewReader([]byte(`{"valid": true}`)),
		)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, model.RolePolice))
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		return rec
	}

	if rec := decide(); rec.Code != http.StatusOK {
		t.Fatalf("first decision status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec := decide(); rec.Code != http.StatusConflict {
		t.Errorf("second decision status = %d, want 409", rec.Code)
	}
}

func TestLeaderboard_IsPublic(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var board model.Leaderboard
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if len(board.Drivers) != 1 || board.Drivers[0].Rank != 1 {
		t.Errorf("unexpected board: %+v", board)
	}
}

func TestDriverReports_IsPublic(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drivers/cab-1234/reports", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result struct {
		VehicleNumber string                  `json:"vehicle_number"`
		Reports       []model.ViolationReport `json:"reports"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.VehicleNumber != "CAB-1234" {
		t.Errorf("vehicle_number = %q", result.VehicleNumber)
	}
	if len(result.Reports) != 1 || result.Reports[0].Reference != "VR-000005" {
		t.Fatalf("reports = %+v", result.Reports)
	}
	if len(result.Reports[0].Evidence) != 1 {
		t.Errorf("evidence missing from driver report: %+v", result.Reports[0])
	}
}

func TestFlagClaim_RoleAndTransition(t *testing.T) {
	e := setup(t)
	id := e.claimRepo.add(model.ClaimStatusUnderReview)

	flag := func(role model.Role) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/claims/"+id.String()+"/flag", nil)
		req.Header.Set("Authorization", bearer(t, role))
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		return rec
	}

	if rec := flag(model.RolePolice); rec.Code != http.StatusForbidden {
		t.Errorf("police flagging a claim: status = %d, want 403", rec.Code)
	}
	if rec := flag(model.RoleInsurer); rec.Code != http.StatusOK {
		t.Fatalf("insurer flag status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec := flag(model.RoleInsurer); rec.Code != http.StatusConflict {
		t.Errorf("re-flag status = %d, want 409", rec.Code)
	}
}

func TestExportReports_ReturnsWorkbook(t *testing.T) {
	e := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/export", nil)
	req.Header.Set("Authorization", bearer(t, model.RolePolice))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty workbook body")
	}
}
