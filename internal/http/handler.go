package http

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sahan/donkeywatch/internal/http/middleware"
	"github.com/sahan/donkeywatch/internal/media"
	"github.com/sahan/donkeywatch/internal/model"
	"github.com/sahan/donkeywatch/internal/service"
)

type RegisterExporter interface {
	Generate(reports []model.ViolationReport) ([]byte, error)
}

type DocumentExporter interface {
	Generate(report model.ViolationReport) ([]byte, error)
}

type Handler struct {
	reports     *service.ReportService
	review      *service.ReviewService
	leaderboard *service.LeaderboardService
	claims      *service.ClaimService
	register    RegisterExporter
	document    DocumentExporter
	log         zerolog.Logger
}

func NewHandler(
	reports *service.ReportService,
	review *service.ReviewService,
	leaderboard *service.LeaderboardService,
	claims *service.ClaimService,
	register RegisterExporter,
	document DocumentExporter,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		reports:     reports,
		review:      review,
		leaderboard: leaderboard,
		claims:      claims,
		register:    register,
		document:    document,
		log:         log,
	}
}

func (h *Handler) submitReport(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form expected"})
		return
	}

	occurredAt := time.Time{}
	if raw := c.PostForm("occurred_at"); strings.TrimSpace(raw) != "" {
		occurredAt, err = parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid occurred_at"})
			return
		}
	}

	attachments := make([]media.Attachment, 0, len(form.File["media"]))
	for _, header := range form.File["media"] {
		attachments = append(attachments, attachment(header))
	}

	result, err := h.reports.Submit(c.Request.Context(), service.SubmitReportInput{
		ViolationType:   c.PostForm("violation_type"),
		Location:        c.PostForm("location"),
		Description:     c.PostForm("description"),
		VehicleNumber:   c.PostForm("vehicle_number"),
		ReporterContact: c.PostForm("reporter_contact"),
		OccurredAt:      occurredAt,
		Attachments:     attachments,
		CaptureToken:    c.PostForm("capture_token"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) stashCapture(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	token, err := h.reports.StashCapture(attachment(header))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token.String()})
}

func (h *Handler) getLeaderboard(c *gin.Context) {
	board, err := h.leaderboard.Leaderboard(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *Handler) getDriverReports(c *gin.Context) {
	vehicle := c.Param("vehicle")
	reports, err := h.leaderboard.DriverReports(c.Request.Context(), vehicle)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vehicle_number": strings.ToUpper(strings.TrimSpace(vehicle)),
		"reports":        reports,
	})
}

func (h *Handler) listReports(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	reports, err := h.review.AllReports(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) pendingReports(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	reports, err := h.review.PendingQueue(c.Request.Context(), principal, strings.TrimSpace(c.Query("type")))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) getReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	report, err := h.review.GetReport(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type decisionRequest struct {
	Valid *bool `json:"valid" binding:"required"`
}

func (h *Handler) decideReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.review.Decide(c.Request.Context(), principal, id, *req.Valid)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) exportReports(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	reports, err := h.review.ValidatedReports(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	content, err := h.register.Generate(reports)
	if err != nil {
		h.handleError(c, err)
		return
	}

	fileName := "violation-register-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

func (h *Handler) exportReportPDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	report, err := h.review.GetReport(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	content, err := h.document.Generate(*report)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+report.Reference+".pdf\"")
	c.Data(http.StatusOK, "application/pdf", content)
}

func (h *Handler) listClaims(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	claims, err := h.claims.Claims(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims})
}

func (h *Handler) flagClaim(c *gin.Context) {
	h.resolveClaim(c, h.claims.Flag)
}

func (h *Handler) approveClaim(c *gin.Context) {
	h.resolveClaim(c, h.claims.Approve)
}

type claimResolver func(ctx context.Context, principal model.Principal, claimID uuid.UUID) (*model.InsuranceClaim, error)

func (h *Handler) resolveClaim(c *gin.Context, resolve claimResolver) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}

	claim, err := resolve(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyReviewed),
		errors.Is(err, service.ErrDecisionInFlight),
		errors.Is(err, service.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func attachment(header *multipart.FileHeader) media.Attachment {
	return media.Attachment{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
