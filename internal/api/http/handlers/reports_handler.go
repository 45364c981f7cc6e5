package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/dto"
	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/service"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

// ReportsHandler serves public submission and tracking plus operator endpoints.
type ReportsHandler struct {
	reports  *service.ReportService
	analysis *service.AnalysisService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService, analysis *service.AnalysisService) *ReportsHandler {
	return &ReportsHandler{reports: reports, analysis: analysis}
}

// Submit POST /reports.
func (h *ReportsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	customID, err := h.reports.Submit(c.UserContext(), service.SubmitInput{
		Title:            req.Title,
		Description:      req.Description,
		ReportType:       req.ReportType,
		Location:         req.Location,
		Image:            req.Image,
		IncidentCategory: req.IncidentCategory,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.SubmitReportResponse{Success: true, CustomID: customID})
}

// Track GET /reports/track/:customId. An unknown id yields data null.
func (h *ReportsHandler) Track(c *fiber.Ctx) error {
	report, err := h.reports.TrackByPublicID(c.UserContext(), c.Params("customId"))
	if err != nil {
		return err
	}
	if report == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.NewPublicReport(report)})
}

// AnalyzeImage POST /reports/analyze-image.
func (h *ReportsHandler) AnalyzeImage(c *fiber.Ctx) error {
	var req dto.AnalyzeImageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if h.analysis == nil {
		return service.ErrAnalysisUnavailable
	}
	suggestion, err := h.analysis.Suggest(c.UserContext(), req.Image)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AnalyzeImageResponse{
		Title:       suggestion.Title,
		Description: suggestion.Description,
		ReportType:  suggestion.ReportType,
	}})
}

// List GET /reports?status=&type=.
func (h *ReportsHandler) List(c *fiber.Ctx) error {
	reports, err := h.reports.ListAll(c.UserContext(), auth.IdentityFromContext(c), service.ListFilter{
		Status:     c.Query("status"),
		ReportType: c.Query("type"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReportList(reports)})
}

// Get GET /reports/:id.
func (h *ReportsHandler) Get(c *fiber.Ctx) error {
	report, err := h.reports.GetByID(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// UpdateStatus PATCH /reports/:customId/status.
func (h *ReportsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	report, err := h.reports.UpdateStatus(c.UserContext(), auth.IdentityFromContext(c), c.Params("customId"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// History GET /reports/:customId/history.
func (h *ReportsHandler) History(c *fiber.Ctx) error {
	changes, err := h.reports.History(c.UserContext(), auth.IdentityFromContext(c), c.Params("customId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusChangeList(changes)})
}
