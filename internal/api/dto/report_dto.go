package dto

import (
	"time"

	"github.com/spec-kit/incident-service/internal/domain"
)

// SubmitReportRequest is the public report form.
type SubmitReportRequest struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	ReportType       string  `json:"reportType"`
	Location         *string `json:"location"`
	Image            *string `json:"image"`
	IncidentCategory *string `json:"incidentCategory"`
}

// SubmitReportResponse only ever carries the tracking id.
type SubmitReportResponse struct {
	Success  bool   `json:"success"`
	CustomID string `json:"customId"`
}

// UpdateStatusRequest payload for PATCH /reports/:customId/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AnalyzeImageRequest payload for POST /reports/analyze-image.
type AnalyzeImageRequest struct {
	Image string `json:"image"`
}

// AnalyzeImageResponse carries the suggested form values.
type AnalyzeImageResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ReportType  string `json:"reportType"`
}

// PublicReport is what anonymous trackers see. It never includes the
// internal id.
type PublicReport struct {
	CustomID         string    `json:"customId"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ReportType       string    `json:"reportType"`
	IncidentCategory *string   `json:"incidentCategory,omitempty"`
	Status           string    `json:"status"`
	Location         *string   `json:"location,omitempty"`
	HasImage         bool      `json:"hasImage"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AnalysisResponse is the stored image annotation.
type AnalysisResponse struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ReportType  string    `json:"reportType,omitempty"`
	AnalyzedAt  time.Time `json:"analyzedAt"`
}

// ReportResponse is the operator view of a report.
type ReportResponse struct {
	ID               string            `json:"id"`
	CustomID         string            `json:"customId"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	ReportType       string            `json:"reportType"`
	IncidentCategory *string           `json:"incidentCategory,omitempty"`
	Status           string            `json:"status"`
	Location         *string           `json:"location,omitempty"`
	Image            *string           `json:"image,omitempty"`
	Analysis         *AnalysisResponse `json:"analysis,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// StatusChangeResponse is one entry of a report's history.
type StatusChangeResponse struct {
	ID        string    `json:"id"`
	ChangedBy string    `json:"changedBy"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewPublicReport projects a report for public tracking.
func NewPublicReport(report *domain.Report) PublicReport {
	return PublicReport{
		CustomID:         report.CustomID,
		Title:            report.Title,
		Description:      report.Description,
		ReportType:       string(report.ReportType),
		IncidentCategory: report.IncidentCategory,
		Status:           string(report.Status),
		Location:         report.Location,
		HasImage:         report.Image != nil,
		CreatedAt:        report.CreatedAt,
		UpdatedAt:        report.UpdatedAt,
	}
}

// NewReportResponse projects a report for operators.
func NewReportResponse(report *domain.Report) ReportResponse {
	resp := ReportResponse{
		ID:               report.ID,
		CustomID:         report.CustomID,
		Title:            report.Title,
		Description:      report.Description,
		ReportType:       string(report.ReportType),
		IncidentCategory: report.IncidentCategory,
		Status:           string(report.Status),
		Location:         report.Location,
		Image:            report.Image,
		CreatedAt:        report.CreatedAt,
		UpdatedAt:        report.UpdatedAt,
	}
	if report.Analysis != nil {
		resp.Analysis = &AnalysisResponse{
			Title:       report.Analysis.Title,
			Description: report.Analysis.Description,
			ReportType:  string(report.Analysis.ReportType),
			AnalyzedAt:  report.Analysis.AnalyzedAt,
		}
	}
	return resp
}

// NewReportList projects a slice of reports.
func NewReportList(reports []domain.Report) []ReportResponse {
	items := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, NewReportResponse(&reports[i]))
	}
	return items
}

// NewStatusChangeList projects a report history.
func NewStatusChangeList(changes []domain.StatusChange) []StatusChangeResponse {
	items := make([]StatusChangeResponse, 0, len(changes))
	for _, change := range changes {
		items = append(items, StatusChangeResponse{
			ID:        change.ID,
			ChangedBy: change.ChangedBy,
			OldStatus: string(change.OldStatus),
			NewStatus: string(change.NewStatus),
			CreatedAt: change.CreatedAt,
		})
	}
	return items
}
