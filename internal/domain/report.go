package domain

import (
	"errors"
	"strings"
	"time"
)

// ReportStatus enumerates lifecycle states for reports.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "PENDING"
	ReportStatusInProgress ReportStatus = "IN_PROGRESS"
	ReportStatusResolved   ReportStatus = "RESOLVED"
	ReportStatusDismissed  ReportStatus = "DISMISSED"
)

// ReportStatuses lists every status in display order.
var ReportStatuses = []ReportStatus{
	ReportStatusPending,
	ReportStatusInProgress,
	ReportStatusResolved,
	ReportStatusDismissed,
}

// ReportType separates reports needing immediate response from the rest.
type ReportType string

const (
	ReportTypeEmergency    ReportType = "EMERGENCY"
	ReportTypeNonEmergency ReportType = "NON_EMERGENCY"
)

// ReportTypes lists every report type.
var ReportTypes = []ReportType{ReportTypeEmergency, ReportTypeNonEmergency}

// IncidentCategories is the closed list offered by the public report form.
var IncidentCategories = []string{
	"Theft",
	"Fire Outbreak",
	"Medical Emergency",
	"Natural Disaster",
	"Violence",
	"Other",
}

// FilterAll disables a list filter.
const FilterAll = "all"

var (
	ErrUnknownStatus     = errors.New("unknown report status")
	ErrUnknownReportType = errors.New("unknown report type")
	ErrUnknownCategory   = errors.New("unknown incident category")
)

// ParseReportStatus maps case-insensitive input ("in_progress", "In Progress")
// onto the enumeration.
func ParseReportStatus(raw string) (ReportStatus, error) {
	normalized := normalizeEnum(raw)
	for _, status := range ReportStatuses {
		if string(status) == normalized {
			return status, nil
		}
	}
	return "", ErrUnknownStatus
}

// ParseReportType maps case-insensitive input onto the enumeration.
func ParseReportType(raw string) (ReportType, error) {
	normalized := normalizeEnum(raw)
	for _, reportType := range ReportTypes {
		if string(reportType) == normalized {
			return reportType, nil
		}
	}
	return "", ErrUnknownReportType
}

// ParseIncidentCategory returns the canonical spelling of a known category.
func ParseIncidentCategory(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	for _, category := range IncidentCategories {
		if strings.EqualFold(category, trimmed) {
			return category, nil
		}
	}
	return "", ErrUnknownCategory
}

// IsFilterAll reports whether a filter value means "no constraint".
func IsFilterAll(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed == "" || strings.EqualFold(trimmed, FilterAll)
}

func normalizeEnum(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	upper = strings.ReplaceAll(upper, "-", "_")
	return strings.ReplaceAll(upper, " ", "_")
}

// ImageAnalysis is the best-effort annotation produced by the external
// image analysis service.
type ImageAnalysis struct {
	Title       string
	Description string
	ReportType  ReportType
	AnalyzedAt  time.Time
}

// Report is the aggregate for citizen incident reports.
type Report struct {
	ID               string
	CustomID         string
	Title            string
	Description      string
	ReportType       ReportType
	IncidentCategory *string
	Status           ReportStatus
	Location         *string
	Image            *string
	Analysis         *ImageAnalysis
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
