package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/observability"
	"github.com/spec-kit/incident-service/internal/repository"
	"github.com/spec-kit/incident-service/internal/storage"
	"github.com/spec-kit/incident-service/pkg/idx"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

// maxTrackingIDAttempts bounds retries after a custom id collision.
const maxTrackingIDAttempts = 5

// SubmitInput carries the public report form.
type SubmitInput struct {
	Title            string  `validate:"required,min=2,max=200"`
	Description      string  `validate:"required,min=2,max=5000"`
	ReportType       string  `validate:"required"`
	Location         *string `validate:"omitempty,min=2,max=500"`
	Image            *string
	IncidentCategory *string
}

// ListFilter holds raw filter values; empty or "all" disables a field.
type ListFilter struct {
	Status     string
	ReportType string
}

// ReportDependencies groups collaborators of ReportService.
type ReportDependencies struct {
	Reports       repository.ReportRepository
	History       repository.StatusHistoryRepository
	Images        *storage.ImageStore
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	PublicListing bool
	// NewTrackingID overrides the public id generator.
	NewTrackingID func() string
}

// ReportService implements the report lifecycle and queries.
type ReportService struct {
	reports       repository.ReportRepository
	history       repository.StatusHistoryRepository
	images        *storage.ImageStore
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	publicListing bool
	newTrackingID func() string
}

// NewReportService wires the service.
func NewReportService(deps ReportDependencies) *ReportService {
	svc := &ReportService{
		reports:       deps.Reports,
		history:       deps.History,
		images:        deps.Images,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		publicListing: deps.PublicListing,
		newTrackingID: deps.NewTrackingID,
	}
	if svc.images == nil {
		svc.images = storage.NewImageStore(nil, 0)
	}
	if svc.dispatcher == nil {
		svc.dispatcher = events.NewInMemoryDispatcher(deps.Logger)
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.newTrackingID == nil {
		svc.newTrackingID = idx.NewTrackingID
	}
	return svc
}

// Submit stores a new PENDING report and returns its public tracking id.
func (s *ReportService) Submit(ctx context.Context, input SubmitInput) (string, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = trimOptional(input.Location)
	input.Image = trimOptional(input.Image)
	input.IncidentCategory = trimOptional(input.IncidentCategory)
	if err := validateStruct(input); err != nil {
		return "", err
	}

	reportType, err := domain.ParseReportType(input.ReportType)
	if err != nil {
		return "", fieldError("reportType", "must be one of EMERGENCY, NON_EMERGENCY")
	}

	var category *string
	if input.IncidentCategory != nil {
		canonical, err := domain.ParseIncidentCategory(*input.IncidentCategory)
		if err != nil {
			return "", fieldError("incidentCategory", "must be one of "+strings.Join(domain.IncidentCategories, ", "))
		}
		category = &canonical
	}

	var image *storage.Image
	if input.Image != nil {
		image, err = s.images.Decode(*input.Image)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrImageTooLarge):
				return "", fieldError("image", "is too large")
			default:
				return "", fieldError("image", "must be a base64 encoded image")
			}
		}
	}

	for attempt := 1; attempt <= maxTrackingIDAttempts; attempt++ {
		report := &domain.Report{
			CustomID:         s.newTrackingID(),
			Title:            input.Title,
			Description:      input.Description,
			ReportType:       reportType,
			IncidentCategory: category,
			Status:           domain.ReportStatusPending,
			Location:         input.Location,
		}

		if image != nil {
			ref, err := s.images.Save(ctx, report.CustomID, image)
			if err != nil {
				s.logger.Error("image upload failed", zap.String("custom_id", report.CustomID), zap.Error(err))
				return "", ErrImageUploadFailed.WithCause(err)
			}
			report.Image = &ref
		}

		err := s.reports.Create(ctx, report)
		if err == nil {
			s.metrics.Inc("reports_submitted")
			s.logger.Info("report submitted",
				zap.String("custom_id", report.CustomID),
				zap.String("report_type", string(report.ReportType)),
			)
			s.publish(ctx, events.NewEvent(events.EventReportSubmitted, report, nil, events.ReportSubmittedPayload{
				ReportType: report.ReportType,
				Title:      report.Title,
				HasImage:   report.Image != nil,
				Image:      deref(report.Image),
			}))
			return report.CustomID, nil
		}

		if report.Image != nil {
			if delErr := s.images.Delete(ctx, *report.Image); delErr != nil {
				s.logger.Warn("orphaned image cleanup failed", zap.String("ref", *report.Image), zap.Error(delErr))
			}
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return "", fmt.Errorf("create report: %w", err)
		}
		s.logger.Warn("tracking id collision, retrying",
			zap.String("custom_id", report.CustomID),
			zap.Int("attempt", attempt),
		)
	}
	return "", fmt.Errorf("create report: no unique tracking id after %d attempts", maxTrackingIDAttempts)
}

// UpdateStatus moves a report to newStatus. Any status may follow any other,
// including itself; the last write wins.
func (s *ReportService) UpdateStatus(ctx context.Context, identity *domain.Identity, customID, newStatus string) (*domain.Report, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}

	status, err := domain.ParseReportStatus(newStatus)
	if err != nil {
		return nil, ErrInvalidStatus.WithDetails(map[string]any{
			"status":  newStatus,
			"allowed": domain.ReportStatuses,
		})
	}

	normalized, err := idx.ParseTrackingID(customID)
	if err != nil {
		return nil, ErrReportNotFound
	}

	report, change, err := s.reports.UpdateStatus(ctx, normalized, status, identity.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("update report status: %w", err)
	}

	s.metrics.Inc("report_status_updates")
	s.logger.Info("report status updated",
		zap.String("custom_id", report.CustomID),
		zap.String("old_status", string(change.OldStatus)),
		zap.String("new_status", string(change.NewStatus)),
		zap.String("changed_by", identity.ID),
	)
	actor := identity.ID
	s.publish(ctx, events.NewEvent(events.EventReportStatusChanged, report, &actor, events.ReportStatusChangedPayload{
		OldStatus: change.OldStatus,
		NewStatus: change.NewStatus,
	}))
	return report, nil
}

// ListAll returns reports newest first. Without public listing enabled the
// caller must be authenticated.
func (s *ReportService) ListAll(ctx context.Context, identity *domain.Identity, filter ListFilter) ([]domain.Report, error) {
	if identity == nil && !s.publicListing {
		return nil, ErrUnauthorized
	}

	var repoFilter repository.ReportFilter
	details := map[string]any{}
	if !domain.IsFilterAll(filter.Status) {
		status, err := domain.ParseReportStatus(filter.Status)
		if err != nil {
			details["status"] = "unknown status " + filter.Status
		} else {
			repoFilter.Status = &status
		}
	}
	if !domain.IsFilterAll(filter.ReportType) {
		reportType, err := domain.ParseReportType(filter.ReportType)
		if err != nil {
			details["type"] = "unknown report type " + filter.ReportType
		} else {
			repoFilter.ReportType = &reportType
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid filter", details)
	}

	reports, err := s.reports.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// GetByID loads a report by its internal id.
func (s *ReportService) GetByID(ctx context.Context, identity *domain.Identity, id string) (*domain.Report, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	report, err := s.reports.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return report, nil
}

// TrackByPublicID looks a report up by its tracking id only. No match,
// including a malformed id or an internal id, yields (nil, nil).
func (s *ReportService) TrackByPublicID(ctx context.Context, customID string) (*domain.Report, error) {
	normalized, err := idx.ParseTrackingID(customID)
	if err != nil {
		return nil, nil
	}
	report, err := s.reports.GetByCustomID(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("track report: %w", err)
	}
	return report, nil
}

// History returns the status transitions of a report, oldest first.
func (s *ReportService) History(ctx context.Context, identity *domain.Identity, customID string) ([]domain.StatusChange, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	normalized, err := idx.ParseTrackingID(customID)
	if err != nil {
		return nil, ErrReportNotFound
	}
	report, err := s.reports.GetByCustomID(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	changes, err := s.history.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return changes, nil
}

// Annotate attaches an image analysis result to a report.
func (s *ReportService) Annotate(ctx context.Context, reportID string, analysis domain.ImageAnalysis) error {
	if err := s.reports.SaveAnalysis(ctx, reportID, analysis); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReportNotFound
		}
		return fmt.Errorf("save analysis: %w", err)
	}
	s.metrics.Inc("reports_annotated")
	return nil
}

// Dispatcher exposes the event dispatcher so workers can subscribe.
func (s *ReportService) Dispatcher() events.Dispatcher {
	return s.dispatcher
}

func (s *ReportService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
