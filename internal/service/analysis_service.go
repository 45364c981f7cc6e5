package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/analysis"
	"github.com/spec-kit/incident-service/internal/storage"
)

// ImageAnalyzer suggests report fields for an image; analysis.Client
// satisfies it.
type ImageAnalyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, imageDataURI string) (*analysis.Suggestion, error)
}

// AnalysisService serves form suggestions and annotates submitted reports.
type AnalysisService struct {
	analyzer ImageAnalyzer
	images   *storage.ImageStore
	reports  *ReportService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalysisService wires the service.
func NewAnalysisService(analyzer ImageAnalyzer, images *storage.ImageStore, reports *ReportService, logger *zap.Logger) *AnalysisService {
	if images == nil {
		images = storage.NewImageStore(nil, 0)
	}
	return &AnalysisService{
		analyzer: analyzer,
		images:   images,
		reports:  reports,
		logger:   logger,
		now:      time.Now,
	}
}

// Enabled reports whether an analyzer is configured.
func (s *AnalysisService) Enabled() bool {
	return s.analyzer != nil && s.analyzer.Enabled()
}

// Suggest validates the image and asks the analyzer for form values.
func (s *AnalysisService) Suggest(ctx context.Context, imageDataURI string) (*analysis.Suggestion, error) {
	img, err := s.images.Decode(imageDataURI)
	if err != nil {
		if errors.Is(err, storage.ErrImageTooLarge) {
			return nil, fieldError("image", "is too large")
		}
		return nil, fieldError("image", "must be a base64 encoded image")
	}
	if !s.Enabled() {
		return nil, ErrAnalysisUnavailable
	}

	suggestion, err := s.analyzer.Analyze(ctx, img.DataURI())
	if err != nil {
		s.logger.Warn("image analysis failed", zap.Error(err))
		return nil, ErrAnalysisUnavailable.WithCause(err)
	}
	return suggestion, nil
}

// AnnotateReport analyzes the stored image of a report and saves the result.
func (s *AnalysisService) AnnotateReport(ctx context.Context, reportID, imageRef string) error {
	if !s.Enabled() {
		return ErrAnalysisUnavailable
	}
	img, err := s.images.Open(ctx, imageRef)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	suggestion, err := s.analyzer.Analyze(ctx, img.DataURI())
	if err != nil {
		return fmt.Errorf("analyze image: %w", err)
	}
	return s.reports.Annotate(ctx, reportID, suggestion.Annotation(s.now()))
}
