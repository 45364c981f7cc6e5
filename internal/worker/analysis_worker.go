package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/events"
)

// Annotator is the slice of service.AnalysisService the worker needs.
type Annotator interface {
	Enabled() bool
	AnnotateReport(ctx context.Context, reportID, imageRef string) error
}

type analysisJob struct {
	reportID string
	customID string
	imageRef string
}

// AnalysisWorker annotates freshly submitted reports with image analysis
// results. Jobs are dropped, never queued unbounded, when the buffer is full.
type AnalysisWorker struct {
	annotator Annotator
	logger    *zap.Logger
	workers   int
	timeout   time.Duration
	jobs      chan analysisJob
	wg        sync.WaitGroup
	stopOnce  sync.Once
	cancel    context.CancelFunc
}

// NewAnalysisWorker builds a worker pool with the given size and queue depth.
func NewAnalysisWorker(annotator Annotator, workers, queueSize int, timeout time.Duration, logger *zap.Logger) *AnalysisWorker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &AnalysisWorker{
		annotator: annotator,
		logger:    logger,
		workers:   workers,
		timeout:   timeout,
		jobs:      make(chan analysisJob, queueSize),
	}
}

// Register subscribes the worker to report submissions.
func (w *AnalysisWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventReportSubmitted, w.handleReportSubmitted)
}

// Start launches the worker goroutines; they stop when ctx ends or Stop is called.
func (w *AnalysisWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
	w.logger.Info("analysis worker started", zap.Int("workers", w.workers), zap.Int("queue", cap(w.jobs)))
}

// Stop cancels in-flight work and waits for the goroutines to exit.
func (w *AnalysisWorker) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		w.wg.Wait()
	})
}

func (w *AnalysisWorker) handleReportSubmitted(_ context.Context, event events.Event) error {
	if !w.annotator.Enabled() {
		return nil
	}
	payload, ok := event.Payload.(events.ReportSubmittedPayload)
	if !ok || payload.Image == "" {
		return nil
	}

	job := analysisJob{reportID: event.ReportID, customID: event.CustomID, imageRef: payload.Image}
	select {
	case w.jobs <- job:
	default:
		w.logger.Warn("analysis queue full, dropping job", zap.String("custom_id", event.CustomID))
	}
	return nil
}

func (w *AnalysisWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.process(ctx, job)
		}
	}
}

func (w *AnalysisWorker) process(ctx context.Context, job analysisJob) {
	jobCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if err := w.annotator.AnnotateReport(jobCtx, job.reportID, job.imageRef); err != nil {
		w.logger.Warn("report annotation failed", zap.String("custom_id", job.customID), zap.Error(err))
		return
	}
	w.logger.Info("report annotated", zap.String("custom_id", job.customID))
}
