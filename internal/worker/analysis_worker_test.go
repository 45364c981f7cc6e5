package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/events"
)

type fakeAnnotator struct {
	mu      sync.Mutex
	enabled bool
	calls   []string
	block   chan struct{}
	err     error
}

func (f *fakeAnnotator) Enabled() bool { return f.enabled }

func (f *fakeAnnotator) AnnotateReport(ctx context.Context, reportID, imageRef string) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, reportID+"|"+imageRef)
	return f.err
}

func (f *fakeAnnotator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func submitted(id, image string) events.Event {
	return events.NewEvent(events.EventReportSubmitted, &domain.Report{ID: id, CustomID: "RPT-" + id}, nil,
		events.ReportSubmittedPayload{HasImage: image != "", Image: image})
}

func TestAnalysisWorkerAnnotatesSubmittedReports(t *testing.T) {
	annotator := &fakeAnnotator{enabled: true}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	w := NewAnalysisWorker(annotator, 2, 8, time.Second, zap.NewNop())
	w.Register(dispatcher)
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, dispatcher.Publish(context.Background(), submitted("r1", "data:image/png;base64,AAAA")))
	require.NoError(t, dispatcher.Publish(context.Background(), submitted("r2", "")))

	require.Eventually(t, func() bool { return len(annotator.Calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"r1|data:image/png;base64,AAAA"}, annotator.Calls())
}

func TestAnalysisWorkerSkipsWhenDisabled(t *testing.T) {
	annotator := &fakeAnnotator{enabled: false}
	w := NewAnalysisWorker(annotator, 1, 1, time.Second, zap.NewNop())
	require.NoError(t, w.handleReportSubmitted(context.Background(), submitted("r1", "ref")))
	require.Len(t, w.jobs, 0)
}

func TestAnalysisWorkerDropsWhenQueueFull(t *testing.T) {
	annotator := &fakeAnnotator{enabled: true}
	w := NewAnalysisWorker(annotator, 1, 1, time.Second, zap.NewNop())

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, w.handleReportSubmitted(context.Background(), submitted("r", "ref")))
	}
	require.Less(t, time.Since(start), time.Second)
	require.Len(t, w.jobs, 1)
}

func TestAnalysisWorkerFailuresAreContained(t *testing.T) {
	annotator := &fakeAnnotator{enabled: true, err: errors.New("analyzer down")}
	w := NewAnalysisWorker(annotator, 1, 4, time.Second, zap.NewNop())
	w.Start(context.Background())

	require.NoError(t, w.handleReportSubmitted(context.Background(), submitted("r1", "ref")))
	require.Eventually(t, func() bool { return len(annotator.Calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
	w.Stop()
}

func TestAnalysisWorkerStopCancelsInFlight(t *testing.T) {
	annotator := &fakeAnnotator{enabled: true, block: make(chan struct{})}
	w := NewAnalysisWorker(annotator, 1, 1, time.Minute, zap.NewNop())
	w.Start(context.Background())
	require.NoError(t, w.handleReportSubmitted(context.Background(), submitted("r1", "ref")))

	done := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
