package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/service"
)

type capturePublisher struct {
	published chan string
}

func (p *capturePublisher) Publish(_ context.Context, _ string, _ []byte, attrs map[string]string) (string, error) {
	p.published <- attrs["event_type"]
	return "1", nil
}

func TestStartWiresRelayAndAnalysis(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	publisher := &capturePublisher{published: make(chan string, 1)}
	notifications := service.NewNotificationService(dispatcher, publisher, "report-events", zap.NewNop())
	annotator := &fakeAnnotator{enabled: true}
	analysis := NewAnalysisWorker(annotator, 1, 4, time.Second, zap.NewNop())

	stop := Start(context.Background(), dispatcher, notifications, analysis)
	defer stop()

	require.NoError(t, dispatcher.Publish(context.Background(), submitted("r1", "data:image/png;base64,AAAA")))
	require.Equal(t, string(events.EventReportSubmitted), <-publisher.published)
	require.Eventually(t, func() bool { return len(annotator.Calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestStartWithoutAnalysis(t *testing.T) {
	stop := Start(context.Background(), events.NewInMemoryDispatcher(zap.NewNop()), nil, nil)
	require.NotNil(t, stop)
	stop()
}
