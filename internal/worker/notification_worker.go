package worker

import (
	"context"

	"github.com/spec-kit/incident-service/internal/events"
	"github.com/spec-kit/incident-service/internal/service"
)

// Start subscribes the notification relay and the analysis pool to report
// events on dispatcher and launches the pool. Either may be nil. The
// returned func stops the pool and waits for it.
func Start(ctx context.Context, dispatcher events.Dispatcher, notifications *service.NotificationService, analysis *AnalysisWorker) (stop func()) {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if analysis == nil {
		return func() {}
	}
	analysis.Register(dispatcher)
	analysis.Start(ctx)
	return analysis.Stop
}
