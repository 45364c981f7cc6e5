package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/domain"
)

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var calls []string

	d.Subscribe(EventReportSubmitted, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventReportSubmitted, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.CustomID)
		return nil
	})
	d.Subscribe(EventReportStatusChanged, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	report := &domain.Report{ID: "r-1", CustomID: "RPT-1"}
	err := d.Publish(context.Background(), NewEvent(EventReportSubmitted, report, nil, ReportSubmittedPayload{}))
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second:RPT-1"}, calls)
}

func TestNewEventStampsIdentity(t *testing.T) {
	actor := "u-1"
	e := NewEvent(EventReportStatusChanged, &domain.Report{ID: "r-1", CustomID: "RPT-1"}, &actor, nil)
	require.NotEmpty(t, e.ID)
	require.Equal(t, "r-1", e.ReportID)
	require.Equal(t, &actor, e.ActorID)
	require.False(t, e.Timestamp.IsZero())
}
