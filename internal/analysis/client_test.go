package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/incident-service/internal/config"
	"github.com/spec-kit/incident-service/internal/domain"
)

func TestAnalyzeDecodesSuggestion(t *testing.T) {
	var (
		received   analyzeRequest
		authHeader string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Car fire","description":"A car is burning","reportType":"emergency"}`))
	}))
	defer server.Close()

	client := NewClient(config.AnalysisConfig{Endpoint: server.URL, APIKey: "key", TimeoutSeconds: 5})
	suggestion, err := client.Analyze(context.Background(), "data:image/png;base64,AAAA")
	require.NoError(t, err)
	require.Equal(t, "Bearer key", authHeader)
	require.Equal(t, "data:image/png;base64,AAAA", received.Image)
	require.Equal(t, "Car fire", suggestion.Title)

	annotation := suggestion.Annotation(time.Now())
	require.Equal(t, domain.ReportTypeEmergency, annotation.ReportType)
	require.Equal(t, "A car is burning", annotation.Description)
}

func TestAnalyzeSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(config.AnalysisConfig{Endpoint: server.URL, TimeoutSeconds: 5})
	_, err := client.Analyze(context.Background(), "data:image/png;base64,AAAA")
	require.Error(t, err)
}

func TestDisabledClient(t *testing.T) {
	client := NewClient(config.AnalysisConfig{})
	require.False(t, client.Enabled())
	_, err := client.Analyze(context.Background(), "x")
	require.ErrorIs(t, err, ErrDisabled)
}

func TestAnnotationDropsUnknownType(t *testing.T) {
	annotation := Suggestion{Title: " Theft ", ReportType: "Theft"}.Annotation(time.Now())
	require.Equal(t, "Theft", annotation.Title)
	require.Empty(t, annotation.ReportType)
}
