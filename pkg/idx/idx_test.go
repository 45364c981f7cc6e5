package idx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/incident-service/pkg/idx"
)

func TestNewTrackingIDParses(t *testing.T) {
	id := idx.NewTrackingID()
	require.True(t, strings.HasPrefix(id, idx.TrackingPrefix))

	parsed, err := idx.ParseTrackingID(id)
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestTrackingIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := idx.NewTrackingID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestParseTrackingIDNormalizesCase(t *testing.T) {
	id := idx.NewTrackingID()

	parsed, err := idx.ParseTrackingID("  " + strings.ToLower(id) + " ")
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseTrackingIDRejectsGarbage(t *testing.T) {
	for _, input := range []string{
		"",
		"RPT-",
		"does-not-exist",
		"0b9a3c7e-5d7c-4a53-9c55-6c3b3c0f2a11",
		"RPT-not-a-ulid",
		"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
	} {
		_, err := idx.ParseTrackingID(input)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", input)
	}
}

func TestIssuedAt(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewTrackingIDAt(tm)

	require.WithinDuration(t, tm, idx.IssuedAt(id), time.Millisecond)
	require.True(t, idx.IssuedAt("garbage").IsZero())
}
