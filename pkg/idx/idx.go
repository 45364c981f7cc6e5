// Package idx generates public tracking identifiers for reports.
//
// A tracking id is "RPT-" followed by a ULID. The ULID part is drawn from a
// monotonic entropy source so ids minted in the same millisecond still sort
// in creation order, and it carries no information about internal storage
// keys.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TrackingPrefix marks every public tracking id.
const TrackingPrefix = "RPT-"

// ErrInvalid reports a malformed tracking id.
var ErrInvalid = errors.New("idx: invalid tracking id")

var (
	globalOnce sync.Once
	global     *generator
)

type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *generator) newAt(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(t), g.entropy)
	if err != nil {
		// Monotonic overflow within one millisecond; fall back to fresh entropy.
		u = ulid.MustNew(ulid.Timestamp(t), rand.Reader)
	}
	return u.String()
}

func initGlobal() {
	global = &generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewTrackingID returns a fresh tracking id for the current time.
func NewTrackingID() string {
	return NewTrackingIDAt(time.Now().UTC())
}

// NewTrackingIDAt returns a tracking id whose ULID embeds t.
func NewTrackingIDAt(t time.Time) string {
	globalOnce.Do(initGlobal)
	return TrackingPrefix + global.newAt(t)
}

// ParseTrackingID normalizes user input (surrounding whitespace, lowercase
// ULID characters) and validates its form.
func ParseTrackingID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) <= len(TrackingPrefix) || !strings.EqualFold(s[:len(TrackingPrefix)], TrackingPrefix) {
		return "", ErrInvalid
	}
	body := strings.ToUpper(s[len(TrackingPrefix):])
	if _, err := ulid.ParseStrict(body); err != nil {
		return "", ErrInvalid
	}
	return TrackingPrefix + body, nil
}

// IssuedAt extracts the embedded timestamp. Invalid ids yield the zero time.
func IssuedAt(trackingID string) time.Time {
	normalized, err := ParseTrackingID(trackingID)
	if err != nil {
		return time.Time{}
	}
	u, err := ulid.ParseStrict(normalized[len(TrackingPrefix):])
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
