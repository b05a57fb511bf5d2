package hooks

import (
	"fmt"
	"os"
	"time"

	"github.com/ralphkit/ralphkit/internal/statefile"
)

// PushGate decides whether a git push may proceed. Unlike the write gate it
// is fail-closed: a push with no fresh review marker is always denied.
type PushGate struct {
	markerPath string
	window     time.Duration

	// now is swappable for tests
	now func() time.Time
}

// NewPushGate creates a push gate over the given marker path. A window of
// zero uses the default freshness window.
func NewPushGate(markerPath string, window time.Duration) *PushGate {
	if window <= 0 {
		window = statefile.DefaultMarkerWindow
	}
	return &PushGate{markerPath: markerPath, window: window, now: time.Now}
}

// Check evaluates the gate. The marker must exist, parse, and be no older
// than the freshness window.
func (g *PushGate) Check() *Decision {
	stamp, err := statefile.ReadMarker(g.markerPath)
	if os.IsNotExist(err) {
		return &Decision{
			Allowed:     false,
			Gate:        "push-gate",
			Reason:      "no review marker found, the review-completeness check has not passed",
			Remediation: "run: rk review check",
		}
	}
	if err != nil {
		return &Decision{
			Allowed:     false,
			Gate:        "push-gate",
			Reason:      err.Error(),
			Remediation: "run: rk review check",
		}
	}

	age := g.now().Sub(stamp)
	if age > g.window {
		return &Decision{
			Allowed: false,
			Gate:    "push-gate",
			Reason: fmt.Sprintf("review marker is stale: passed %s ago, freshness window is %s",
				age.Round(time.Second), g.window),
			Remediation: "re-run: rk review check",
		}
	}

	return &Decision{Allowed: true, Gate: "push-gate"}
}
