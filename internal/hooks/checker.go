package hooks

import (
	"fmt"

	"github.com/ralphkit/ralphkit/internal/statefile"
	"github.com/ralphkit/ralphkit/internal/types"
)

// Checker turns a reviewer payload into a review marker. It is the only
// producer of the marker the push gate consumes, and it is fail-closed:
// extraction failure or an unconfirmed verdict leaves no marker behind.
type Checker struct {
	markerPath string
}

// NewChecker creates a checker writing to the given marker path
func NewChecker(markerPath string) *Checker {
	return &Checker{markerPath: markerPath}
}

// Run extracts the verdict and writes the marker only on a positive
// completeness confirmation. Any failure clears a pre-existing marker so a
// stale pass cannot outlive a failed re-check.
func (c *Checker) Run(payload []byte) (*ReviewVerdict, error) {
	verdict, err := ExtractVerdict(payload)
	if err != nil {
		_ = statefile.ClearMarker(c.markerPath)
		return nil, &types.DenialError{
			Gate:        "review-check",
			Reason:      err.Error(),
			Remediation: "re-run the reviewer and pass its full output to rk review check",
		}
	}

	if !verdict.Confirmed() {
		_ = statefile.ClearMarker(c.markerPath)
		return verdict, &types.DenialError{
			Gate:        "review-check",
			Reason:      describeIncomplete(verdict),
			Remediation: "fix the open findings and re-run: rk review check",
		}
	}

	if err := statefile.WriteMarker(c.markerPath); err != nil {
		return verdict, err
	}
	return verdict, nil
}

func describeIncomplete(v *ReviewVerdict) string {
	if v.OpenCritical != nil && v.OpenMajor != nil {
		return fmt.Sprintf("review not complete: %d open critical, %d open major finding(s)",
			*v.OpenCritical, *v.OpenMajor)
	}
	return "review verdict does not confirm completeness"
}
