package statefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MarkerFileName is the per-project review marker artifact
const MarkerFileName = "review-passed"

// DefaultMarkerWindow is how long a review marker stays fresh enough to
// permit a push.
const DefaultMarkerWindow = 30 * time.Minute

// MarkerPath returns the project's standard review marker path
func MarkerPath(projectDir string) string {
	return filepath.Join(projectDir, ".ralphkit", MarkerFileName)
}

// WriteMarker records that a review-completeness check passed just now.
// The file holds a bare ISO-8601 timestamp.
func WriteMarker(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}
	stamp := time.Now().UTC().Format(time.RFC3339)
	if err := os.WriteFile(path, []byte(stamp+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write review marker: %w", err)
	}
	return nil
}

// ReadMarker parses the marker timestamp. A missing file returns
// os.ErrNotExist; malformed content is an error (the push gate is
// fail-closed, so corruption must not look like freshness).
func ReadMarker(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	stamp, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed review marker: %w", err)
	}
	return stamp, nil
}

// ClearMarker removes the marker. A missing file is not an error.
func ClearMarker(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove review marker: %w", err)
	}
	return nil
}
