package hooks

import (
	"os"
	"testing"

	"github.com/ralphkit/ralphkit/internal/statefile"
)

func TestExtractVerdictDirect(t *testing.T) {
	payload := []byte(`{"complete": true, "summary": "all findings resolved"}`)
	verdict, err := ExtractVerdict(payload)
	if err != nil {
		t.Fatalf("ExtractVerdict failed: %v", err)
	}
	if !verdict.Confirmed() {
		t.Error("explicit complete=true should confirm")
	}
	if verdict.Summary != "all findings resolved" {
		t.Errorf("summary = %q", verdict.Summary)
	}
}

func TestExtractVerdictContentBlocks(t *testing.T) {
	payload := []byte(`{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"content": [
			{"type": "text", "text": "Here is my assessment:\n{\"openCritical\": 0, \"openMajor\": 0}"}
		]
	}`)
	verdict, err := ExtractVerdict(payload)
	if err != nil {
		t.Fatalf("ExtractVerdict failed: %v", err)
	}
	if !verdict.Confirmed() {
		t.Error("zero open critical and major should confirm")
	}
}

func TestExtractVerdictEmbedded(t *testing.T) {
	payload := []byte("The review looks good overall. {\"canProceedToHumanReview\": true} Let me know.")
	verdict, err := ExtractVerdict(payload)
	if err != nil {
		t.Fatalf("ExtractVerdict failed: %v", err)
	}
	if !verdict.Confirmed() {
		t.Error("explicit proceed flag should confirm")
	}
}

func TestExtractVerdictNoVerdict(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"prose only", "looks fine to me"},
		{"json without verdict fields", `{"status": "ok"}`},
		{"truncated json", `{"complete": tr`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExtractVerdict([]byte(tt.payload)); err == nil {
				t.Error("expected extraction to fail")
			}
		})
	}
}

func TestVerdictConfirmed(t *testing.T) {
	boolp := func(b bool) *bool { return &b }
	intp := func(i int) *int { return &i }

	tests := []struct {
		name    string
		verdict ReviewVerdict
		want    bool
	}{
		{"empty", ReviewVerdict{}, false},
		{"complete false", ReviewVerdict{Complete: boolp(false)}, false},
		{"complete true", ReviewVerdict{Complete: boolp(true)}, true},
		{"proceed true", ReviewVerdict{CanProceedToHumanReview: boolp(true)}, true},
		{"counts zero", ReviewVerdict{OpenCritical: intp(0), OpenMajor: intp(0)}, true},
		{"critical open", ReviewVerdict{OpenCritical: intp(1), OpenMajor: intp(0)}, false},
		{"major open", ReviewVerdict{OpenCritical: intp(0), OpenMajor: intp(2)}, false},
		{"only one count present", ReviewVerdict{OpenCritical: intp(0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.verdict.Confirmed(); got != tt.want {
				t.Errorf("Confirmed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckerWritesMarkerOnConfirmation(t *testing.T) {
	path := statefile.MarkerPath(t.TempDir())
	checker := NewChecker(path)

	if _, err := checker.Run([]byte(`{"complete": true}`)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := statefile.ReadMarker(path); err != nil {
		t.Errorf("marker should exist after confirmation: %v", err)
	}
}

func TestCheckerFailClosed(t *testing.T) {
	path := statefile.MarkerPath(t.TempDir())
	checker := NewChecker(path)

	// Seed a passing marker, then fail a re-check: the marker must not survive
	if _, err := checker.Run([]byte(`{"complete": true}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := checker.Run([]byte(`{"openCritical": 2, "openMajor": 0}`)); err == nil {
		t.Fatal("unconfirmed verdict must error")
	}
	if _, err := statefile.ReadMarker(path); !os.IsNotExist(err) {
		t.Errorf("failed re-check must clear the marker, got %v", err)
	}

	// Unextractable payload also clears
	if _, err := checker.Run([]byte(`{"complete": true}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := checker.Run([]byte("no verdict here")); err == nil {
		t.Fatal("unextractable payload must error")
	}
	if _, err := statefile.ReadMarker(path); !os.IsNotExist(err) {
		t.Errorf("failed extraction must clear the marker, got %v", err)
	}
}
