package hooks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// ReviewVerdict is the completeness verdict reported by a reviewer run.
// Fields are pointers: an absent field never confirms anything, only an
// explicit value can.
type ReviewVerdict struct {
	Complete                *bool  `json:"complete,omitempty"`
	CanProceedToHumanReview *bool  `json:"canProceedToHumanReview,omitempty"`
	OpenCritical            *int   `json:"openCritical,omitempty"`
	OpenMajor               *int   `json:"openMajor,omitempty"`
	Summary                 string `json:"summary,omitempty"`
}

// Confirmed reports whether the verdict positively confirms review
// completeness. Anything short of an explicit confirmation is a no.
func (v *ReviewVerdict) Confirmed() bool {
	if v.Complete != nil && *v.Complete {
		return true
	}
	if v.CanProceedToHumanReview != nil && *v.CanProceedToHumanReview {
		return true
	}
	if v.OpenCritical != nil && v.OpenMajor != nil {
		return *v.OpenCritical == 0 && *v.OpenMajor == 0
	}
	return false
}

// verdictKeys are the field names whose presence marks a payload as a
// verdict object rather than arbitrary JSON.
var verdictKeys = []string{"complete", "canProceedToHumanReview", "openCritical", "openMajor"}

// ExtractVerdict pulls a ReviewVerdict out of a loosely-structured reviewer
// payload. Three independent parse attempts run in order, stopping at the
// first success: a direct verdict object, a model response whose text
// content blocks embed verdict JSON, and a bare string with JSON somewhere
// between the first '{' and the last '}'.
func ExtractVerdict(payload []byte) (*ReviewVerdict, error) {
	attempts := []func([]byte) (*ReviewVerdict, bool){
		parseDirect,
		parseContentBlocks,
		parseEmbedded,
	}
	for _, attempt := range attempts {
		if verdict, ok := attempt(payload); ok {
			return verdict, nil
		}
	}
	return nil, fmt.Errorf("no review verdict found in payload")
}

// parseDirect accepts a JSON object that itself carries verdict fields
func parseDirect(payload []byte) (*ReviewVerdict, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, false
	}
	found := false
	for _, key := range verdictKeys {
		if _, ok := raw[key]; ok {
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}
	var verdict ReviewVerdict
	if err := json.Unmarshal(payload, &verdict); err != nil {
		return nil, false
	}
	return &verdict, true
}

// parseContentBlocks accepts a model API response and tries each text
// content block as a verdict payload.
func parseContentBlocks(payload []byte) (*ReviewVerdict, bool) {
	var message anthropic.Message
	if err := json.Unmarshal(payload, &message); err != nil {
		return nil, false
	}
	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		text := []byte(block.Text)
		if verdict, ok := parseDirect(text); ok {
			return verdict, true
		}
		if verdict, ok := parseEmbedded(text); ok {
			return verdict, true
		}
	}
	return nil, false
}

// parseEmbedded digs a JSON object out of surrounding prose
func parseEmbedded(payload []byte) (*ReviewVerdict, bool) {
	text := string(payload)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return parseDirect([]byte(text[start : end+1]))
}
