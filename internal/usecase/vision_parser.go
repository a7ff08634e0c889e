package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/allergenapp/backend/internal/domain"
)

const (
	visionStatusSafe    = "safe"
	visionStatusDanger  = "danger"
	visionStatusCaution = "caution"
)

// Markdown code fences a model may wrap its JSON answer in
var codeFencePattern = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")

// ParseVisionResponse decodes a label analysis answer of the form
// {"status":"safe|danger|caution","detected":[...],"alternatives":[...]}.
// Anything else wraps domain.ErrMalformedAnalysis.
func ParseVisionResponse(text string) (domain.VisionRecord, error) {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(text, ""))

	// Tolerate prose around the object
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return domain.VisionRecord{}, fmt.Errorf("%w: no JSON object in response", domain.ErrMalformedAnalysis)
	}

	var record domain.VisionRecord
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &record); err != nil {
		return domain.VisionRecord{}, fmt.Errorf("%w: %v", domain.ErrMalformedAnalysis, err)
	}

	record.Status = strings.ToLower(strings.TrimSpace(record.Status))
	switch record.Status {
	case visionStatusSafe, visionStatusDanger, visionStatusCaution:
	default:
		return domain.VisionRecord{}, fmt.Errorf("%w: unknown status %q", domain.ErrMalformedAnalysis, record.Status)
	}

	return record, nil
}
