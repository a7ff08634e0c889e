package usecase

import (
	"strings"

	"github.com/allergenapp/backend/internal/domain"
)

// Verdict messages shown to the user
const (
	MessageSafe           = "No selected allergens detected."
	MessageNotFound       = "Product not found."
	MessageCaution        = "Could not confirm this product is safe. Check the label carefully."
	MessageAnalysisFailed = "Could not analyze the label. Check the ingredients manually."
	messageGenericDanger  = "Contains selected allergens. Do not consume."
	scannedLabelName      = "Scanned Label"
)

// Classify turns a match result into a verdict. found is false when the
// product could not be acquired.
func Classify(product domain.NormalizedProduct, found bool, match domain.MatchResult) domain.Verdict {
	if !found {
		return domain.Verdict{Status: domain.StatusUnknown, Message: MessageNotFound}
	}

	summary := product.Summary
	if match.Empty() {
		return domain.Verdict{
			Status:  domain.StatusSafe,
			Message: MessageSafe,
			Product: &summary,
		}
	}

	detected := append([]string(nil), match.DetectedAllergens...)
	return domain.Verdict{
		Status:            domain.StatusDanger,
		Message:           dangerMessage(detected),
		Product:           &summary,
		DetectedAllergens: detected,
	}
}

// ClassifyVision maps a label analysis answer onto a verdict.
// Upstream alternatives are kept for danger verdicts only.
func ClassifyVision(record domain.VisionRecord) domain.Verdict {
	summary := domain.ProductSummary{Name: scannedLabelName}
	detected := normalizeDeclared(record.Detected)

	switch strings.ToLower(strings.TrimSpace(record.Status)) {
	case visionStatusSafe:
		return domain.Verdict{Status: domain.StatusSafe, Message: MessageSafe, Product: &summary}

	case visionStatusDanger:
		message := messageGenericDanger
		if len(detected) > 0 {
			message = dangerMessage(detected)
		}
		var alternatives []domain.Alternative
		for _, name := range cleanTerms(record.Alternatives) {
			alternatives = append(alternatives, domain.Alternative{Name: name})
		}
		return domain.Verdict{
			Status:            domain.StatusDanger,
			Message:           message,
			Product:           &summary,
			DetectedAllergens: detected,
			Alternatives:      alternatives,
		}

	default:
		return domain.Verdict{
			Status:            domain.StatusUnknown,
			Message:           MessageCaution,
			Product:           &summary,
			DetectedAllergens: detected,
		}
	}
}

// AnalysisFailedVerdict is used when the label analysis answer could not be parsed
func AnalysisFailedVerdict() domain.Verdict {
	return domain.Verdict{
		Status:  domain.StatusUnknown,
		Message: MessageAnalysisFailed,
		Product: &domain.ProductSummary{Name: scannedLabelName},
	}
}

func dangerMessage(detected []string) string {
	return "Contains " + strings.Join(detected, ", ") + ". Do not consume."
}
