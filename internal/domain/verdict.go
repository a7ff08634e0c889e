package domain

import "time"

// Status is the classification of a scan
type Status string

const (
	StatusSafe    Status = "safe"
	StatusDanger  Status = "danger"
	StatusUnknown Status = "unknown"
)

// ScanMode is the way a product was acquired
type ScanMode string

const (
	ScanModeBarcode ScanMode = "barcode"
	ScanModeSearch  ScanMode = "search"
	ScanModeLabel   ScanMode = "label"
)

// MatchResult is the ordered, case-insensitively unique list of allergens
// found in a product for one user
type MatchResult struct {
	DetectedAllergens []string `json:"detectedAllergens"`
}

// Empty reports whether nothing was detected
func (m MatchResult) Empty() bool {
	return len(m.DetectedAllergens) == 0
}

// Alternative is a safer product suggestion
type Alternative struct {
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	ForAllergen string `json:"forAllergen,omitempty"`
}

// Verdict is the outcome of one scan. Verdicts are not modified once recorded.
type Verdict struct {
	Status            Status          `json:"status"`
	Message           string          `json:"message"`
	Mode              ScanMode        `json:"mode,omitempty"`
	Product           *ProductSummary `json:"product,omitempty"`
	DetectedAllergens []string        `json:"detectedAllergens,omitempty"`
	Alternatives      []Alternative   `json:"alternatives,omitempty"`
}

// IsDanger reports whether the verdict warns the user
func (v Verdict) IsDanger() bool {
	return v.Status == StatusDanger
}

// HistoryEntry is a verdict as stored in a user's scan history
type HistoryEntry struct {
	ID        string    `json:"id"`
	ScannedAt time.Time `json:"scannedAt"`
	Verdict   Verdict   `json:"verdict"`
}

// UserProfile holds the allergens a user wants to avoid
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Allergens []string  `json:"allergens"`
	UpdatedAt time.Time `json:"updatedAt"`
}
