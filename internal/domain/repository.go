package domain

import "context"

// KeyValueStore is the persistence port used for profiles and scan history.
// Lists are kept per key, newest element first.
type KeyValueStore interface {
	// Get returns ErrKeyNotFound when the key does not exist
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Append adds value to the front of the list stored at key
	Append(ctx context.Context, key string, value []byte) error
	// Range returns up to limit list elements, newest first. limit <= 0 returns all.
	Range(ctx context.Context, key string, limit int) ([][]byte, error)

	Close() error
}

// ProductSource acquires raw product records.
// A product that does not exist is reported with a record whose Found flag
// is false and a nil error. Transport failures wrap ErrAcquisitionFailed.
type ProductSource interface {
	Name() string
	LookupBarcode(ctx context.Context, barcode string) (RawProductRecord, error)
	SearchByName(ctx context.Context, query string) (RawProductRecord, error)
}

// LabelAnalyzer sends a label image to a vision model and returns its raw text answer
type LabelAnalyzer interface {
	AnalyzeLabel(ctx context.Context, image []byte, mediaType string, userAllergens []string) (string, error)
}

// Alerter is notified once for every danger verdict
type Alerter interface {
	Alert(ctx context.Context, userID string, verdict Verdict)
}

// ScanObserver records scan outcomes for monitoring
type ScanObserver interface {
	ObserveScan(mode ScanMode, status Status)
	ObserveAcquisitionFailure(mode ScanMode)
}
