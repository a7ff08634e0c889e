package domain

import "errors"

var (
	// ErrAcquisitionFailed is returned when a product source or label analyzer could not be reached
	ErrAcquisitionFailed = errors.New("error fetching data")

	// ErrMalformedAnalysis is returned when a label analysis response cannot be parsed
	ErrMalformedAnalysis = errors.New("malformed label analysis")

	// ErrScanInProgress is returned when the user already has a scan in flight
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrKeyNotFound is returned by a KeyValueStore when the key does not exist
	ErrKeyNotFound = errors.New("key not found")

	// ErrUserNotFound is returned when a user profile does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrVisionDisabled is returned when label scanning is requested without a configured analyzer
	ErrVisionDisabled = errors.New("label analysis is disabled")
)
