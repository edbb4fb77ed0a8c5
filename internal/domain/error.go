package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrMissingDocument   = errors.New("message has no document attached")
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// DownloadError reports a failed fetch of the inbound platform file.
type DownloadError struct {
	FileID string
	Err    error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download file %s: %v", e.FileID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ConversionServiceError covers transport failures, non-2xx statuses, malformed
// bodies and explicit success=false answers from the conversion service.
type ConversionServiceError struct {
	StatusCode int
	// Rejected is set when the service answered but reported success=false.
	Rejected bool
	Err      error
}

func (e *ConversionServiceError) Error() string {
	switch {
	case e.Rejected:
		return fmt.Sprintf("conversion rejected: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("conversion service returned status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("conversion service: %v", e.Err)
	}
}

func (e *ConversionServiceError) Unwrap() error { return e.Err }

// ArtifactDeliveryError is the per-artifact failure of fetching or re-uploading one output.
type ArtifactDeliveryError struct {
	Format       string
	ArtifactName string
	Err          error
}

func (e *ArtifactDeliveryError) Error() string {
	return fmt.Sprintf("deliver %s artifact %q: %v", e.Format, e.ArtifactName, e.Err)
}

func (e *ArtifactDeliveryError) Unwrap() error { return e.Err }
