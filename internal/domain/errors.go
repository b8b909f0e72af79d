package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSpeakerNotFound signals that a raw speaker name has no canonical match.
	ErrSpeakerNotFound = errors.New("speaker not found")
	// ErrTopicNotFound signals a missing saved topic.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrDocumentNotFound signals that no document is stored under the given ID.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrSearchFailed signals that the index reported a non-success execution.
	ErrSearchFailed = errors.New("search execution failed")
	// ErrScanInterrupted signals a scan that failed before exhausting its results.
	ErrScanInterrupted = errors.New("scan interrupted")
)

// ScanInterruptedError wraps ErrScanInterrupted with the number of hits that
// were already handed to the caller before the scan broke. Results persisted
// from those hits stay valid.
type ScanInterruptedError struct {
	Processed int
	Err       error
}

func (e *ScanInterruptedError) Error() string {
	return fmt.Sprintf("%s after %d hits: %v", ErrScanInterrupted.Error(), e.Processed, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause, so callers can
// still match context.Canceled through the wrapper.
func (e *ScanInterruptedError) Unwrap() []error { return []error{ErrScanInterrupted, e.Err} }

// NewScanInterrupted creates a scan interruption error.
func NewScanInterrupted(processed int, err error) error {
	return &ScanInterruptedError{Processed: processed, Err: err}
}
