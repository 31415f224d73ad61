package eo3

import (
	"log/slog"
	"strings"
)

// InvalidDatasetError is returned when a dataset document fails validation
// or cannot be prepared.
//
// Construction-time failures carry a stable Code (invalid_crs,
// incomplete_geometry, invalid_lineage) and a Reason; validation failures
// carry every error-level message.
type InvalidDatasetError struct {
	Code     string
	Reason   string
	Messages Messages
	Err      error
}

func (e *InvalidDatasetError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Reason
	}
	return joinMessages(e.Messages)
}

func (e *InvalidDatasetError) Unwrap() error { return e.Err }

// InvalidDocumentError is returned when a product or metadata-type document
// fails validation.
type InvalidDocumentError struct {
	Messages Messages
}

func (e *InvalidDocumentError) Error() string { return joinMessages(e.Messages) }

// HandleDatasetValidationMessages logs all warnings as one combined warning
// and returns an *InvalidDatasetError carrying all errors, or nil.
func HandleDatasetValidationMessages(logger *slog.Logger, ms Messages) error {
	if errs := handle(logger, ms); len(errs) > 0 {
		return &InvalidDatasetError{Messages: errs}
	}
	return nil
}

// HandleValidationMessages is HandleDatasetValidationMessages for product and
// metadata-type documents.
func HandleValidationMessages(logger *slog.Logger, ms Messages) error {
	if errs := handle(logger, ms); len(errs) > 0 {
		return &InvalidDocumentError{Messages: errs}
	}
	return nil
}

func handle(logger *slog.Logger, ms Messages) Messages {
	if logger == nil {
		logger = slog.Default()
	}
	if w := ms.Warnings(); len(w) > 0 {
		logger.Warn(joinMessages(w), "count", len(w))
	}
	return ms.Errors()
}

func joinMessages(ms Messages) string {
	lines := make([]string, 0, len(ms))
	for _, m := range ms {
		lines = append(lines, m.String())
	}
	return strings.Join(lines, "\n")
}
