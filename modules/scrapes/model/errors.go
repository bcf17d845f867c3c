package model

import "errors"

var (
	// ErrStorageUnavailable is returned when the backing store cannot accept a raw scrape.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrEmptyPayload is returned when a record reported as successful
	// carries no payload; failure records may have an empty payload.
	ErrEmptyPayload = errors.New("scrape payload is empty")
)

// ErrorCode represents error codes surfaced to scraper adapters.
type ErrorCode string

const (
	CodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	CodeEmptyPayload       ErrorCode = "EMPTY_PAYLOAD"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// GetErrorCode maps errors to error codes.
func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrStorageUnavailable):
		return CodeStorageUnavailable
	case errors.Is(err, ErrEmptyPayload):
		return CodeEmptyPayload
	default:
		return CodeInternalError
	}
}
