package model

import "errors"

var (
	// ErrUnknownProvider is returned when no adapter is registered for a raw scrape's source.
	ErrUnknownProvider = errors.New("unknown scrape provider")

	// ErrSalaryRangeInvalid is returned when a parsed salary has low > high.
	ErrSalaryRangeInvalid = errors.New("salary low exceeds salary high")
)

// ErrorCode represents error codes.
type ErrorCode string

const (
	CodeUnknownProvider    ErrorCode = "UNKNOWN_PROVIDER"
	CodeSalaryRangeInvalid ErrorCode = "SALARY_RANGE_INVALID"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// GetErrorCode maps errors to error codes.
func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrUnknownProvider):
		return CodeUnknownProvider
	case errors.Is(err, ErrSalaryRangeInvalid):
		return CodeSalaryRangeInvalid
	default:
		return CodeInternalError
	}
}
