package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCorruptRecord      = errors.New("invalid stored record")
	ErrConfigMissing      = errors.New("configuration missing")
	ErrRecordTooLarge     = errors.New("record too large")
)

// NewStorageError creates an error describing a failed object store operation
func NewStorageError(operation, entity string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, entity)

	var apiErr *ApiErr
	switch {
	case cause == nil:
		return &ApiErr{StatusCode: http.StatusInternalServerError, err: ErrInternal, Details: details}
	case errors.As(cause, &apiErr):
		return apiErr
	case errors.Is(cause, ErrNotFound):
		return &ApiErr{
			StatusCode: http.StatusNotFound,
			err:        fmt.Errorf("%s %w", entity, ErrNotFound),
			Cause:      cause,
		}
	case errors.Is(cause, ErrCorruptRecord):
		return &ApiErr{
			StatusCode: http.StatusInternalServerError,
			err:        ErrCorruptRecord,
			Details:    details,
			Cause:      cause,
		}
	case errors.Is(cause, context.DeadlineExceeded):
		return &ApiErr{
			StatusCode: http.StatusGatewayTimeout,
			err:        ErrStorageUnavailable,
			Details:    details,
			Cause:      cause,
		}
	default:
		return &ApiErr{
			StatusCode: http.StatusInternalServerError,
			err:        errors.New(cause.Error()),
			Details:    details,
			Cause:      cause,
		}
	}
}

func NewConfigMissingError(key string) error {
	return fmt.Errorf("%w: %s", ErrConfigMissing, key)
}

func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

func IsCorruptRecord(err error) bool {
	return errors.Is(err, ErrCorruptRecord)
}
