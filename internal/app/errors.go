package app

import (
	"fmt"
	"net/http"

	"jbeauty/content/internal/fetch"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// fetchError maps a failed fetch to the HTTP boundary. A normalization
// failure on a singleton means the record does not exist; transport and
// decode failures are upstream problems the caller may retry.
func fetchError(kind fetch.ErrorKind, err error) *DomainError {
	switch kind {
	case fetch.ErrorNormalize:
		return domainError(http.StatusNotFound, "NOT_FOUND", "Record not found", nil)
	case fetch.ErrorTransport, fetch.ErrorDecode:
		return domainError(http.StatusBadGateway, "UPSTREAM_FAILED", "Content service request failed", err.Error())
	default:
		return domainError(http.StatusInternalServerError, "INTERNAL", "Internal error", nil)
	}
}
