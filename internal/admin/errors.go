package admin

import (
	"errors"
	"net/http"

	"github.com/panolabel/panolabel/pkg/blobstore"
)

// Domain errors for administrative operations.
var (
	ErrUnauthorized    = errors.New("administrator access required")
	ErrArchiveDisabled = errors.New("export archiving is not configured")
)

// MapHTTPStatus maps administrative errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrArchiveDisabled) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, blobstore.ErrNotFound) ||
		errors.Is(err, blobstore.ErrEmptyKey) ||
		errors.Is(err, blobstore.ErrInvalidKey) {
		return blobstore.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}
