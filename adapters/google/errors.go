package google

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/noa-assistant/server/domain/repositories"
)

// ClassifyAPIError maps a googleapi error to a classified ProviderError.
func ClassifyAPIError(provider string, err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return repositories.NewProviderError(provider, repositories.ErrorKindTransient, err)
	}

	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return repositories.NewProviderError(provider, repositories.ErrorKindUnauthenticated, err)
	case http.StatusNotFound, http.StatusGone:
		return repositories.NewProviderError(provider, repositories.ErrorKindNotFound, err)
	case http.StatusTooManyRequests:
		return repositories.NewProviderError(provider, repositories.ErrorKindRateLimited, err)
	default:
		return repositories.NewProviderError(provider, repositories.ErrorKindTransient, err)
	}
}
