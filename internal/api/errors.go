package api

import (
	"errors"
	"fmt"
)

// APIError is the error object the story API returns under the "error" key
// when it rejects a request.
type APIError struct {
	Status  int    `json:"status"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	switch {
	case e.Title != "" && e.Message != "":
		return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("api error %d", e.Status)
	}
}

// IsAPIError reports whether err originated from a structured API rejection.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// errorEnvelope is the body shape of every failed API response.
type errorEnvelope struct {
	Error *APIError `json:"error"`
}
