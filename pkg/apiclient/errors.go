package apiclient

import (
	"fmt"
	"net/http"
)

// APIError is an RFC 7807 problem returned by the server.
type APIError struct {
	Type       string `json:"type,omitempty"`
	StatusCode int    `json:"status"`
	Title      string `json:"title"`
	Detail     string `json:"detail,omitempty"`
	Instance   string `json:"instance,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

// IsAuthError reports a rejected or missing token.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound reports a missing resource.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsConflict reports a duplicate resource.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}
