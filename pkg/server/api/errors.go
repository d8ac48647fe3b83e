package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vulntor/stackscan/pkg/techdetect"
)

// ErrorResponse represents a standard JSON error response.
// Used consistently across all API endpoints for error responses.
//
// Example:
//
//	{
//	  "error": "Gateway Timeout",
//	  "code": "FETCH_TIMEOUT",
//	  "message": "fetch https://example.com: context deadline exceeded",
//	  "url": "https://example.com"
//	}
type ErrorResponse struct {
	Error   string `json:"error"`             // Short error type (e.g., "Bad Request", "Bad Gateway")
	Code    string `json:"code,omitempty"`    // Machine readable code
	Message string `json:"message,omitempty"` // Detailed error message (optional)
	URL     string `json:"url,omitempty"`     // Target of a failed detection
}

// WriteError writes a standard JSON error response to the client.
// The status code comes from the detection error taxonomy:
//   - missing or malformed url → 400 Bad Request
//   - upstream fetch failure → 502 Bad Gateway
//   - upstream fetch timeout → 504 Gateway Timeout
//   - anything else → 500 Internal Server Error
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	WriteDetectError(w, r, "", err)
}

// WriteDetectError is WriteError for detection failures. target is echoed
// back unless the error carries its own URL.
func WriteDetectError(w http.ResponseWriter, r *http.Request, target string, err error) {
	statusCode := techdetect.HTTPStatus(err)
	code := techdetect.ErrorCode(err)

	var fetchErr *techdetect.FetchError
	if errors.As(err, &fetchErr) && fetchErr.URL != "" {
		target = fetchErr.URL
	}

	logEvent := log.Warn()
	if statusCode >= http.StatusInternalServerError {
		logEvent = log.Error()
	}
	logEvent.
		Str("component", "api").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("url", target).
		Str("code", code).
		Int("status", statusCode).
		Err(err).
		Msg("Request failed")

	writeErrorResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    code,
		Message: err.Error(),
		URL:     target,
	})
}

// WriteJSONError writes a custom JSON error response with a specific status code.
// Use this when you need fine-grained control over the error response.
//
// Example:
//
//	WriteJSONError(w, http.StatusBadRequest, "Invalid Input", "url parameter is required")
func WriteJSONError(w http.ResponseWriter, statusCode int, errorType, message string) {
	writeErrorResponse(w, statusCode, ErrorResponse{
		Error:   errorType,
		Message: message,
	})
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode error response")
	}
}

// WriteJSON writes a JSON response to the client.
// Use this for successful API responses.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode JSON response")
	}
}
