package httputil

import (
	"encoding/json"
	"net/http"
)

// APIError is the JSON error envelope returned to clients.
type APIError struct {
	Error APIErrorBody `json:"error"`
}

type APIErrorBody struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, requestID string, statusCode int, errType, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIError{
		Error: APIErrorBody{
			Message:   message,
			Type:      errType,
			Code:      code,
			RequestID: requestID,
		},
	})
}

func WriteAuthError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusUnauthorized, "authentication_error", "invalid_api_key", message)
}

func WriteRateLimitError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusTooManyRequests, "rate_limit_error", "rate_limit_exceeded", message)
}

// WriteRequestError maps a typed user-input rejection onto a 4xx response.
// code is one of the guard error codes (empty_prompt, unsupported_file_format,
// security_rejected, classification_unclear, missing_files, policy_denied).
func WriteRequestError(w http.ResponseWriter, requestID, code, message string) {
	status := http.StatusBadRequest
	switch code {
	case "security_rejected":
		status = http.StatusUnavailableForLegalReasons
	case "policy_denied":
		status = http.StatusForbidden
	}
	WriteError(w, requestID, status, "invalid_request_error", code, message)
}

func WriteBadRequestError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusBadRequest, "invalid_request_error", "invalid_request", message)
}

// WriteDownstreamError reports a capability failure without leaking the
// underlying cause; callers log the cause server-side.
func WriteDownstreamError(w http.ResponseWriter, requestID string) {
	WriteError(w, requestID, http.StatusBadGateway, "server_error", "downstream_capability_failure",
		"An upstream capability failed to process the request")
}

func WriteInternalError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusInternalServerError, "server_error", "internal_error", message)
}

func WriteServiceUnavailableError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusServiceUnavailable, "server_error", "service_unavailable", message)
}
