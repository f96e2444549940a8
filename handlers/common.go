package handlers

import "encoding/json"

// ErrorResponse is the uniform error body returned across the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse wraps a successful response with an optional data payload.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// mustJSON marshals v, falling back to a JSON error object if marshaling
// itself somehow fails, so streaming handlers never emit a malformed line.
func mustJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return `{"error":"marshal_failed"}`
	}
	return string(raw)
}
