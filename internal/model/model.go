package model

// ErrorResponse is the JSON error envelope returned by the console API.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}
