// Package types holds the wire-level envelopes shared by all endpoints.
package types

// SuccessEnvelope wraps every successful response body. Pagination is
// present only on list endpoints.
type SuccessEnvelope struct {
	Data       any `json:"data"`
	Pagination any `json:"pagination,omitempty"`
}

// APIError is the client-facing error body. Details carries structured
// context (validation fields, stock availability) when the error class
// allows it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
