// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

// SubmitRequest is the request body for queueing work for a service.
type SubmitRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// SubmitResponse is the response body after a request was queued.
type SubmitResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// RequestStatus is one request as reported to its submitter.
type RequestStatus struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
}

// ListRequestsResponse is the response body for status polling.
type ListRequestsResponse struct {
	Service  string          `json:"service"`
	Requests []RequestStatus `json:"requests"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// GenerateImageRequest is the body sent to the image generator.
type GenerateImageRequest struct {
	UserID string `json:"user_id"`
	Prompt string `json:"prompt"`
}

// GenerateImageResponse is the image generator's reply.
type GenerateImageResponse struct {
	URL string `json:"url"`
}
