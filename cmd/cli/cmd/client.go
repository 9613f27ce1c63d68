package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"autodb/pkg/api"
)

// RequestClient handles API calls to the autodb controller.
type RequestClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewRequestClient creates a new client with the given base URL.
func NewRequestClient(baseURL string) *RequestClient {
	return &RequestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Submit sends POST /api/{service}/requests to queue a request.
func (c *RequestClient) Submit(service string, req api.SubmitRequest) (*api.SubmitResponse, error) {
	var result api.SubmitResponse
	endpoint := fmt.Sprintf("%s/api/%s/requests", c.BaseURL, url.PathEscape(service))
	if err := c.do(http.MethodPost, endpoint, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List sends GET /api/{service}/requests?user_id= to poll a user's requests.
func (c *RequestClient) List(service, userID string) (*api.ListRequestsResponse, error) {
	var result api.ListRequestsResponse
	endpoint := fmt.Sprintf("%s/api/%s/requests?user_id=%s", c.BaseURL, url.PathEscape(service), url.QueryEscape(userID))
	if err := c.do(http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Complete sends POST /api/{service}/requests/{id}/done to acknowledge
// delivery of a result.
func (c *RequestClient) Complete(service string, id int64) (*api.RequestStatus, error) {
	var result api.RequestStatus
	endpoint := fmt.Sprintf("%s/api/%s/requests/%d/done", c.BaseURL, url.PathEscape(service), id)
	if err := c.do(http.MethodPost, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *RequestClient) do(method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr api.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
