package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autodb/pkg/api"

	"github.com/spf13/viper"
)

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return stdout.String()
}

func TestSubmitCommand_Success(t *testing.T) {
	resetViper()

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/image_service/requests" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		called = true

		var req api.SubmitRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.UserID != "u1" || req.Text != "a red fox" {
			t.Errorf("unexpected body %+v", req)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.SubmitResponse{ID: 12, Status: "pending"})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	output := runRoot(t, "submit", "--service", "image_service", "--user", "u1", "--text", "a red fox")

	if !called {
		t.Error("expected submit endpoint to be called")
	}
	if !strings.Contains(output, "Request queued") || !strings.Contains(output, "ID: 12") {
		t.Errorf("expected success message, got: %s", output)
	}
}

func TestSubmitCommand_MissingUser(t *testing.T) {
	resetViper()

	output := runRoot(t, "submit", "--user", "", "--text", "fox")

	if !strings.Contains(output, "--user is required") {
		t.Errorf("expected validation message, got: %s", output)
	}
}

func TestSubmitCommand_APIError(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Unknown service", Code: "404"})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	output := runRoot(t, "submit", "--service", "video_service", "--user", "u1", "--text", "fox")

	if !strings.Contains(output, "Submit failed (404): Unknown service") {
		t.Errorf("expected API error, got: %s", output)
	}
}

func TestStatusCommand_ListsRequests(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user_id") != "u1" {
			t.Errorf("expected user_id=u1, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(api.ListRequestsResponse{
			Service: "image_service",
			Requests: []api.RequestStatus{
				{ID: 1, Status: "waiting", Result: "http://img/1.png"},
				{ID: 2, Status: "pending"},
			},
		})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	output := runRoot(t, "status", "--service", "image_service", "--user", "u1")

	for _, want := range []string{"image_service requests", "waiting", "http://img/1.png", "pending"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestStatusCommand_NoRequests(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.ListRequestsResponse{Service: "image_service", Requests: []api.RequestStatus{}})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	output := runRoot(t, "status", "--user", "nobody")

	if !strings.Contains(output, "No requests found") {
		t.Errorf("expected empty message, got: %s", output)
	}
}

func TestDoneCommand_Success(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/image_service/requests/5/done" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.RequestStatus{ID: 5, Status: "done"})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	output := runRoot(t, "done", "5", "--service", "image_service")

	if !strings.Contains(output, "Request 5 is done") {
		t.Errorf("expected success message, got: %s", output)
	}
}

func TestDoneCommand_Conflict(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "Request is not waiting for delivery", Code: "409"})
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	output := runRoot(t, "done", "5")

	if !strings.Contains(output, "Acknowledge failed (409)") {
		t.Errorf("expected conflict message, got: %s", output)
	}
}

func TestDoneCommand_InvalidID(t *testing.T) {
	resetViper()

	output := runRoot(t, "done", "abc")

	if !strings.Contains(output, "invalid request ID") {
		t.Errorf("expected validation message, got: %s", output)
	}
}
