package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"autodb/internal/intent"
	"autodb/internal/logger"
	"autodb/internal/store"
	"autodb/internal/task"
	"autodb/pkg/api"
)

var (
	listByUser = intent.MustParse("get_id_and_status_and_result_by_user_id")
	statusByID = intent.MustParse("get_status_by_id")
)

// SubmitRequest handles POST /api/{service}/requests.
// It queues a pending request for the service's scheduler.
func (h *Handlers) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, h.logger)

	service := r.PathValue("service")
	if !h.serves(service) {
		h.httpError(w, "Unknown service", http.StatusNotFound)
		return
	}

	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Text) == "" {
		h.httpError(w, "user_id and text are required", http.StatusBadRequest)
		return
	}

	rec, err := h.engine.Insert(ctx, task.RequestTable(service), store.RecordOf(
		"user_id", req.UserID,
		"text", req.Text,
		"status", string(task.StatusPending),
	))
	if err != nil {
		log.Error("failed to queue request", "service", service, "error", err)
		h.httpError(w, "Failed to queue request", http.StatusInternalServerError)
		return
	}

	id, _ := rec.Int64("id")
	log.Info("request queued", "service", service, "id", id, "user_id", req.UserID)
	h.respondJson(w, http.StatusCreated, api.SubmitResponse{
		ID:     id,
		Status: rec.String("status"),
	})
}

// ListRequests handles GET /api/{service}/requests?user_id=.
// It reports every request of the user with its status and result.
func (h *Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	service := r.PathValue("service")
	if !h.serves(service) {
		h.httpError(w, "Unknown service", http.StatusNotFound)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.httpError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	rows, err := h.engine.Run(ctx, listByUser.On(task.RequestTable(service)), userID)
	if err != nil {
		logger.FromContext(ctx, h.logger).Error("failed to list requests", "service", service, "error", err)
		h.httpError(w, "Failed to list requests", http.StatusInternalServerError)
		return
	}

	resp := api.ListRequestsResponse{
		Service:  service,
		Requests: make([]api.RequestStatus, 0, len(rows)),
	}
	for _, row := range rows {
		id, _ := row.Int64("id")
		resp.Requests = append(resp.Requests, api.RequestStatus{
			ID:     id,
			Status: row.String("status"),
			Result: row.String("result"),
		})
	}
	h.respondJson(w, http.StatusOK, resp)
}

// CompleteRequest handles POST /api/{service}/requests/{id}/done.
// The submitter calls it after collecting the result; only a waiting
// request can move to done.
func (h *Handlers) CompleteRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, h.logger)

	service := r.PathValue("service")
	if !h.serves(service) {
		h.httpError(w, "Unknown service", http.StatusNotFound)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.httpError(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	table := task.RequestTable(service)
	rows, err := h.engine.Run(ctx, statusByID.On(table), id)
	if err != nil {
		log.Error("failed to look up request", "service", service, "id", id, "error", err)
		h.httpError(w, "Internal database error", http.StatusInternalServerError)
		return
	}
	if len(rows) == 0 {
		h.httpError(w, "Request not found", http.StatusNotFound)
		return
	}
	if rows[0].String("status") != string(task.StatusWaiting) {
		h.httpError(w, "Request is not waiting for delivery", http.StatusConflict)
		return
	}

	// Guarded on status: a record that left waiting meanwhile is not touched.
	ack := intent.Intent{
		Op:      intent.OpUpdate,
		Targets: []string{"status"},
		Filters: []string{"id"},
		Status:  string(task.StatusWaiting),
		Table:   table,
	}
	updated, err := h.engine.Run(ctx, ack, string(task.StatusDone), id)
	if err != nil {
		log.Error("failed to complete request", "service", service, "id", id, "error", err)
		h.httpError(w, "Failed to complete request", http.StatusInternalServerError)
		return
	}
	if len(updated) == 0 {
		h.httpError(w, "Request is not waiting for delivery", http.StatusConflict)
		return
	}

	log.Info("request delivered", "service", service, "id", id)
	h.respondJson(w, http.StatusOK, api.RequestStatus{
		ID:     id,
		Status: string(task.StatusDone),
		Result: updated[0].String("result"),
	})
}
