// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"autodb/internal/intent"
	"autodb/internal/store"
	"autodb/pkg/api"
)

// Engine is the part of the query engine the controller needs.
// *store.Store implements it.
type Engine interface {
	Ping(ctx context.Context) error
	Run(ctx context.Context, in intent.Intent, args ...any) ([]store.Record, error)
	Insert(ctx context.Context, table string, rec store.Record) (store.Record, error)
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	engine   Engine
	services []string
	logger   *slog.Logger
}

// New creates a new Handlers instance serving the given services.
func New(engine Engine, services []string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		engine:   engine,
		services: slices.Clone(services),
		logger:   logger,
	}
}

func (h *Handlers) serves(service string) bool {
	return slices.Contains(h.services, service)
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
