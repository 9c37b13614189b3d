// Package api provides HTTP handlers for the routine engine endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/medeasy-app/routinecore/internal/deeplink"
	"github.com/medeasy-app/routinecore/internal/models"
	"github.com/medeasy-app/routinecore/internal/routineapi"
)

// triggerRequest is the body of POST /trigger: the raw deep-link URI the OS
// link handler received.
type triggerRequest struct {
	URI string `json:"uri"`
}

func (s *Server) triggerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.triggerHandler: processing trigger", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.triggerHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	signature, err := deeplink.Parse(req.URI)
	if err != nil {
		// Non-trigger URIs are logged and dropped; the link source is never
		// interrupted by them.
		slog.Info("Server.triggerHandler: ignoring invalid trigger", "uri", req.URI, "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Not a routine trigger link"))
		return
	}

	// The cycle runs detached so the trigger source is never blocked on the
	// fetch or the check-in batch. Dedup and in-flight guards live in the
	// orchestrator.
	go func() {
		outcome := s.orchestrator.Trigger(context.Background(), signature)
		slog.Debug("Server.triggerHandler: cycle finished", "signature", signature, "outcome", outcome)
	}()

	writeJSONResponse(w, http.StatusAccepted, models.SuccessWithMessage("Trigger accepted", map[string]string{
		"signature": signature,
	}))
}

func (s *Server) closeHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.closeHandler: processing close", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.orchestrator.Close()
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Modal closed", nil))
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// The bus carries the same snapshot subscribers see, replay included.
	writeJSONResponse(w, http.StatusOK, models.Success(s.bus.Current()))
}

func (s *Server) nextHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	result, refreshedAt, ok := s.refresher.Latest()
	if !ok {
		// Cold cache: refresh on demand before answering.
		ctx, cancel := context.WithTimeout(r.Context(), routineapi.DefaultTimeout)
		defer cancel()
		if err := s.refresher.Refresh(ctx); err != nil {
			slog.Error("Server.nextHandler: on-demand refresh failed", "error", err)
			writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to fetch today's routines"))
			return
		}
		result, refreshedAt, _ = s.refresher.Latest()
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"next":         result,
		"refreshed_at": refreshedAt,
	}))
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit parameter"))
			return
		}
		limit = parsed
	}

	events, err := s.events.ListCheckinEvents(limit)
	if err != nil {
		slog.Error("Server.eventsHandler: failed to list events", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list check-in events"))
		return
	}
	if events == nil {
		events = []models.CheckinEvent{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(events))
}
