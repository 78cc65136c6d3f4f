package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/signals"
)

// handleCreateSignal handles POST /api/signals
func (s *Server) handleCreateSignal(w http.ResponseWriter, r *http.Request) {
	var req createSignalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sig, err := s.signals.Create(r.Context(), ownerOf(r), req.toInput())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toSignalResponse(sig))
}

// handleListSignals handles GET /api/signals?signal_type=&sector=&status=&min_severity=&since=&limit=
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := signals.ListInput{
		Type:        q.Get("signal_type"),
		Sector:      q.Get("sector"),
		Status:      q.Get("status"),
		MinSeverity: q.Get("min_severity"),
	}
	if v := q.Get("since"); v != "" {
		since, err := parseDate(v)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		in.Since = &since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			s.respondError(w, r, fmt.Errorf("%w: limit must be 1-%d", domain.ErrInvalidInput, signals.MaxListLimit))
			return
		}
		in.Limit = limit
	}

	found, err := s.signals.List(r.Context(), ownerOf(r), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]signalResponse, 0, len(found))
	for _, sig := range found {
		resp = append(resp, toSignalResponse(sig))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleGetSignal handles GET /api/signals/{id}
func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "signal")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sig, err := s.signals.Get(r.Context(), ownerOf(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSignalResponse(sig))
}

// handleUpdateSignal handles PATCH /api/signals/{id}, only the status can change
func (s *Server) handleUpdateSignal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "signal")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req updateSignalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sig, err := s.signals.SetStatus(r.Context(), ownerOf(r), id, req.Status)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSignalResponse(sig))
}

// handleMarkSignalRead handles POST /api/signals/{id}/mark-read
func (s *Server) handleMarkSignalRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "signal")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sig, err := s.signals.MarkRead(r.Context(), ownerOf(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSignalResponse(sig))
}

// handleDeleteSignal handles DELETE /api/signals/{id}
func (s *Server) handleDeleteSignal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "signal")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.signals.Delete(r.Context(), ownerOf(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
