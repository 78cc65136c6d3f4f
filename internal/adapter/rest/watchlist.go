package rest

import (
	"net/http"

	"github.com/easyasset/eam-backend/internal/usecase/watchlist"
)

// handleListWatchlist handles GET /api/watchlist
func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.watchlist.List(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := make([]watchlistResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toWatchlistResponse(item))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleAddWatchlist handles POST /api/watchlist; an instrument already listed yields 409
func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	var req addWatchlistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.watchlist.Add(r.Context(), ownerOf(r), req.toInput())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toWatchlistResponse(item))
}

// handleUpdateWatchlist handles PATCH /api/watchlist/{id}
func (s *Server) handleUpdateWatchlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "watchlist item")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req updateWatchlistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.watchlist.Update(r.Context(), ownerOf(r), id, watchlist.UpdateInput{Theme: req.Theme, Reason: req.Reason})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toWatchlistResponse(item))
}

// handleRemoveWatchlist handles DELETE /api/watchlist/{id}
func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "watchlist item")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.watchlist.Remove(r.Context(), ownerOf(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
