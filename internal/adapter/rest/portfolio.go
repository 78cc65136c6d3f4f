package rest

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/usecase/alerts"
)

// handleOverview handles GET /api/portfolio/overview
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	res, err := s.portfolio.Overview(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toOverviewResponse(res))
}

// handleRebalance handles GET /api/portfolio/rebalance-suggestions
func (s *Server) handleRebalance(w http.ResponseWriter, r *http.Request) {
	res, err := s.portfolio.RebalanceSuggestions(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRebalanceResponse(res))
}

// handlePositions handles GET /api/portfolio/positions
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.portfolio.Positions(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPositionResponses(positions))
}

// handleAlerts handles GET /api/portfolio/alerts
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	positions, err := s.portfolio.Positions(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	found := alerts.GenerateAlerts(positions)
	resp := make([]alertResponse, 0, len(found))
	for _, a := range found {
		resp = append(resp, toAlertResponse(a))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleHealthCheck handles GET /api/portfolio/health
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	snap, err := s.portfolio.Snapshot(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toHealthResponse(alerts.AssessHealth(snap)))
}

// handleGetTargets handles GET /api/portfolio/targets
func (s *Server) handleGetTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := s.portfolio.Targets(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTargetsResponse(targets))
}

// handleSetTargets handles PUT /api/portfolio/targets with a body like {"stable": 40, "medium": 30, "gamble": 30}
func (s *Server) handleSetTargets(w http.ResponseWriter, r *http.Request) {
	var raw map[string]decimal.Decimal
	if err := decodeJSON(r, &raw); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	targets, err := parseTargets(raw)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	saved, err := s.portfolio.SetTargets(r.Context(), ownerOf(r), targets)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTargetsResponse(saved))
}
