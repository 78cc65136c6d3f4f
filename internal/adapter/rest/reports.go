package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/report"
)

const defaultReportLimit = 20

// handleGenerateDaily handles POST /api/reports/daily
func (s *Server) handleGenerateDaily(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Daily(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := toReportSummary(rep)
	resp.Format = "markdown"
	resp.Content = rep.Content
	s.writeJSON(w, http.StatusCreated, resp)
}

// handleListReports handles GET /api/reports?limit=
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultReportLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > 100 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit. Must be 1-100")
			return
		}
		limit = l
	}

	reports, err := s.reports.List(r.Context(), ownerOf(r), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toReportSummary(rep))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleGetReport handles GET /api/reports/{id}?format=markdown|html
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}
	if format != "markdown" && format != "html" {
		s.respondError(w, r, fmt.Errorf("%w: format must be markdown or html", domain.ErrInvalidInput))
		return
	}

	rep, err := s.reports.Get(r.Context(), ownerOf(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := toReportSummary(rep)
	resp.Format = format
	resp.Content = rep.Content
	if format == "html" {
		html, err := report.RenderHTML(rep)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		resp.Content = html
	}
	s.writeJSON(w, http.StatusOK, resp)
}
