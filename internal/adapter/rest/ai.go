package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/advisor"
)

// handleAnalyzeHoldings handles GET /api/ai/holdings.
// A failed analysis is reported next to its holding rather than failing the request.
func (s *Server) handleAnalyzeHoldings(w http.ResponseWriter, r *http.Request) {
	results, err := s.advisor.AnalyzeAll(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAnalysisResponses(results))
}

// handleAdvice handles GET /api/ai/advice
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	advice, err := s.advisor.PortfolioAdvice(r.Context(), ownerOf(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"advice": advice,
	})
}

// handleAnalyzeHolding handles POST /api/ai/holdings/{id}?quality=true.
// quality selects the slower, more careful model.
func (s *Server) handleAnalyzeHolding(w http.ResponseWriter, r *http.Request) {
	id, err := holdingID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	quality := false
	if raw := r.URL.Query().Get("quality"); raw != "" {
		quality, err = strconv.ParseBool(raw)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: quality must be true or false", domain.ErrInvalidInput))
			return
		}
	}

	res, err := s.advisor.AnalyzeHoldingByID(r.Context(), ownerOf(r), id, quality)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Err != nil {
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, toAnalysisResponses([]advisor.HoldingResult{*res})[0])
}

// handleSummarize handles POST /api/ai/summarize with a body like {"text": "...", "max_words": 200, "language": "en"}
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.advisor.Summarize(r.Context(), advisor.SummaryRequest{
		Text:     req.Text,
		MaxWords: req.MaxWords,
		Language: req.Language,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			s.respondError(w, r, err)
			return
		}
		s.log.Warn().Err(err).Msg("Summarize failed")
		s.writeError(w, http.StatusBadGateway, "summarize failed: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"summary": summary,
	})
}
