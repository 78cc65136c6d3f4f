package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/easyasset/eam-backend/internal/domain"
)

const defaultHistoryDays = 30

// quoteTarget reads the {symbol} parameter and the required market query parameter
func quoteTarget(r *http.Request) (string, domain.Market, error) {
	market, err := domain.ParseMarket(r.URL.Query().Get("market"))
	if err != nil {
		return "", "", err
	}
	return chi.URLParam(r, "symbol"), market, nil
}

// handleLatestQuote handles GET /api/quotes/latest/{symbol}?market=
func (s *Server) handleLatestQuote(w http.ResponseWriter, r *http.Request) {
	symbol, market, err := quoteTarget(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q, err := s.quotes.Latest(r.Context(), symbol, market)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toQuoteResponse(q))
}

// handleQuoteHistory handles GET /api/quotes/history/{symbol}?market=&days=|from=&to=
func (s *Server) handleQuoteHistory(w http.ResponseWriter, r *http.Request) {
	symbol, market, err := quoteTarget(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	query := r.URL.Query()
	to := time.Now().UTC()
	if v := query.Get("to"); v != "" {
		if to, err = parseDate(v); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	days := defaultHistoryDays
	if v := query.Get("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days < 1 || days > 3650 {
			s.writeError(w, http.StatusBadRequest, "Invalid days. Must be 1-3650")
			return
		}
	}
	from := to.AddDate(0, 0, -days)
	if v := query.Get("from"); v != "" {
		if from, err = parseDate(v); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	history, err := s.quotes.History(r.Context(), symbol, market, from, to)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]quoteResponse, 0, len(history))
	for _, q := range history {
		out = append(out, toQuoteResponse(q))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleSyncQuote handles POST /api/quotes/sync/{symbol}?market=
func (s *Server) handleSyncQuote(w http.ResponseWriter, r *http.Request) {
	symbol, market, err := quoteTarget(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q, err := s.quotes.Sync(r.Context(), symbol, market)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toQuoteResponse(q))
}
