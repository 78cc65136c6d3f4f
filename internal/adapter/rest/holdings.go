package rest

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/holding"
)

// holdingID parses the {id} URL parameter
func holdingID(r *http.Request) (uuid.UUID, error) {
	return pathID(r, "holding")
}

// pathID parses the {id} URL parameter; what names the resource in the error
func pathID(r *http.Request, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s id", domain.ErrInvalidInput, what)
	}
	return id, nil
}

// handleCreateHolding handles POST /api/holdings
func (s *Server) handleCreateHolding(w http.ResponseWriter, r *http.Request) {
	var req createHoldingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	h, err := s.holdings.Create(r.Context(), ownerOf(r), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toHoldingResponse(h))
}

// handleListHoldings handles GET /api/holdings?tier=&status=
func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	var filter domain.HoldingFilter

	if v := r.URL.Query().Get("tier"); v != "" {
		tier, err := domain.ParseTier(v)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		filter.Tier = &tier
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := domain.ParseHoldingStatus(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Status = &status
	}

	holdings, err := s.holdings.List(r.Context(), ownerOf(r), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toHoldingResponses(holdings))
}

// handleGetHolding handles GET /api/holdings/{id}
func (s *Server) handleGetHolding(w http.ResponseWriter, r *http.Request) {
	id, err := holdingID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	h, err := s.holdings.Get(r.Context(), ownerOf(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toHoldingResponse(h))
}

// handleUpdateHolding handles PATCH /api/holdings/{id}
func (s *Server) handleUpdateHolding(w http.ResponseWriter, r *http.Request) {
	id, err := holdingID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req updateHoldingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h, err := s.holdings.Update(r.Context(), ownerOf(r), id, req.toInput())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toHoldingResponse(h))
}

// handleDeleteHolding handles DELETE /api/holdings/{id}
func (s *Server) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	id, err := holdingID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.holdings.Delete(r.Context(), ownerOf(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRecordTransaction handles POST /api/holdings/{id}/transactions
func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := holdingID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req tradeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	tx, h, err := s.holdings.RecordTransaction(r.Context(), ownerOf(r), id, holding.TradeInput{
		Action:   req.Action,
		Quantity: req.Quantity,
		Price:    req.Price,
		Reason:   req.Reason,
		Date:     date,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, tradeResponse{
		Transaction: toTransactionResponse(tx),
		Holding:     toHoldingResponse(h),
	})
}

// handleListTransactions handles GET /api/holdings/{id}/transactions
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := holdingID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	txs, err := s.holdings.ListTransactions(r.Context(), ownerOf(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handlePreviewPosition handles POST /api/holdings/{id}/preview-transaction
func (s *Server) handlePreviewPosition(w http.ResponseWriter, r *http.Request) {
	id, in, ok := s.positionInput(w, r)
	if !ok {
		return
	}

	preview, err := s.holdings.PreviewPositionUpdate(r.Context(), ownerOf(r), id, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toPreviewResponse(preview))
}

// handleUpdatePosition handles POST /api/holdings/{id}/update-position
func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	id, in, ok := s.positionInput(w, r)
	if !ok {
		return
	}

	h, tx, err := s.holdings.UpdatePosition(r.Context(), ownerOf(r), id, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tradeResponse{
		Transaction: toTransactionResponse(tx),
		Holding:     toHoldingResponse(h),
	})
}

func (s *Server) positionInput(w http.ResponseWriter, r *http.Request) (uuid.UUID, holding.PositionUpdate, bool) {
	id, err := holdingID(r)
	if err != nil {
		s.respondError(w, r, err)
		return uuid.Nil, holding.PositionUpdate{}, false
	}

	var req positionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return uuid.Nil, holding.PositionUpdate{}, false
	}

	in, err := req.toInput()
	if err != nil {
		s.respondError(w, r, err)
		return uuid.Nil, holding.PositionUpdate{}, false
	}
	return id, in, true
}
