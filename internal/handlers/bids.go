package handlers

import (
	"net/http"
	"strings"

	"conos/internal/apperrors"
	"conos/internal/bidding"
	"conos/models"
)

type placeBidResponse struct {
	Bid         *models.Bid         `json:"bid"`
	Transaction *models.Transaction `json:"transaction"`
}

// CreateBidHandler обрабатывает POST /api/bids/new
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	var in bidding.PlaceBidInput
	if err := h.decodeJSONBody(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	bid, entry, err := h.Bidding.PlaceBid(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeBidResponse{Bid: bid, Transaction: entry})
}

func (h *Handler) GetBidHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathID(r, "bidId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bid, err := h.Bidding.Bid(r.Context(), bidID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bid)
}

// UpdateBidStatusHandler закрывает ставку: PUT /api/bids/{bidId}/status?status=
func (h *Handler) UpdateBidStatusHandler(w http.ResponseWriter, r *http.Request) {
	bidID, err := pathID(r, "bidId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		h.writeError(w, r, apperrors.InvalidArgument("missing status parameter"))
		return
	}
	status, err := models.ParseBidStatus(strings.ToLower(raw))
	if err != nil {
		h.writeError(w, r, invalid(err))
		return
	}

	bid, entry, err := h.Bidding.CloseBid(r.Context(), bidID, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeBidResponse{Bid: bid, Transaction: entry})
}

// GetAuctionHandler показывает результат аукциона без изменений
func (h *Handler) GetAuctionHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.Bidding.RunAuction(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SettleAuctionHandler проводит аукцион и закрывает все ставки заявки
func (h *Handler) SettleAuctionHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	settlement, err := h.Bidding.SettleAuction(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settlement)
}
