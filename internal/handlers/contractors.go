package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"conos/internal/apperrors"
	"conos/models"

	"github.com/shopspring/decimal"
)

type createContractorRequest struct {
	Name        string  `json:"name" validate:"required,max=128"`
	PhoneNumber string  `json:"phoneNumber" validate:"max=32"`
	Categories  []int64 `json:"categories" validate:"dive,gt=0"`
}

func (h *Handler) CreateContractorHandler(w http.ResponseWriter, r *http.Request) {
	var req createContractorRequest
	if err := h.decodeJSONBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c := &models.Contractor{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Active:      true,
		Categories:  req.Categories,
	}
	if err := h.Store.CreateContractor(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) GetContractorsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	list, err := h.Store.ListContractors(r.Context(), params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetContractorHandler(w http.ResponseWriter, r *http.Request) {
	contractorID, err := pathID(r, "contractorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Store.GetContractor(r.Context(), contractorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// SetContractorActiveHandler: PUT /api/contractors/{contractorId}/active?active=
func (h *Handler) SetContractorActiveHandler(w http.ResponseWriter, r *http.Request) {
	contractorID, err := pathID(r, "contractorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	active, err := strconv.ParseBool(r.URL.Query().Get("active"))
	if err != nil {
		h.writeError(w, r, apperrors.InvalidArgument("invalid active parameter"))
		return
	}
	if err := h.Store.SetContractorActive(r.Context(), contractorID, active); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": contractorID, "active": active})
}

type balanceResponse struct {
	ContractorID int64           `json:"contractorId"`
	Balance      decimal.Decimal `json:"balance"`
}

func (h *Handler) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	contractorID, err := pathID(r, "contractorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	balance, err := h.Ledger.Balance(r.Context(), contractorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{ContractorID: contractorID, Balance: balance})
}

func (h *Handler) GetTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	contractorID, err := pathID(r, "contractorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, err := h.Ledger.History(r.Context(), contractorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) GetContractorBidsHandler(w http.ResponseWriter, r *http.Request) {
	contractorID, err := pathID(r, "contractorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bids, err := h.Bidding.Bids(r.Context(), contractorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

type buyCreditsRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Comment string          `json:"comment" validate:"max=500"`
}

// BuyCreditsHandler: POST /api/contractors/{contractorId}/credits?agentId=
func (h *Handler) BuyCreditsHandler(w http.ResponseWriter, r *http.Request) {
	contractorID, err := pathID(r, "contractorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	agentID, err := queryID(r, "agentId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req buyCreditsRequest
	if err := h.decodeJSONBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.Ledger.BuyCredits(r.Context(), agentID, contractorID, req.Amount, req.Comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type eligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// GetEligibilityHandler: GET /api/contractors/{contractorId}/eligibility?bookingId=
// Отказ по допуску - это нормальный ответ 200 с причиной.
func (h *Handler) GetEligibilityHandler(w http.ResponseWriter, r *http.Request) {
	contractorID, err := pathID(r, "contractorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bookingID, err := queryID(r, "bookingId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	err = h.Bidding.CanBid(r.Context(), contractorID, bookingID)
	var notEligible *apperrors.ContractorNotEligible
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, eligibilityResponse{Eligible: true})
	case errors.As(err, &notEligible):
		writeJSON(w, http.StatusOK, eligibilityResponse{Eligible: false, Reason: notEligible.Reason})
	default:
		h.writeError(w, r, err)
	}
}

type preferredResponse struct {
	Preferred bool `json:"preferred"`
}

// GetPreferredHandler: GET /api/contractors/{contractorId}/preferred?bookingId=
func (h *Handler) GetPreferredHandler(w http.ResponseWriter, r *http.Request) {
	contractorID, err := pathID(r, "contractorId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	bookingID, err := queryID(r, "bookingId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	booking, err := h.Bookings.Get(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	preferred, err := h.Preferences.IsPreferred(r.Context(), contractorID, booking)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preferredResponse{Preferred: preferred})
}
