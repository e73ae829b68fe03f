package handlers

import (
	"net/http"
	"strconv"

	"conos/internal/bookings"
)

// GetBookingsHandler возвращает список заявок, можно отфильтровать по categoryId
func (h *Handler) GetBookingsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	var categoryID int64
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid categoryId", http.StatusBadRequest)
			return
		}
		categoryID = id
	}

	list, err := h.Bookings.List(r.Context(), categoryID, params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	booking, err := h.Bookings.Get(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// CreateBookingHandler обрабатывает POST /api/bookings/new?agentId=
func (h *Handler) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	agentID, err := queryID(r, "agentId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in bookings.CreateBookingInput
	if err := h.decodeJSONBody(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	booking, err := h.Bookings.Create(r.Context(), agentID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// EditBookingHandler обрабатывает PATCH /api/bookings/{bookingId}/edit?agentId=
func (h *Handler) EditBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	agentID, err := queryID(r, "agentId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in bookings.UpdateBookingInput
	if err := h.decodeJSONBody(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	booking, err := h.Bookings.Update(r.Context(), agentID, bookingID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
