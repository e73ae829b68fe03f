package handlers

import (
	"net/http"

	"conos/models"
)

func (h *Handler) GetCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if err := h.decodeJSONBody(w, r, &c); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.CreateCategory(r.Context(), &c); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type createConsumerRequest struct {
	Name         string `json:"name" validate:"required,max=64"`
	PhoneNumber  string `json:"phoneNumber" validate:"required,max=32"`
	EmailAddress string `json:"emailAddress" validate:"required,email"`
}

func (h *Handler) CreateConsumerHandler(w http.ResponseWriter, r *http.Request) {
	var req createConsumerRequest
	if err := h.decodeJSONBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c := &models.Consumer{Name: req.Name, PhoneNumber: req.PhoneNumber, EmailAddress: req.EmailAddress}
	if err := h.Store.CreateConsumer(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) GetConsumerHandler(w http.ResponseWriter, r *http.Request) {
	consumerID, err := pathID(r, "consumerId")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Store.GetConsumer(r.Context(), consumerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type createPreferredRequest struct {
	ContractorID int64    `json:"contractorId" validate:"required,gt=0"`
	CategoryID   int64    `json:"categoryId" validate:"required,gt=0"`
	PostRanges   [][2]int `json:"postRanges" validate:"required,min=1"`
}

// CreatePreferredHandler: диапазоны индексов приходят парами [lower, upper)
func (h *Handler) CreatePreferredHandler(w http.ResponseWriter, r *http.Request) {
	var req createPreferredRequest
	if err := h.decodeJSONBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	ranges, err := models.NewPostRanges(req.PostRanges...)
	if err != nil {
		h.writeError(w, r, invalid(err))
		return
	}
	p := &models.Preferred{ContractorID: req.ContractorID, CategoryID: req.CategoryID, PostRanges: ranges}
	if err := h.Store.CreatePreferred(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
