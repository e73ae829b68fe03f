package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger кладет request id в контекст логгера
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = h.log.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Routes собирает маршруты /api
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)

	r.Get("/ping", h.PingHandler)

	// справочники
	r.Get("/categories", h.GetCategoriesHandler)
	r.Post("/categories/new", h.CreateCategoryHandler)
	r.Post("/consumers/new", h.CreateConsumerHandler)
	r.Get("/consumers/{consumerId}", h.GetConsumerHandler)
	r.Post("/preferred/new", h.CreatePreferredHandler)

	// подрядчики
	r.Get("/contractors", h.GetContractorsHandler)
	r.Post("/contractors/new", h.CreateContractorHandler)
	r.Get("/contractors/{contractorId}", h.GetContractorHandler)
	r.Put("/contractors/{contractorId}/active", h.SetContractorActiveHandler)
	r.Get("/contractors/{contractorId}/balance", h.GetBalanceHandler)
	r.Get("/contractors/{contractorId}/transactions", h.GetTransactionsHandler)
	r.Post("/contractors/{contractorId}/credits", h.BuyCreditsHandler)
	r.Get("/contractors/{contractorId}/bids", h.GetContractorBidsHandler)
	r.Get("/contractors/{contractorId}/eligibility", h.GetEligibilityHandler)
	r.Get("/contractors/{contractorId}/preferred", h.GetPreferredHandler)

	// заявки
	r.Get("/bookings", h.GetBookingsHandler)
	r.Post("/bookings/new", h.CreateBookingHandler)
	r.Get("/bookings/{bookingId}", h.GetBookingHandler)
	r.Patch("/bookings/{bookingId}/edit", h.EditBookingHandler)
	r.Get("/bookings/{bookingId}/auction", h.GetAuctionHandler)
	r.Post("/bookings/{bookingId}/settle", h.SettleAuctionHandler)

	// ставки
	r.Post("/bids/new", h.CreateBidHandler)
	r.Get("/bids/{bidId}", h.GetBidHandler)
	r.Put("/bids/{bidId}/status", h.UpdateBidStatusHandler)

	return r
}
