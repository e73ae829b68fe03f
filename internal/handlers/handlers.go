package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"conos/db"
	"conos/internal/apperrors"
	"conos/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1048576

type Services struct {
	Bookings    BookingService
	Ledger      LedgerService
	Bidding     BiddingService
	Preferences PreferenceService
}

// Handler связывает HTTP запросы с сервисами и справочным хранилищем
type Handler struct {
	Store       StorageInterface
	Bookings    BookingService
	Ledger      LedgerService
	Bidding     BiddingService
	Preferences PreferenceService

	log      *logger.Logger
	validate *validator.Validate
}

// NewHandler создает новый Handler
func NewHandler(store StorageInterface, services Services, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Store:       store,
		Bookings:    services.Bookings,
		Ledger:      services.Ledger,
		Bidding:     services.Bidding,
		Preferences: services.Preferences,
		log:         log,
		validate:    newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// PingHandler отвечает "ok", если база доступна
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.log.Error(r.Context(), "ping database", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// decodeJSONBody читает тело с ограничением размера и валидирует его
func (h *Handler) decodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() {
		io.Copy(io.Discard, r.Body)
		r.Body.Close()
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err, "invalid JSON body")
	}
	if err := h.validate.Struct(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s %s", fe.Field(), validationMessage(fe)))
			}
			return apperrors.InvalidArgument("validation failed: %s", strings.Join(fields, "; "))
		}
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err, "validation failed")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}

type errorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
	Reason  string         `json:"reason,omitempty"`
}

// writeError переводит ошибку ядра в HTTP статус и JSON ответ
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, db.ErrNotFound) {
		err = apperrors.Wrap(apperrors.CodeNotFound, err, "resource not found")
	}
	code := apperrors.CodeOf(err)
	meta := apperrors.MetadataFor(code)

	resp := errorResponse{Code: code, Message: meta.PublicMessage}
	var notEligible *apperrors.ContractorNotEligible
	var notAuthorized *apperrors.AgentNotAuthorized
	switch {
	case errors.As(err, &notEligible):
		resp.Message = notEligible.Error()
		resp.Reason = notEligible.Reason
	case errors.As(err, &notAuthorized):
		resp.Message = notAuthorized.Error()
	default:
		if typed := apperrors.As(err); typed != nil && code != apperrors.CodeInternal {
			resp.Message = typed.Message()
		}
	}

	if meta.HTTPStatus >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", err)
	}
	writeJSON(w, meta.HTTPStatus, resp)
}

func invalid(err error) error {
	return apperrors.Wrap(apperrors.CodeInvalidArgument, err, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// pathID читает положительный int64 из параметра пути chi
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidArgument("invalid %s", name)
	}
	return id, nil
}

// queryID читает обязательный положительный int64 из query
func queryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, apperrors.InvalidArgument("missing %s parameter", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidArgument("invalid %s", name)
	}
	return id, nil
}

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Limit: 20}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		params.Offset = o
	}
	return params
}
