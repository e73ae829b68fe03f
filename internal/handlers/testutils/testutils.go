package testutils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
)

// NewRequest собирает запрос для хендлера: JSON тело (если есть) и параметры пути chi.
func NewRequest(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if len(params) > 0 {
		req = WithChiURLParams(req, params)
	}
	return req
}

// WithChiURLParams подставляет параметры пути в контекст chi запроса.
func WithChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.RouteContext(req.Context())
	if chiCtx == nil {
		chiCtx = chi.NewRouteContext()
	}
	for k, v := range params {
		chiCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}
