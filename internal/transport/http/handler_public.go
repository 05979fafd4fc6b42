package httptransport

import (
	"encoding/json"
	"net/http"

	"kairos/internal/app/vault"
	"kairos/internal/store"
)

type PublicHandlers struct {
	svc   *vault.Service
	store *store.Store
}

func NewPublicHandlers(svc *vault.Service, st *store.Store) *PublicHandlers {
	return &PublicHandlers{svc: svc, store: st}
}

func (h *PublicHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}

func (h *PublicHandlers) Price() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricPriceQueryTotal.Add(1)
		resp, err := h.svc.Price(r.Context(), r.URL.Query().Get("symbol"))
		if err != nil {
			metricPriceQueryErrors.Add(1)
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *PublicHandlers) Leaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		if limit > 100 {
			limit = 100
		}
		resp, err := h.svc.Leaderboard(r.Context(), limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
