package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"kairos/internal/app/vault"
	"kairos/internal/store"

	"github.com/go-chi/chi/v5"
)

type RoundHandlers struct {
	svc *vault.Service
}

func NewRoundHandlers(svc *vault.Service) *RoundHandlers {
	return &RoundHandlers{svc: svc}
}

func (h *RoundHandlers) Current() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var timeframe int64
		if v := r.URL.Query().Get("timeframe"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 1 {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			timeframe = n
		}
		_ = json.NewEncoder(w).Encode(h.svc.CurrentRound(timeframe))
	}
}

func (h *RoundHandlers) ByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roundID, err := strconv.ParseInt(chi.URLParam(r, "round_id"), 10, 64)
		if err != nil || roundID <= 0 {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		resp, err := h.svc.Round(r.Context(), roundID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "round_not_found")
				return
			}
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
