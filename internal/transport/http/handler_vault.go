package httptransport

import (
	"encoding/json"
	"net/http"

	"kairos/internal/app/vault"
)

type VaultHandlers struct {
	svc *vault.Service
}

func NewVaultHandlers(svc *vault.Service) *VaultHandlers {
	return &VaultHandlers{svc: svc}
}

func (h *VaultHandlers) Bet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricBetSubmitTotal.Add(1)
		var req vault.BetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricBetSubmitErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		resp, err := h.svc.PlaceBet(r.Context(), req)
		if err != nil {
			metricBetSubmitErrors.Add(1)
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *VaultHandlers) Resolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricResolveTotal.Add(1)
		var req vault.ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricResolveErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		resp, err := h.svc.Resolve(r.Context(), req)
		if err != nil {
			metricResolveErrors.Add(1)
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *VaultHandlers) Deposit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req vault.FundsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		resp, err := h.svc.Deposit(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *VaultHandlers) Withdraw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req vault.FundsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		resp, err := h.svc.Withdraw(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *VaultHandlers) Balance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Balance(r.Context(), r.URL.Query().Get("address"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *VaultHandlers) Transfers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		resp, err := h.svc.Transfers(r.Context(), r.URL.Query().Get("address"), limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
