package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kairos/internal/app/vault"
	"kairos/internal/ledger"
	"kairos/internal/store"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 50, 0},
		{"explicit", "limit=10&offset=20", 10, 20},
		{"clamped high", "limit=9999", 500, 0},
		{"clamped low", "limit=0&offset=-5", 1, 0},
		{"garbage ignored", "limit=abc&offset=xyz", 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			limit, offset := ParsePagination(r)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Fatalf("got %d/%d, want %d/%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestWriteServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{vault.ErrInvalidAddress, http.StatusBadRequest, "invalid_address"},
		{ledger.ErrRoundEnded, http.StatusBadRequest, "round_ended"},
		{store.ErrInsufficientBalance, http.StatusBadRequest, "insufficient_balance"},
		{store.ErrDuplicateBet, http.StatusBadRequest, "duplicate_bet"},
		{store.ErrNotFound, http.StatusNotFound, "not_found"},
		{vault.ErrPriceUnavailable, http.StatusServiceUnavailable, "price_unavailable"},
		{http.ErrServerClosed, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tt.wantCode {
				t.Fatalf("code = %q, want %q", body["error"], tt.wantCode)
			}
		})
	}
}

func TestAdminAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("empty key leaves route open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AdminAuthMiddleware("")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
	})
	t.Run("missing key rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AdminAuthMiddleware("secret")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
	t.Run("header key accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Admin-Key", "secret")
		rec := httptest.NewRecorder()
		AdminAuthMiddleware("secret")(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
	})
	t.Run("bearer key accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		AdminAuthMiddleware("secret")(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
	})
}
