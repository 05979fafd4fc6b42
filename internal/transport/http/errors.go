package httptransport

import (
	"errors"
	"net/http"

	"kairos/internal/app/vault"
	"kairos/internal/ledger"
	"kairos/internal/settle"
	"kairos/internal/store"
)

// writeServiceError maps application sentinels onto HTTP statuses. The
// body carries the sentinel's message verbatim so clients can switch on
// a stable snake_case code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrInvalidRequest),
		errors.Is(err, vault.ErrInvalidAddress),
		errors.Is(err, vault.ErrUnknownSymbol),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidSide),
		errors.Is(err, ledger.ErrRoundEnded),
		errors.Is(err, ledger.ErrRoundInFuture),
		errors.Is(err, ledger.ErrInvalidRound),
		errors.Is(err, settle.ErrInvalidWinningSide),
		errors.Is(err, settle.ErrRoundNotEnded),
		errors.Is(err, store.ErrInsufficientBalance),
		errors.Is(err, store.ErrDuplicateBet):
		WriteHTTPError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		WriteHTTPError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, vault.ErrPriceUnavailable):
		WriteHTTPError(w, http.StatusServiceUnavailable, "price_unavailable")
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}
