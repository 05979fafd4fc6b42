// Package ledger is the off-chain book of record for player funds:
// wagers, deposits, withdrawals and balance reads. It owns the business
// rules around bet placement; the mechanical row updates live in store.
package ledger

import (
	"context"
	"errors"
	"time"

	"kairos/internal/round"
	"kairos/internal/store"
)

var (
	ErrRoundEnded    = errors.New("round_ended")
	ErrRoundInFuture = errors.New("round_in_future")
	ErrInvalidRound  = errors.New("invalid_round")
	ErrInvalidSide   = errors.New("invalid_side")
	ErrInvalidAmount = errors.New("invalid_amount")
)

type Ledger struct {
	store        *store.Store
	stakeUnit    int64
	futureBuffer time.Duration
	now          func() time.Time
}

func New(st *store.Store, stakeUnit int64, futureBuffer time.Duration) *Ledger {
	if stakeUnit <= 0 {
		stakeUnit = 1_000_000
	}
	return &Ledger{store: st, stakeUnit: stakeUnit, futureBuffer: futureBuffer, now: time.Now}
}

// PlaceBet validates the wager against the wall clock and hands the
// whole mutation to the store as one transaction. roundID must be the
// canonical id for a round that is still open: ended rounds and rounds
// starting beyond the skew buffer are rejected before touching the
// database.
func (l *Ledger) PlaceBet(ctx context.Context, address string, amount int64, side string, roundID, timeframe int64, symbol string) (*store.Bet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if side != store.SideUp && side != store.SideDown {
		return nil, ErrInvalidSide
	}
	// Only canonical ids are bettable. An off-grid id would sit outside
	// the resolver's grid, never get an entry snapshot, and settle as a
	// risk-free tie.
	if timeframe <= 0 || roundID%timeframe != 0 {
		return nil, ErrInvalidRound
	}
	now := l.now()
	if round.Ended(roundID, timeframe, now) {
		return nil, ErrRoundEnded
	}
	if round.TooFarInFuture(roundID, now, l.futureBuffer) {
		return nil, ErrRoundInFuture
	}

	return l.store.PlaceBet(ctx, store.PlaceBetParams{
		Address:   address,
		Amount:    amount,
		Side:      side,
		RoundID:   roundID,
		Timeframe: timeframe,
		Symbol:    symbol,
		Points:    PointsForStake(amount, l.stakeUnit),
	})
}

func (l *Ledger) Deposit(ctx context.Context, address string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.store.Deposit(ctx, address, amount)
}

func (l *Ledger) Withdraw(ctx context.Context, address string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.store.Withdraw(ctx, address, amount)
}

// Balances soft-returns a zero balance for unknown players: a player
// exists only once they have funds, but the read side should not 404 a
// fresh wallet.
func (l *Ledger) Balances(ctx context.Context, address string) (*store.Balance, error) {
	bal, err := l.store.GetBalanceByAddress(ctx, address)
	if errors.Is(err, store.ErrNotFound) {
		return &store.Balance{}, nil
	}
	return bal, err
}

func (l *Ledger) Transfers(ctx context.Context, address string, limit, offset int) ([]store.Transfer, error) {
	return l.store.ListTransfersByAddress(ctx, address, limit, offset)
}
