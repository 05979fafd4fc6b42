package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PlaceBetParams struct {
	Address   string
	Amount    int64
	Side      string
	RoundID   int64
	Timeframe int64
	Symbol    string
	// Points is the loyalty award computed by the ledger's tier table.
	Points int64
}

// PlaceBet runs the whole wager as one transaction: lazily create the
// player, lock the balance row, move amount from available to locked,
// award points, ensure the round row, insert the pending bet and append
// the bet_lock transfer. No partial state is observable outside the
// transaction. The (player_id, round_id) unique index turns concurrent
// duplicates into ErrDuplicateBet.
func (s *Store) PlaceBet(ctx context.Context, p PlaceBetParams) (*Bet, error) {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	playerID, err := ensurePlayerTx(ctx, tx, p.Address)
	if err != nil {
		return nil, err
	}
	bal, err := lockBalanceTx(ctx, tx, playerID)
	if err != nil {
		return nil, err
	}
	if bal.Available < p.Amount {
		return nil, ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rounds (id, timeframe, symbol, start_at, end_at, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING`,
		p.RoundID, p.Timeframe, p.Symbol, time.Unix(p.RoundID, 0).UTC(), time.Unix(p.RoundID+p.Timeframe, 0).UTC(), RoundPending); err != nil {
		return nil, err
	}

	bet := &Bet{
		ID:       NewID(),
		PlayerID: playerID,
		RoundID:  p.RoundID,
		Side:     p.Side,
		Amount:   p.Amount,
		Status:   BetPending,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bets (id, player_id, round_id, side, amount, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		bet.ID, bet.PlayerID, bet.RoundID, bet.Side, bet.Amount, bet.Status); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateBet
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE balances SET available = available - $1, locked = locked + $1, points = points + $2, updated_at = now()
		WHERE player_id = $3`, p.Amount, p.Points, playerID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO transfers (id, player_id, type, amount, meta) VALUES ($1,$2,$3,$4,$5)`,
		NewID(), playerID, TransferBetLock, -p.Amount,
		transferMeta(map[string]any{"round_id": p.RoundID, "bet_id": bet.ID})); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return bet, nil
}

func (s *Store) GetBet(ctx context.Context, id string) (*Bet, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, player_id, round_id, side, amount, status, payout, created_at, settled_at
		FROM bets WHERE id = $1`, id)
	var b Bet
	if err := row.Scan(&b.ID, &b.PlayerID, &b.RoundID, &b.Side, &b.Amount, &b.Status, &b.Payout, &b.CreatedAt, &b.SettledAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) ListPendingBets(ctx context.Context, roundID int64) ([]Bet, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, player_id, round_id, side, amount, status, payout, created_at, settled_at
		FROM bets WHERE round_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC`, roundID, BetPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Bet{}
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.PlayerID, &b.RoundID, &b.Side, &b.Amount, &b.Status, &b.Payout, &b.CreatedAt, &b.SettledAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SettleBet transitions one pending bet to its terminal status in its own
// transaction: the bet row is locked and re-checked so the transition
// happens exactly once no matter how many resolvers race. payoutNet is
// the amount credited to available for a won bet; it is ignored for lost
// and refunded outcomes.
//
// Returns the net change to the player's available balance.
func (s *Store) SettleBet(ctx context.Context, betID, status string, payoutNet int64) (int64, error) {
	switch status {
	case BetWon, BetLost, BetRefunded:
	default:
		return 0, errors.New("invalid terminal status")
	}

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, player_id, round_id, side, amount, status
		FROM bets WHERE id = $1 FOR UPDATE`, betID)
	var b Bet
	if err := row.Scan(&b.ID, &b.PlayerID, &b.RoundID, &b.Side, &b.Amount, &b.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if b.Status != BetPending {
		return 0, ErrBetNotPending
	}

	bal, err := lockBalanceTx(ctx, tx, b.PlayerID)
	if err != nil {
		return 0, err
	}
	if bal.Locked < b.Amount {
		return 0, errors.New("locked balance below bet amount")
	}

	var availableDelta, payout int64
	switch status {
	case BetWon:
		availableDelta = payoutNet
		payout = payoutNet
	case BetRefunded:
		availableDelta = b.Amount
	case BetLost:
		availableDelta = 0
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE balances SET available = available + $1, locked = locked - $2, updated_at = now()
		WHERE player_id = $3`, availableDelta, b.Amount, b.PlayerID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE bets SET status = $1, payout = $2, settled_at = now() WHERE id = $3`,
		status, payout, betID); err != nil {
		return 0, err
	}

	// Every terminal path pairs the bet_lock with a bet_release: positive
	// when the stake comes back (won, refunded), negative when it is
	// forfeited (lost). A won bet additionally books the full fee-net
	// payout.
	meta := map[string]any{"round_id": b.RoundID, "bet_id": b.ID}
	releaseAmount := b.Amount
	if status == BetLost {
		releaseAmount = -b.Amount
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO transfers (id, player_id, type, amount, meta) VALUES ($1,$2,$3,$4,$5)`,
		NewID(), b.PlayerID, TransferBetRelease, releaseAmount, transferMeta(meta)); err != nil {
		return 0, err
	}
	if status == BetWon {
		if _, err := tx.ExecContext(ctx, `INSERT INTO transfers (id, player_id, type, amount, meta) VALUES ($1,$2,$3,$4,$5)`,
			NewID(), b.PlayerID, TransferPayout, payoutNet, transferMeta(meta)); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return availableDelta, nil
}
