package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

func (s *Store) GetRound(ctx context.Context, id int64) (*Round, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, timeframe, symbol, start_at, end_at, status, winning_side, entry_price, exit_price, resolved_at
		FROM rounds WHERE id = $1`, id)
	var r Round
	if err := row.Scan(&r.ID, &r.Timeframe, &r.Symbol, &r.StartAt, &r.EndAt, &r.Status, &r.WinningSide, &r.EntryPrice, &r.ExitPrice, &r.ResolvedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// EnsureRound creates the round row if it does not exist yet. Rounds are
// created implicitly by the first bet or by the resolver snapshotting an
// entry price, whichever comes first.
func (s *Store) EnsureRound(ctx context.Context, r Round) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO rounds (id, timeframe, symbol, start_at, end_at, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Timeframe, r.Symbol, r.StartAt, r.EndAt, RoundPending)
	return err
}

// SetRoundEntryPrice records the authoritative entry snapshot exactly
// once; later calls with a different quote are no-ops.
func (s *Store) SetRoundEntryPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE rounds SET entry_price = $1 WHERE id = $2 AND entry_price IS NULL`, price, id)
	return err
}

// MarkRoundResolved flips the round to resolved, guarded by the pending
// status so concurrent resolvers race safely. Returns false when the
// round was already resolved.
func (s *Store) MarkRoundResolved(ctx context.Context, id int64, winningSide string, exitPrice decimal.NullDecimal) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE rounds SET status = $1, winning_side = $2, exit_price = $3, resolved_at = now()
		WHERE id = $4 AND status = $5`,
		RoundResolved, winningSide, exitPrice, id, RoundPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListDueRounds returns unresolved rounds whose window has closed and
// that have at least one pending bet worth settling.
func (s *Store) ListDueRounds(ctx context.Context, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT r.id, r.timeframe, r.symbol, r.start_at, r.end_at, r.status, r.winning_side, r.entry_price, r.exit_price, r.resolved_at
		FROM rounds r
		WHERE r.status = $1 AND r.end_at <= now()
		  AND EXISTS (SELECT 1 FROM bets b WHERE b.round_id = r.id AND b.status = $2)
		ORDER BY r.end_at ASC
		LIMIT $3`, RoundPending, BetPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Round{}
	for rows.Next() {
		var r Round
		if err := rows.Scan(&r.ID, &r.Timeframe, &r.Symbol, &r.StartAt, &r.EndAt, &r.Status, &r.WinningSide, &r.EntryPrice, &r.ExitPrice, &r.ResolvedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
