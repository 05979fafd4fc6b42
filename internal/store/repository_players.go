package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

func transferMeta(kv map[string]any) json.RawMessage {
	b, _ := json.Marshal(kv)
	return b
}

// ensurePlayerTx lazily creates the player and its zero balance row.
// Safe under concurrent first bets for the same address: the insert is
// ON CONFLICT DO NOTHING and the id is re-read afterwards.
func ensurePlayerTx(ctx context.Context, tx *sql.Tx, address string) (string, error) {
	if _, err := tx.ExecContext(ctx, `INSERT INTO players (id, address) VALUES ($1,$2) ON CONFLICT (address) DO NOTHING`, NewID(), address); err != nil {
		return "", err
	}
	var playerID string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM players WHERE address = $1`, address).Scan(&playerID); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO balances (player_id) VALUES ($1) ON CONFLICT (player_id) DO NOTHING`, playerID); err != nil {
		return "", err
	}
	return playerID, nil
}

func lockBalanceTx(ctx context.Context, tx *sql.Tx, playerID string) (*Balance, error) {
	row := tx.QueryRowContext(ctx, `SELECT player_id, available, locked, points FROM balances WHERE player_id = $1 FOR UPDATE`, playerID)
	var b Balance
	if err := row.Scan(&b.PlayerID, &b.Available, &b.Locked, &b.Points); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetPlayerByAddress(ctx context.Context, address string) (*Player, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, address, created_at FROM players WHERE address = $1`, address)
	var p Player
	if err := row.Scan(&p.ID, &p.Address, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetBalanceByAddress(ctx context.Context, address string) (*Balance, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT b.player_id, b.available, b.locked, b.points, b.updated_at
		FROM balances b JOIN players p ON p.id = b.player_id
		WHERE p.address = $1`, address)
	var b Balance
	if err := row.Scan(&b.PlayerID, &b.Available, &b.Locked, &b.Points, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Deposit credits available funds and appends a deposit transfer. The
// player is created lazily so a deposit can be the first touch.
func (s *Store) Deposit(ctx context.Context, address string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errors.New("amount must be positive")
	}
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	playerID, err := ensurePlayerTx(ctx, tx, address)
	if err != nil {
		return 0, err
	}
	bal, err := lockBalanceTx(ctx, tx, playerID)
	if err != nil {
		return 0, err
	}
	newAvailable := bal.Available + amount
	if _, err := tx.ExecContext(ctx, `UPDATE balances SET available = $1, updated_at = now() WHERE player_id = $2`, newAvailable, playerID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO transfers (id, player_id, type, amount, meta) VALUES ($1,$2,$3,$4,$5)`,
		NewID(), playerID, TransferDeposit, amount, transferMeta(map[string]any{"address": address})); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newAvailable, nil
}

func (s *Store) Withdraw(ctx context.Context, address string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errors.New("amount must be positive")
	}
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	player, err := s.getPlayerTx(ctx, tx, address)
	if err != nil {
		return 0, err
	}
	bal, err := lockBalanceTx(ctx, tx, player.ID)
	if err != nil {
		return 0, err
	}
	if bal.Available < amount {
		return 0, ErrInsufficientBalance
	}
	newAvailable := bal.Available - amount
	if _, err := tx.ExecContext(ctx, `UPDATE balances SET available = $1, updated_at = now() WHERE player_id = $2`, newAvailable, player.ID); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO transfers (id, player_id, type, amount, meta) VALUES ($1,$2,$3,$4,$5)`,
		NewID(), player.ID, TransferWithdrawal, -amount, transferMeta(map[string]any{"address": address})); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newAvailable, nil
}

func (s *Store) getPlayerTx(ctx context.Context, tx *sql.Tx, address string) (*Player, error) {
	row := tx.QueryRowContext(ctx, `SELECT id, address, created_at FROM players WHERE address = $1`, address)
	var p Player
	if err := row.Scan(&p.ID, &p.Address, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListTransfersByAddress(ctx context.Context, address string, limit, offset int) ([]Transfer, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT t.id, t.player_id, t.type, t.amount, t.meta, t.created_at
		FROM transfers t JOIN players p ON p.id = t.player_id
		WHERE p.address = $1
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3`, address, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transfer{}
	for rows.Next() {
		var t Transfer
		if err := rows.Scan(&t.ID, &t.PlayerID, &t.Type, &t.Amount, &t.Meta, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CountTransfers(ctx context.Context, playerID, transferType string, roundID int64) (int, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM transfers
		WHERE player_id = $1 AND type = $2 AND (meta->>'round_id')::bigint = $3`, playerID, transferType, roundID)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

func (s *Store) ListLeaderboard(ctx context.Context, limit, offset int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT p.address, b.points, b.available + b.locked AS net
		FROM balances b JOIN players p ON p.id = b.player_id
		ORDER BY b.points DESC, p.address ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Address, &e.Points, &e.Net); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
