package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	ErrNotFound            = errors.New("not_found")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrDuplicateBet        = errors.New("duplicate_bet")
	ErrBetNotPending       = errors.New("bet_not_pending")
)

// Store wraps DB access. All money movement happens inside explicit
// transactions with the balance row locked FOR UPDATE; the row lock is
// the only mutual-exclusion mechanism in the system.
type Store struct {
	DB *sql.DB
}

func New(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() {
	if s.DB != nil {
		_ = s.DB.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.DB.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
