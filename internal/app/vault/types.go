package vault

import (
	"time"

	"github.com/shopspring/decimal"

	"kairos/internal/settle"
)

type BetRequest struct {
	Address   string `json:"address"`
	Amount    int64  `json:"amount"`
	Side      string `json:"side"`
	RoundID   int64  `json:"round_id"`
	Timeframe int64  `json:"timeframe"`
}

type BetResponse struct {
	Success bool   `json:"success"`
	BetID   string `json:"bet_id"`
	Message string `json:"message"`
}

type ResolveRequest struct {
	RoundID     int64  `json:"round_id"`
	WinningSide string `json:"winning_side"`
}

type ResolveResponse struct {
	Success     bool            `json:"success"`
	Resolved    bool            `json:"resolved"`
	Already     bool            `json:"already"`
	WinningSide string          `json:"winning_side"`
	Credits     []settle.Credit `json:"credits"`
}

type FundsRequest struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type FundsResponse struct {
	Success   bool  `json:"success"`
	Available int64 `json:"available"`
}

type BalanceResponse struct {
	Address   string `json:"address"`
	Available int64  `json:"available"`
	Locked    int64  `json:"locked"`
	Points    int64  `json:"points"`
}

type TransfersResponse struct {
	Items  []TransferItem `json:"items"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type TransferItem struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Meta      any       `json:"meta"`
	CreatedAt time.Time `json:"created_at"`
}

type RoundResponse struct {
	RoundID     int64            `json:"round_id"`
	Timeframe   int64            `json:"timeframe"`
	Symbol      string           `json:"symbol"`
	StartAt     time.Time        `json:"start_at"`
	EndAt       time.Time        `json:"end_at"`
	Status      string           `json:"status"`
	WinningSide *string          `json:"winning_side"`
	EntryPrice  *decimal.Decimal `json:"entry_price"`
	ExitPrice   *decimal.Decimal `json:"exit_price"`
}

type CurrentRoundResponse struct {
	RoundID   int64     `json:"round_id"`
	Timeframe int64     `json:"timeframe"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
}

type PriceResponse struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Source string          `json:"source"`
	At     time.Time       `json:"at"`
}

type LeaderboardResponse struct {
	Items  []LeaderboardItem `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type LeaderboardItem struct {
	Address string `json:"address"`
	Points  int64  `json:"points"`
	Net     int64  `json:"net"`
}
