package store

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	SideUp   = "up"
	SideDown = "down"
	// SideTie is a resolution outcome, never a bettable side.
	SideTie = "tie"

	BetPending  = "pending"
	BetWon      = "won"
	BetLost     = "lost"
	BetRefunded = "refunded"

	RoundPending  = "pending"
	RoundResolved = "resolved"

	TransferBetLock    = "bet_lock"
	TransferBetRelease = "bet_release"
	TransferPayout     = "payout"
	TransferDeposit    = "deposit"
	TransferWithdrawal = "withdrawal"
)

type Player struct {
	ID        string
	Address   string
	CreatedAt time.Time
}

// Balance amounts are integer minor units. Invariant: available >= 0,
// locked >= 0, and locked equals the sum of the player's pending bets.
type Balance struct {
	PlayerID  string
	Available int64
	Locked    int64
	Points    int64
	UpdatedAt time.Time
}

// Round id is the epoch second the round starts at; see internal/round.
type Round struct {
	ID          int64
	Timeframe   int64
	Symbol      string
	StartAt     time.Time
	EndAt       time.Time
	Status      string
	WinningSide *string
	EntryPrice  decimal.NullDecimal
	ExitPrice   decimal.NullDecimal
	ResolvedAt  *time.Time
}

type Bet struct {
	ID        string
	PlayerID  string
	RoundID   int64
	Side      string
	Amount    int64
	Status    string
	Payout    int64
	CreatedAt time.Time
	SettledAt *time.Time
}

// Transfer rows are the append-only audit trail. Every bet_lock is
// paired with a bet_release on the bet's terminal path: positive when
// the stake returns, negative when it is forfeited. Won bets add a
// payout row carrying the full fee-net credit.
type Transfer struct {
	ID        string
	PlayerID  string
	Type      string
	Amount    int64
	Meta      json.RawMessage
	CreatedAt time.Time
}

type LeaderboardEntry struct {
	Address string
	Points  int64
	Net     int64
}
