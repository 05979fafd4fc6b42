package settle

import (
	"github.com/shopspring/decimal"

	"kairos/internal/store"
)

// WinnerPayout computes the net credit for a winning stake: double the
// stake minus the house fee on the gross. All arithmetic stays in int64
// minor units; feeBps is basis points of the gross.
func WinnerPayout(amount, feeBps int64) (net, fee int64) {
	gross := amount * 2
	fee = gross * feeBps / 10_000
	return gross - fee, fee
}

// Outcome maps a bet side and the round's winning side to the bet's
// terminal status. A tie refunds both sides.
func Outcome(betSide, winningSide string) string {
	if winningSide == store.SideTie {
		return store.BetRefunded
	}
	if betSide == winningSide {
		return store.BetWon
	}
	return store.BetLost
}

// SideForPrices determines the winning side from the entry and exit
// snapshots. Moves within epsilon count as a tie.
func SideForPrices(entry, exit, epsilon decimal.Decimal) string {
	diff := exit.Sub(entry)
	if diff.Abs().LessThanOrEqual(epsilon) {
		return store.SideTie
	}
	if diff.Sign() > 0 {
		return store.SideUp
	}
	return store.SideDown
}
