package ledger

// PointsForStake awards loyalty points as a tiered percentage of the
// staked amount. Smaller stakes earn a higher percentage, nudging new
// players; whales still out-earn them in absolute points.
//
// amount >= 0.1 unit -> 25%, >= 0.05 -> 50%, >= 0.01 -> 75%, else 100%.
func PointsForStake(amount, stakeUnit int64) int64 {
	if amount <= 0 || stakeUnit <= 0 {
		return 0
	}
	var pct int64
	switch {
	case amount >= stakeUnit/10:
		pct = 25
	case amount >= stakeUnit/20:
		pct = 50
	case amount >= stakeUnit/100:
		pct = 75
	default:
		pct = 100
	}
	return amount * pct / 100
}
