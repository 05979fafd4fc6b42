// Package round maps wall-clock instants to canonical round identifiers.
// A round id is the epoch second its window starts at, aligned to the
// configured duration. Every participant (bet placement, settlement,
// clients) must use the same formula or ids skew across the system.
package round

import "time"

// ID returns the canonical round id for the instant now with the given
// duration in seconds: floor(unixMs / (durationSec*1000)) * durationSec.
// Flooring always lands on the current or most recently started round,
// never a future one.
func ID(now time.Time, durationSec int64) int64 {
	if durationSec <= 0 {
		return 0
	}
	windowMs := durationSec * 1000
	ms := now.UnixMilli()
	if ms < 0 {
		ms = 0
	}
	return ms / windowMs * durationSec
}

// StartAt returns the opening instant of round id.
func StartAt(id int64) time.Time {
	return time.Unix(id, 0).UTC()
}

// EndAt returns the first instant no longer inside round id.
func EndAt(id, durationSec int64) time.Time {
	return time.Unix(id+durationSec, 0).UTC()
}

// Ended reports whether round id is over at instant now.
func Ended(id, durationSec int64, now time.Time) bool {
	return !now.Before(EndAt(id, durationSec))
}

// TooFarInFuture reports whether id starts later than now plus buffer.
// A small buffer absorbs client/server clock skew on bets placed right
// at a round boundary.
func TooFarInFuture(id int64, now time.Time, buffer time.Duration) bool {
	return StartAt(id).After(now.Add(buffer))
}
