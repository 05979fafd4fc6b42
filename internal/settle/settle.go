// Package settle transitions every bet of a finished round to a
// terminal state exactly once and credits balances accordingly. Each
// bet settles in its own short transaction so a round with many bettors
// never holds one long lock, and a single poisoned bet cannot abort its
// siblings.
package settle

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"kairos/internal/oracle"
	"kairos/internal/round"
	"kairos/internal/store"
)

var (
	ErrInvalidWinningSide = errors.New("invalid_winning_side")
	ErrRoundNotEnded      = errors.New("round_not_ended")
)

// PriceSource is the oracle surface the engine needs: the freshest
// quote for a symbol, or ok=false when no usable price exists.
type PriceSource interface {
	Latest(ctx context.Context, symbol string) (oracle.Quote, bool)
}

type Options struct {
	FeeBps     int64
	TieEpsilon decimal.Decimal
	// BetTxTimeout bounds each per-bet settlement transaction.
	BetTxTimeout time.Duration
	RetryMax     int
	RetryBase    time.Duration
}

type Engine struct {
	store  *store.Store
	prices PriceSource
	opts   Options

	dispatchCh chan settleJob
	retryQ     *retryQueue
	done       chan struct{}
}

// Credit is one player's balance delta from settling a round, reported
// for observability and tests.
type Credit struct {
	PlayerID string `json:"player_id"`
	Delta    int64  `json:"delta"`
	Status   string `json:"status"`
}

type Result struct {
	RoundID     int64    `json:"round_id"`
	Already     bool     `json:"already"`
	WinningSide string   `json:"winning_side"`
	Credits     []Credit `json:"credits"`
}

func New(st *store.Store, prices PriceSource, opts Options) *Engine {
	if opts.FeeBps < 0 {
		opts.FeeBps = 0
	}
	if opts.BetTxTimeout <= 0 {
		opts.BetTxTimeout = 8 * time.Second
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 5
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 2 * time.Second
	}
	e := &Engine{
		store:      st,
		prices:     prices,
		opts:       opts,
		dispatchCh: make(chan settleJob, 256),
		done:       make(chan struct{}),
	}
	e.retryQ = newRetryQueue(e.dispatchCh, e.done)
	return e
}

// Start launches the retry worker that re-attempts bets whose
// settlement transaction failed (missing balance row, transient DB
// errors). Without it ResolveRound still works; failed bets just stay
// pending until the next resolution attempt.
func (e *Engine) Start(ctx context.Context) {
	go e.worker(ctx)
}

func (e *Engine) Close() {
	close(e.done)
}

// ResolveRound settles every pending bet of roundID. Idempotent: a
// round already marked resolved returns Already=true and mutates
// nothing. With winningSide empty the side is derived from the stored
// entry snapshot and a fresh oracle quote; an unusable price is treated
// as no movement, refunding both sides rather than guessing a winner.
func (e *Engine) ResolveRound(ctx context.Context, roundID int64, winningSide string) (*Result, error) {
	r, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if r.Status == store.RoundResolved {
		res := &Result{RoundID: roundID, Already: true, Credits: []Credit{}}
		if r.WinningSide != nil {
			res.WinningSide = *r.WinningSide
		}
		return res, nil
	}
	// A round settles only after its window closes. Without this guard a
	// bettor could settle the open round mid-window, and a bet placed
	// between the pending-bet listing and the resolved flip would strand
	// pending forever.
	if !round.Ended(r.ID, r.Timeframe, time.Now()) {
		return nil, ErrRoundNotEnded
	}

	exitPrice := decimal.NullDecimal{}
	switch winningSide {
	case store.SideUp, store.SideDown, store.SideTie:
	case "":
		winningSide, exitPrice = e.deriveWinningSide(ctx, r)
	default:
		return nil, ErrInvalidWinningSide
	}

	bets, err := e.store.ListPendingBets(ctx, roundID)
	if err != nil {
		return nil, err
	}

	credits := make([]Credit, 0, len(bets))
	for _, bet := range bets {
		credit, err := e.settleBet(ctx, bet, winningSide)
		if err != nil {
			if errors.Is(err, store.ErrBetNotPending) {
				// A sibling resolver got here first; its transition counts.
				continue
			}
			metricSettleFailedTotal.Add(1)
			log.Error().Err(err).Str("bet_id", bet.ID).Int64("round_id", roundID).Msg("bet settlement failed, queued for retry")
			e.enqueueRetry(settleJob{BetID: bet.ID, WinningSide: winningSide})
			continue
		}
		credits = append(credits, credit)
		metricSettleBetsTotal.Add(1)
	}

	resolvedNow, err := e.store.MarkRoundResolved(ctx, roundID, winningSide, exitPrice)
	if err != nil {
		return nil, err
	}
	if resolvedNow {
		metricSettleRoundsTotal.Add(1)
		log.Info().Int64("round_id", roundID).Str("winning_side", winningSide).Int("bets", len(bets)).Msg("round resolved")
	}

	return &Result{RoundID: roundID, WinningSide: winningSide, Credits: credits}, nil
}

func (e *Engine) deriveWinningSide(ctx context.Context, r *store.Round) (string, decimal.NullDecimal) {
	if !r.EntryPrice.Valid {
		log.Warn().Int64("round_id", r.ID).Msg("no entry snapshot, treating round as no movement")
		return store.SideTie, decimal.NullDecimal{}
	}
	quote, ok := e.prices.Latest(ctx, r.Symbol)
	if !ok {
		log.Warn().Int64("round_id", r.ID).Str("symbol", r.Symbol).Msg("exit price unavailable, treating round as no movement")
		return store.SideTie, decimal.NullDecimal{}
	}
	side := SideForPrices(r.EntryPrice.Decimal, quote.Price, e.opts.TieEpsilon)
	return side, decimal.NullDecimal{Decimal: quote.Price, Valid: true}
}

func (e *Engine) settleBet(ctx context.Context, bet store.Bet, winningSide string) (Credit, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.BetTxTimeout)
	defer cancel()

	outcome := Outcome(bet.Side, winningSide)
	var payoutNet int64
	if outcome == store.BetWon {
		payoutNet, _ = WinnerPayout(bet.Amount, e.opts.FeeBps)
	}
	delta, err := e.store.SettleBet(ctx, bet.ID, outcome, payoutNet)
	if err != nil {
		return Credit{}, err
	}
	return Credit{PlayerID: bet.PlayerID, Delta: delta, Status: outcome}, nil
}

func (e *Engine) enqueueRetry(job settleJob) {
	job.Attempt = 1
	metricSettleRetryTotal.Add(1)
	e.retryQ.Enqueue(job, e.opts.RetryBase)
}

func (e *Engine) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case job := <-e.dispatchCh:
			e.processRetry(ctx, job)
		}
	}
}

// processRetry re-attempts a single dead-lettered bet. The bet may have
// been settled meanwhile (another resolve call, another instance); the
// pending check inside SettleBet makes the retry harmless.
func (e *Engine) processRetry(ctx context.Context, job settleJob) {
	bet, err := e.store.GetBet(ctx, job.BetID)
	if err != nil {
		e.retryOrDrop(job, err)
		return
	}
	if bet.Status != store.BetPending {
		return
	}
	if _, err := e.settleBet(ctx, *bet, job.WinningSide); err != nil && !errors.Is(err, store.ErrBetNotPending) {
		e.retryOrDrop(job, err)
		return
	}
	metricSettleBetsTotal.Add(1)
}

func (e *Engine) retryOrDrop(job settleJob, err error) {
	if job.Attempt >= e.opts.RetryMax {
		metricSettleDeadLetterTotal.Add(1)
		log.Error().Err(err).Str("bet_id", job.BetID).Int("attempts", job.Attempt).Msg("bet settlement dead-lettered after max retries")
		return
	}
	job.Attempt++
	metricSettleRetryTotal.Add(1)
	delay := e.opts.RetryBase * time.Duration(1<<(job.Attempt-1))
	e.retryQ.Enqueue(job, delay)
}
