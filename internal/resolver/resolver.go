// Package resolver is the background authority for round lifecycles:
// it snapshots entry prices for open rounds and settles rounds whose
// window has closed. Clients may still trigger resolution over HTTP;
// the worker guarantees rounds resolve even when no client is watching.
package resolver

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"kairos/internal/oracle"
	"kairos/internal/round"
	"kairos/internal/settle"
	"kairos/internal/store"
)

type Config struct {
	// Symbol is the market rounds settle on. Round ids are derived from
	// the clock alone, so exactly one market exists per time window.
	Symbol       string
	TimeframeSec int64
	PollInterval time.Duration
}

type Worker struct {
	store  *store.Store
	engine *settle.Engine
	prices settle.PriceSource
	cfg    Config
	done   chan struct{}
}

func New(st *store.Store, engine *settle.Engine, prices settle.PriceSource, cfg Config) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.TimeframeSec <= 0 {
		cfg.TimeframeSec = 60
	}
	return &Worker{store: st, engine: engine, prices: prices, cfg: cfg, done: make(chan struct{})}
}

func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Worker) Close() {
	close(w.done)
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	w.snapshotOpenRounds(ctx)
	w.resolveDueRounds(ctx)
}

// snapshotOpenRounds makes the server the authority for entry prices:
// the open round gets its row and entry snapshot as soon as the worker
// observes it, not when the first bet arrives.
func (w *Worker) snapshotOpenRounds(ctx context.Context) {
	id := round.ID(time.Now(), w.cfg.TimeframeSec)
	r := store.Round{
		ID:        id,
		Timeframe: w.cfg.TimeframeSec,
		Symbol:    w.cfg.Symbol,
		StartAt:   round.StartAt(id),
		EndAt:     round.EndAt(id, w.cfg.TimeframeSec),
	}
	if err := w.store.EnsureRound(ctx, r); err != nil {
		log.Error().Err(err).Int64("round_id", id).Str("symbol", w.cfg.Symbol).Msg("ensure round failed")
		return
	}
	quote, ok := w.prices.Latest(ctx, w.cfg.Symbol)
	if !ok {
		log.Warn().Int64("round_id", id).Str("symbol", w.cfg.Symbol).Msg("no entry quote this poll")
		return
	}
	if err := w.store.SetRoundEntryPrice(ctx, id, quote.Price); err != nil {
		log.Error().Err(err).Int64("round_id", id).Msg("set entry price failed")
	}
}

func (w *Worker) resolveDueRounds(ctx context.Context) {
	due, err := w.store.ListDueRounds(ctx, 50)
	if err != nil {
		log.Error().Err(err).Msg("list due rounds failed")
		return
	}
	for _, r := range due {
		res, err := w.engine.ResolveRound(ctx, r.ID, "")
		if err != nil {
			log.Error().Err(err).Int64("round_id", r.ID).Msg("auto resolution failed")
			continue
		}
		if !res.Already {
			log.Info().Int64("round_id", r.ID).Str("winning_side", res.WinningSide).Int("credits", len(res.Credits)).Msg("round auto-resolved")
		}
	}
}

var _ settle.PriceSource = (*oracle.Client)(nil)
