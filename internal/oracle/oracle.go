// Package oracle fetches reference spot prices for the symbols players
// bet on. Several public ticker APIs are raced per lookup; the first
// good quote wins. A losing upstream can time out without the caller
// ever waiting past the overall budget.
package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Source string          `json:"source"`
	At     time.Time       `json:"at"`
}

// Source is one upstream ticker API. Fetch must honor ctx cancellation.
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type Options struct {
	SourceTimeout time.Duration
	Budget        time.Duration
	// MaxAge bounds how old a cached quote may be before the client
	// reports unavailable instead of falling back to it.
	MaxAge time.Duration
}

type Client struct {
	sources       []Source
	sourceTimeout time.Duration
	budget        time.Duration
	maxAge        time.Duration

	mu        sync.Mutex
	lastKnown map[string]Quote
}

func New(sources []Source, opts Options) *Client {
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = time.Second
	}
	if opts.Budget <= 0 {
		opts.Budget = 2500 * time.Millisecond
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 5 * time.Minute
	}
	return &Client{
		sources:       sources,
		sourceTimeout: opts.SourceTimeout,
		budget:        opts.Budget,
		maxAge:        opts.MaxAge,
		lastKnown:     map[string]Quote{},
	}
}

// Latest returns the freshest quote for symbol. All sources are raced
// with a per-source timeout under an overall deadline; on total failure
// the last known quote is returned while it is younger than MaxAge.
// ok=false means no usable price exists and the caller must fall back
// (treat as no movement, retry later). Latest never blocks past the
// budget and never panics on upstream garbage.
func (c *Client) Latest(ctx context.Context, symbol string) (Quote, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	type result struct {
		quote Quote
		err   error
	}
	results := make(chan result, len(c.sources))
	for _, src := range c.sources {
		go func(src Source) {
			fetchCtx, fetchCancel := context.WithTimeout(ctx, c.sourceTimeout)
			defer fetchCancel()
			price, err := src.Fetch(fetchCtx, symbol)
			if err != nil {
				results <- result{err: err}
				return
			}
			results <- result{quote: Quote{Symbol: symbol, Price: price, Source: src.Name(), At: time.Now()}}
		}(src)
	}

	pending := len(c.sources)
	for pending > 0 {
		select {
		case <-ctx.Done():
			pending = 0
		case r := <-results:
			pending--
			if r.err != nil {
				continue
			}
			if r.quote.Price.Sign() <= 0 {
				continue
			}
			c.remember(r.quote)
			return r.quote, true
		}
	}

	if q, ok := c.cached(symbol); ok {
		metricOracleFallbackTotal.Add(1)
		log.Warn().Str("symbol", symbol).Str("source", q.Source).Time("at", q.At).Msg("all price sources failed, serving last known quote")
		return q, true
	}
	metricOracleUnavailableTotal.Add(1)
	return Quote{}, false
}

func (c *Client) remember(q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastKnown[q.Symbol] = q
}

func (c *Client) cached(symbol string) (Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.lastKnown[symbol]
	if !ok || time.Since(q.At) > c.maxAge {
		return Quote{}, false
	}
	return q, true
}
