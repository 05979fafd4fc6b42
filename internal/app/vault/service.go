// Package vault is the application layer behind the HTTP surface. It
// normalizes and validates client input, fills defaults from the server
// configuration, and orchestrates the ledger, the settlement engine and
// the price oracle. All money amounts cross this boundary as integer
// minor units.
package vault

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"kairos/internal/ledger"
	"kairos/internal/round"
	"kairos/internal/settle"
	"kairos/internal/store"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// NormalizeAddress lowercases a wallet address so the same wallet can
// never hold two player rows. Returns ErrInvalidAddress for anything
// that is not a 20-byte hex address.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !addressPattern.MatchString(address) {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(address), nil
}

type Service struct {
	store  *store.Store
	ledger *ledger.Ledger
	engine *settle.Engine
	prices settle.PriceSource

	defaultTimeframe int64
	// marketSymbol is the symbol rounds settle on. Round ids carry no
	// symbol, so there is exactly one market per time window; the other
	// configured symbols are only queryable through the price endpoint.
	marketSymbol string
	symbols      map[string]bool
}

func NewService(st *store.Store, led *ledger.Ledger, engine *settle.Engine, prices settle.PriceSource, symbols []string, defaultTimeframe int64) *Service {
	if defaultTimeframe <= 0 {
		defaultTimeframe = 60
	}
	known := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		known[strings.ToUpper(s)] = true
	}
	marketSymbol := ""
	if len(symbols) > 0 {
		marketSymbol = strings.ToUpper(symbols[0])
	}
	return &Service{
		store:            st,
		ledger:           led,
		engine:           engine,
		prices:           prices,
		defaultTimeframe: defaultTimeframe,
		marketSymbol:     marketSymbol,
		symbols:          known,
	}
}

func (s *Service) resolveSymbol(symbol string) (string, error) {
	if symbol == "" {
		return s.marketSymbol, nil
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !s.symbols[symbol] {
		return "", ErrUnknownSymbol
	}
	return symbol, nil
}

// PlaceBet accepts a wager on an open round. With round_id zero the
// current round for the timeframe is used, so simple clients never need
// to compute round ids themselves.
func (s *Service) PlaceBet(ctx context.Context, req BetRequest) (*BetResponse, error) {
	address, err := NormalizeAddress(req.Address)
	if err != nil {
		return nil, err
	}
	timeframe := req.Timeframe
	if timeframe <= 0 {
		timeframe = s.defaultTimeframe
	}
	roundID := req.RoundID
	if roundID == 0 {
		roundID = round.ID(time.Now(), timeframe)
	}

	bet, err := s.ledger.PlaceBet(ctx, address, req.Amount, req.Side, roundID, timeframe, s.marketSymbol)
	if err != nil {
		return nil, err
	}
	return &BetResponse{Success: true, BetID: bet.ID, Message: "bet accepted"}, nil
}

// Resolve settles a round. winning_side is optional: when empty the
// engine derives it from the entry snapshot and a fresh quote, which is
// the normal path; an explicit side exists for operator intervention.
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) (*ResolveResponse, error) {
	if req.RoundID <= 0 {
		return nil, ErrInvalidRequest
	}
	res, err := s.engine.ResolveRound(ctx, req.RoundID, req.WinningSide)
	if err != nil {
		return nil, err
	}
	return &ResolveResponse{
		Success:     true,
		Resolved:    !res.Already,
		Already:     res.Already,
		WinningSide: res.WinningSide,
		Credits:     res.Credits,
	}, nil
}

func (s *Service) Deposit(ctx context.Context, req FundsRequest) (*FundsResponse, error) {
	address, err := NormalizeAddress(req.Address)
	if err != nil {
		return nil, err
	}
	available, err := s.ledger.Deposit(ctx, address, req.Amount)
	if err != nil {
		return nil, err
	}
	return &FundsResponse{Success: true, Available: available}, nil
}

func (s *Service) Withdraw(ctx context.Context, req FundsRequest) (*FundsResponse, error) {
	address, err := NormalizeAddress(req.Address)
	if err != nil {
		return nil, err
	}
	available, err := s.ledger.Withdraw(ctx, address, req.Amount)
	if err != nil {
		return nil, err
	}
	return &FundsResponse{Success: true, Available: available}, nil
}

func (s *Service) Balance(ctx context.Context, address string) (*BalanceResponse, error) {
	address, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	bal, err := s.ledger.Balances(ctx, address)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		Address:   address,
		Available: bal.Available,
		Locked:    bal.Locked,
		Points:    bal.Points,
	}, nil
}

func (s *Service) Transfers(ctx context.Context, address string, limit, offset int) (*TransfersResponse, error) {
	address, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	transfers, err := s.ledger.Transfers(ctx, address, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]TransferItem, 0, len(transfers))
	for _, t := range transfers {
		var meta any
		if len(t.Meta) > 0 {
			_ = json.Unmarshal(t.Meta, &meta)
		}
		items = append(items, TransferItem{
			ID:        t.ID,
			Type:      t.Type,
			Amount:    t.Amount,
			Meta:      meta,
			CreatedAt: t.CreatedAt,
		})
	}
	return &TransfersResponse{Items: items, Limit: limit, Offset: offset}, nil
}

// CurrentRound is pure clock arithmetic; the round row may not exist
// yet if no bet has been placed and the snapshot worker has not run.
func (s *Service) CurrentRound(timeframe int64) *CurrentRoundResponse {
	if timeframe <= 0 {
		timeframe = s.defaultTimeframe
	}
	id := round.ID(time.Now(), timeframe)
	return &CurrentRoundResponse{
		RoundID:   id,
		Timeframe: timeframe,
		StartAt:   round.StartAt(id),
		EndAt:     round.EndAt(id, timeframe),
	}
}

func (s *Service) Round(ctx context.Context, roundID int64) (*RoundResponse, error) {
	r, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	resp := &RoundResponse{
		RoundID:     r.ID,
		Timeframe:   r.Timeframe,
		Symbol:      r.Symbol,
		StartAt:     r.StartAt,
		EndAt:       r.EndAt,
		Status:      r.Status,
		WinningSide: r.WinningSide,
	}
	if r.EntryPrice.Valid {
		resp.EntryPrice = &r.EntryPrice.Decimal
	}
	if r.ExitPrice.Valid {
		resp.ExitPrice = &r.ExitPrice.Decimal
	}
	return resp, nil
}

func (s *Service) Price(ctx context.Context, symbol string) (*PriceResponse, error) {
	symbol, err := s.resolveSymbol(symbol)
	if err != nil {
		return nil, err
	}
	quote, ok := s.prices.Latest(ctx, symbol)
	if !ok {
		return nil, ErrPriceUnavailable
	}
	return &PriceResponse{Symbol: quote.Symbol, Price: quote.Price, Source: quote.Source, At: quote.At}, nil
}

func (s *Service) Leaderboard(ctx context.Context, limit, offset int) (*LeaderboardResponse, error) {
	entries, err := s.store.ListLeaderboard(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]LeaderboardItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, LeaderboardItem{Address: e.Address, Points: e.Points, Net: e.Net})
	}
	return &LeaderboardResponse{Items: items, Limit: limit, Offset: offset}, nil
}
