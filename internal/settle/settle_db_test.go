package settle

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kairos/internal/oracle"
	"kairos/internal/store"
	"kairos/internal/testutil"
)

type fixedPrices struct {
	quote oracle.Quote
	ok    bool
}

func (f fixedPrices) Latest(context.Context, string) (oracle.Quote, bool) {
	return f.quote, f.ok
}

const (
	addrUp   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrDown = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func seedRoundWithBothSides(t *testing.T, st *store.Store, roundID int64) {
	t.Helper()
	ctx := context.Background()
	for _, seed := range []struct {
		addr string
		side string
	}{{addrUp, store.SideUp}, {addrDown, store.SideDown}} {
		if _, err := st.Deposit(ctx, seed.addr, 1_000_000); err != nil {
			t.Fatalf("deposit: %v", err)
		}
		_, err := st.PlaceBet(ctx, store.PlaceBetParams{
			Address:   seed.addr,
			Amount:    100_000,
			Side:      seed.side,
			RoundID:   roundID,
			Timeframe: 60,
			Symbol:    "ETH",
		})
		if err != nil {
			t.Fatalf("place bet %s: %v", seed.side, err)
		}
	}
}

func pastRoundID() int64 {
	now := time.Now().Unix()
	return now - (now % 60) - 600
}

func mustAvailable(t *testing.T, st *store.Store, address string) int64 {
	t.Helper()
	bal, err := st.GetBalanceByAddress(context.Background(), address)
	if err != nil {
		t.Fatalf("balance %s: %v", address, err)
	}
	return bal.Available
}

func TestResolveRoundExplicitWinner(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	roundID := pastRoundID()
	seedRoundWithBothSides(t, st, roundID)

	engine := New(st, fixedPrices{}, Options{FeeBps: 500})
	res, err := engine.ResolveRound(ctx, roundID, store.SideUp)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Already {
		t.Fatal("fresh round reported already-resolved")
	}
	if res.WinningSide != store.SideUp || len(res.Credits) != 2 {
		t.Fatalf("result = %+v", res)
	}

	if got := mustAvailable(t, st, addrUp); got != 1_090_000 {
		t.Fatalf("winner available = %d, want 1090000", got)
	}
	if got := mustAvailable(t, st, addrDown); got != 900_000 {
		t.Fatalf("loser available = %d, want 900000", got)
	}
}

func TestResolveRoundIsIdempotent(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	roundID := pastRoundID()
	seedRoundWithBothSides(t, st, roundID)

	engine := New(st, fixedPrices{}, Options{FeeBps: 500})
	if _, err := engine.ResolveRound(ctx, roundID, store.SideDown); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	res, err := engine.ResolveRound(ctx, roundID, store.SideUp)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !res.Already {
		t.Fatal("second resolve did not report already-resolved")
	}
	if res.WinningSide != store.SideDown {
		t.Fatalf("winning side = %s, want the first resolution's %s", res.WinningSide, store.SideDown)
	}
	if len(res.Credits) != 0 {
		t.Fatalf("second resolve produced credits: %+v", res.Credits)
	}
	if got := mustAvailable(t, st, addrDown); got != 1_090_000 {
		t.Fatalf("winner available = %d, want 1090000 after replayed resolve", got)
	}
}

func TestResolveRoundDerivesSideFromPrices(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	roundID := pastRoundID()
	seedRoundWithBothSides(t, st, roundID)
	if err := st.SetRoundEntryPrice(ctx, roundID, decimal.RequireFromString("2000")); err != nil {
		t.Fatalf("set entry: %v", err)
	}

	prices := fixedPrices{
		quote: oracle.Quote{Symbol: "ETH", Price: decimal.RequireFromString("2100"), Source: "test", At: time.Now()},
		ok:    true,
	}
	engine := New(st, prices, Options{FeeBps: 500, TieEpsilon: decimal.RequireFromString("0.01")})
	res, err := engine.ResolveRound(ctx, roundID, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.WinningSide != store.SideUp {
		t.Fatalf("winning side = %s, want up for a rising price", res.WinningSide)
	}

	r, err := st.GetRound(ctx, roundID)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}
	if !r.ExitPrice.Valid || !r.ExitPrice.Decimal.Equal(prices.quote.Price) {
		t.Fatalf("exit price = %+v, want the settlement quote", r.ExitPrice)
	}
}

func TestResolveRoundRefundsWhenPriceUnavailable(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	roundID := pastRoundID()
	seedRoundWithBothSides(t, st, roundID)
	if err := st.SetRoundEntryPrice(ctx, roundID, decimal.RequireFromString("2000")); err != nil {
		t.Fatalf("set entry: %v", err)
	}

	engine := New(st, fixedPrices{ok: false}, Options{FeeBps: 500})
	res, err := engine.ResolveRound(ctx, roundID, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.WinningSide != store.SideTie {
		t.Fatalf("winning side = %s, want tie without a usable price", res.WinningSide)
	}
	for _, addr := range []string{addrUp, addrDown} {
		if got := mustAvailable(t, st, addr); got != 1_000_000 {
			t.Fatalf("available for %s = %d, want full refund", addr, got)
		}
	}
}

func TestResolveRoundRejectsOpenRound(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().Unix()
	openID := now - (now % 60)
	seedRoundWithBothSides(t, st, openID)

	engine := New(st, fixedPrices{}, Options{FeeBps: 500})
	if _, err := engine.ResolveRound(ctx, openID, store.SideUp); err != ErrRoundNotEnded {
		t.Fatalf("err = %v, want ErrRoundNotEnded for a round still open", err)
	}

	// Nothing settled, nothing credited.
	for _, addr := range []string{addrUp, addrDown} {
		if got := mustAvailable(t, st, addr); got != 900_000 {
			t.Fatalf("available for %s = %d, want stake still locked", addr, got)
		}
	}
	r, err := st.GetRound(ctx, openID)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}
	if r.Status != store.RoundPending {
		t.Fatalf("round status = %s, want still pending", r.Status)
	}
}

func TestResolveRoundInvalidSide(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()

	roundID := pastRoundID()
	seedRoundWithBothSides(t, st, roundID)

	engine := New(st, fixedPrices{}, Options{FeeBps: 500})
	if _, err := engine.ResolveRound(context.Background(), roundID, "sideways"); err != ErrInvalidWinningSide {
		t.Fatalf("err = %v, want ErrInvalidWinningSide", err)
	}
}
