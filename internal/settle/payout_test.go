package settle

import (
	"testing"

	"github.com/shopspring/decimal"

	"kairos/internal/store"
)

func TestWinnerPayout(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		feeBps  int64
		wantNet int64
		wantFee int64
	}{
		{name: "tenth unit at 5pct", amount: 100_000, feeBps: 500, wantNet: 190_000, wantFee: 10_000},
		{name: "whole unit at 5pct", amount: 1_000_000, feeBps: 500, wantNet: 1_900_000, wantFee: 100_000},
		{name: "no fee", amount: 100_000, feeBps: 0, wantNet: 200_000, wantFee: 0},
		{name: "odd amount floors fee", amount: 3, feeBps: 500, wantNet: 6, wantFee: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, fee := WinnerPayout(tt.amount, tt.feeBps)
			if net != tt.wantNet || fee != tt.wantFee {
				t.Fatalf("WinnerPayout(%d, %d) = (%d, %d), want (%d, %d)",
					tt.amount, tt.feeBps, net, fee, tt.wantNet, tt.wantFee)
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		betSide     string
		winningSide string
		want        string
	}{
		{store.SideUp, store.SideUp, store.BetWon},
		{store.SideDown, store.SideUp, store.BetLost},
		{store.SideDown, store.SideDown, store.BetWon},
		{store.SideUp, store.SideDown, store.BetLost},
		{store.SideUp, store.SideTie, store.BetRefunded},
		{store.SideDown, store.SideTie, store.BetRefunded},
	}
	for _, tt := range tests {
		if got := Outcome(tt.betSide, tt.winningSide); got != tt.want {
			t.Fatalf("Outcome(%s, %s) = %s, want %s", tt.betSide, tt.winningSide, got, tt.want)
		}
	}
}

func TestSideForPrices(t *testing.T) {
	eps := decimal.RequireFromString("0.01")
	tests := []struct {
		name  string
		entry string
		exit  string
		want  string
	}{
		{name: "up move", entry: "3000", exit: "3010.50", want: store.SideUp},
		{name: "down move", entry: "3000", exit: "2990", want: store.SideDown},
		{name: "flat is tie", entry: "3000", exit: "3000", want: store.SideTie},
		{name: "within epsilon up", entry: "3000", exit: "3000.01", want: store.SideTie},
		{name: "within epsilon down", entry: "3000", exit: "2999.99", want: store.SideTie},
		{name: "just past epsilon", entry: "3000", exit: "3000.011", want: store.SideUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := decimal.RequireFromString(tt.entry)
			exit := decimal.RequireFromString(tt.exit)
			if got := SideForPrices(entry, exit, eps); got != tt.want {
				t.Fatalf("SideForPrices(%s, %s) = %s, want %s", tt.entry, tt.exit, got, tt.want)
			}
		})
	}
}
