package main

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
)

// makeBars builds a close-only bar series with strictly increasing
// timestamps, one second apart.
func makeBars(closes ...float64) []PriceBar {
	bars := make([]PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = PriceBar{
			TimeMs: int64(1000 * (i + 1)),
			Open:   c, High: c, Low: c, Close: c,
			Volume: 1,
		}
	}
	return bars
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %v, want %v (tol %v)", name, got, want, tol)
	}
}

// One long entry with zero friction, then hold: the ledger carries a
// single open with zero PnL and final equity is cash plus mark-to-market.
func TestBacktestLongThenFlat(t *testing.T) {
	cfg := BacktestConfig{InitialCapital: 10000, Cost: 0, Slippage: 0, PositionFraction: 0.95}
	sim, err := NewSimulator(cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	sim.EnableInvariants(DefaultInvariants())

	bars := makeBars(100, 110)
	res, err := sim.Run([]SignalKind{Long, Flat}, bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Kind != OpenLong || tr.PnL != 0 {
		t.Fatalf("trade = %+v, want open_long with zero pnl", tr)
	}

	// qty = 10000*0.95/100 = 95; cash = 10000 - 95*100 = 500
	approx(t, "quantity", tr.Quantity, 95, 1e-9)
	approx(t, "equity[0]", res.EquityCurve[0].Equity, 10000, 1e-9)
	approx(t, "equity[1]", res.EquityCurve[1].Equity, 500+95.0*110, 1e-9)
	approx(t, "final capital", res.Report.FinalCapital, 10950, 1e-9)
	approx(t, "total return", res.Report.TotalReturn, 0.095, 1e-12)
}

// Alternating signals flip the position every bar. A reversal bar records
// a close followed by a fresh open, so four bars yield seven ledger rows.
// Expected PnLs are rebuilt step by step from the fill arithmetic.
func TestBacktestAlternatingSignals(t *testing.T) {
	const (
		capital0 = 10000.0
		cost     = 0.001
		slip     = 0.0001
		frac     = 0.95
	)
	cfg := BacktestConfig{InitialCapital: capital0, Cost: cost, Slippage: slip, PositionFraction: frac}
	sim, err := NewSimulator(cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}

	bars := makeBars(100, 110, 115, 105)
	res, err := sim.Run([]SignalKind{Long, Short, Long, Short}, bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantKinds := []TradeKind{OpenLong, CloseLong, OpenShort, CloseShort, OpenLong, CloseLong, OpenShort}
	if len(res.Trades) != len(wantKinds) {
		t.Fatalf("got %d trades, want %d", len(res.Trades), len(wantKinds))
	}
	for i, k := range wantKinds {
		if res.Trades[i].Kind != k {
			t.Fatalf("trade[%d].Kind = %s, want %s", i, res.Trades[i].Kind, k)
		}
	}

	// Bar 0: open long at 100.
	entry1 := 100 * (1 + slip)
	qty1 := capital0 * frac / 100
	cash := capital0 - qty1*entry1*(1+cost)

	// Bar 1: close the long at 110, open a short.
	pnl1 := (110 - entry1) * qty1 * (1 - cost - slip)
	cash += pnl1
	entry2 := 110 * (1 - slip)
	qty2 := cash * frac / 110
	cash += qty2 * entry2 * (1 - cost)

	// Bar 2: close the short at 115, open a long.
	pnl2 := (entry2 - 115) * qty2 * (1 - cost - slip)
	cash += pnl2
	entry3 := 115 * (1 + slip)
	qty3 := cash * frac / 115
	cash -= qty3 * entry3 * (1 + cost)

	// Bar 3: close the long at 105, open a short.
	pnl3 := (105 - entry3) * qty3 * (1 - cost - slip)

	if !(pnl1 > 0 && pnl2 < 0 && pnl3 < 0) {
		t.Fatalf("expected one win and two losses, got pnls %v %v %v", pnl1, pnl2, pnl3)
	}
	approx(t, "close_long pnl", res.Trades[1].PnL, pnl1, 1e-9)
	approx(t, "close_short pnl", res.Trades[3].PnL, pnl2, 1e-9)
	approx(t, "second close_long pnl", res.Trades[5].PnL, pnl3, 1e-9)

	approx(t, "win rate", res.Report.WinRate, 1.0/7, 1e-12)
	approx(t, "profit factor", res.Report.ProfitFactor, pnl1/(-pnl2-pnl3), 1e-9)
}

func TestBacktestEmptyBars(t *testing.T) {
	sim, err := NewSimulator(DefaultBacktestConfig())
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if _, err := sim.Run(nil, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty bars: err = %v, want ErrInvalidInput", err)
	}
}

func TestBacktestSignalLengthMismatch(t *testing.T) {
	sim, _ := NewSimulator(DefaultBacktestConfig())
	_, err := sim.Run([]SignalKind{Long}, makeBars(100, 101))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("mismatched lengths: err = %v, want ErrInvalidInput", err)
	}
}

func TestBacktestUnorderedTimestamps(t *testing.T) {
	sim, _ := NewSimulator(DefaultBacktestConfig())
	bars := makeBars(100, 101, 102)
	bars[2].TimeMs = bars[1].TimeMs // duplicate, not strictly increasing
	_, err := sim.Run([]SignalKind{Flat, Flat, Flat}, bars)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unordered bars: err = %v, want ErrInvalidInput", err)
	}
}

func TestSimulatorConfigValidation(t *testing.T) {
	bad := []BacktestConfig{
		{InitialCapital: 0, Cost: 0.001, Slippage: 0.0001, PositionFraction: 0.95},
		{InitialCapital: -10, Cost: 0.001, Slippage: 0.0001, PositionFraction: 0.95},
		{InitialCapital: 10000, Cost: -0.001, Slippage: 0.0001, PositionFraction: 0.95},
		{InitialCapital: 10000, Cost: 0.001, Slippage: -0.0001, PositionFraction: 0.95},
		{InitialCapital: 10000, Cost: 0.001, Slippage: 0.0001, PositionFraction: 0},
		{InitialCapital: 10000, Cost: 0.001, Slippage: 0.0001, PositionFraction: 1.5},
	}
	for i, cfg := range bad {
		if _, err := NewSimulator(cfg); !errors.Is(err, ErrConfiguration) {
			t.Errorf("config %d: err = %v, want ErrConfiguration", i, err)
		}
	}

	if _, err := NewSimulator(DefaultBacktestConfig()); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

// With zero cost and slippage at a constant price, flipping the position
// moves value between cash and exposure without creating or destroying any.
func TestBacktestZeroFrictionConservesCapital(t *testing.T) {
	cfg := BacktestConfig{InitialCapital: 10000, Cost: 0, Slippage: 0, PositionFraction: 0.95}
	sim, err := NewSimulator(cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}

	bars := makeBars(100, 100, 100, 100)
	res, err := sim.Run([]SignalKind{Long, Short, Long, Short}, bars)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, pt := range res.EquityCurve {
		approx(t, fmt.Sprintf("equity at bar %d", i), pt.Equity, 10000, 1e-9)
	}

	// With the last price back at the entry, mark-to-market carries no
	// unrealized component: final capital is exactly the initial capital
	// plus every realized pnl in the ledger.
	sim2, _ := NewSimulator(cfg)
	res2, err := sim2.Run([]SignalKind{Long, Flat, Flat}, makeBars(100, 110, 100))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var realized float64
	for _, tr := range res2.Trades {
		realized += tr.PnL
	}
	approx(t, "final capital", res2.Report.FinalCapital, 10000+realized, 1e-9)
}

func TestBacktestDeterministic(t *testing.T) {
	bars := makeBars(100, 102, 99, 104, 101, 107)
	signals := []SignalKind{Long, Flat, Short, Short, Long, Flat}

	run := func() BacktestResult {
		sim, err := NewSimulator(DefaultBacktestConfig())
		if err != nil {
			t.Fatalf("NewSimulator: %v", err)
		}
		res, err := sim.Run(signals, bars)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different results")
	}
}

func TestSignalsFromPredictions(t *testing.T) {
	preds := []float64{0.02, -0.02, 0.005, -0.005, 0.01, -0.01, 0}
	want := []SignalKind{Long, Short, Flat, Flat, Flat, Flat, Flat}
	got := SignalsFromPredictions(preds)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBacktestBarHook(t *testing.T) {
	sim, _ := NewSimulator(DefaultBacktestConfig())

	var barsSeen, tradesSeen int
	sim.OnBar(func(i int, pt EquityPoint, barTrades []Trade) {
		barsSeen++
		tradesSeen += len(barTrades)
	})

	res, err := sim.Run([]SignalKind{Long, Short, Flat}, makeBars(100, 101, 102))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if barsSeen != 3 {
		t.Fatalf("hook saw %d bars, want 3", barsSeen)
	}
	if tradesSeen != len(res.Trades) {
		t.Fatalf("hook saw %d trades, ledger has %d", tradesSeen, len(res.Trades))
	}
}
