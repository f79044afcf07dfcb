package main

import (
	"errors"
	"fmt"
)

// Error taxonomy. InvalidInput and ConfigurationError fail fast before any
// bar is processed; insufficient-data and degenerate-calibration conditions
// are handled locally with documented defaults and never surface as errors.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfiguration = errors.New("invalid configuration")
)

// TradeKind labels one side of a position change in the ledger.
type TradeKind string

const (
	OpenLong   TradeKind = "open_long"
	CloseLong  TradeKind = "close_long"
	OpenShort  TradeKind = "open_short"
	CloseShort TradeKind = "close_short"
)

// Trade is an immutable ledger record. Opens carry PnL 0; closes carry the
// realized PnL net of cost and slippage.
type Trade struct {
	TimeMs   int64     `json:"time_ms"`
	Kind     TradeKind `json:"kind"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	PnL      float64   `json:"pnl"`
}

// EquityPoint is the mark-to-market state after one bar.
type EquityPoint struct {
	TimeMs   int64   `json:"time_ms"`
	Equity   float64 `json:"equity"`
	Position float64 `json:"position"`
	Price    float64 `json:"price"`
}

// Position is the simulator's single open exposure. Positive quantity is
// long, negative is short, zero is flat. Owned by one backtest run.
type Position struct {
	Quantity   float64
	EntryPrice float64
}

// BacktestConfig holds the execution parameters for one run. Cost and
// slippage apply symmetrically on entry and exit.
type BacktestConfig struct {
	InitialCapital   float64 `yaml:"initial_capital"`
	Cost             float64 `yaml:"cost"`
	Slippage         float64 `yaml:"slippage"`
	PositionFraction float64 `yaml:"position_fraction"`
}

// DefaultBacktestConfig mirrors the service defaults: 10k capital, 10bps
// cost, 1bp slippage, 95% of capital per entry.
func DefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{
		InitialCapital:   10000,
		Cost:             0.001,
		Slippage:         0.0001,
		PositionFraction: 0.95,
	}
}

// Validate rejects configurations before any bar is processed.
func (c BacktestConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital %.4f must be positive", ErrConfiguration, c.InitialCapital)
	}
	if c.Cost < 0 {
		return fmt.Errorf("%w: cost %.6f must be non-negative", ErrConfiguration, c.Cost)
	}
	if c.Slippage < 0 {
		return fmt.Errorf("%w: slippage %.6f must be non-negative", ErrConfiguration, c.Slippage)
	}
	if c.PositionFraction <= 0 || c.PositionFraction > 1 {
		return fmt.Errorf("%w: position fraction %.4f must be in (0, 1]", ErrConfiguration, c.PositionFraction)
	}
	return nil
}

// BacktestResult bundles the ledger, equity curve and derived report.
type BacktestResult struct {
	Trades      []Trade
	EquityCurve []EquityPoint
	Report      PerformanceReport
}

// Simulator runs one signal stream against one bar series. It owns its
// Position and ledger for the duration of a run; nothing is shared, so
// concurrent runs need no locking.
type Simulator struct {
	cfg     BacktestConfig
	hooks   []BarHook
	checker *InvariantChecker
}

// BarHook observes each completed bar mutation. Used by the dashboard
// glue; the core never blocks on it.
type BarHook func(i int, pt EquityPoint, trades []Trade)

// NewSimulator validates the configuration up front; a non-nil error means
// no run state was created.
func NewSimulator(cfg BacktestConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{cfg: cfg}, nil
}

// OnBar registers a hook called after each bar's atomic update.
func (sim *Simulator) OnBar(h BarHook) { sim.hooks = append(sim.hooks, h) }

// EnableInvariants turns on runtime assertion checking for this run.
func (sim *Simulator) EnableInvariants(inv Invariants) {
	sim.checker = &InvariantChecker{config: inv, cfg: sim.cfg}
}

// Run executes the signal stream against the bar series in time order.
// len(signals) must equal len(bars); each bar's update is atomic with
// respect to the position/ledger/equity triple, so an abandoned run leaves
// no partial bar behind. Deterministic: identical inputs yield identical
// ledgers and equity curves.
func (sim *Simulator) Run(signals []SignalKind, bars []PriceBar) (BacktestResult, error) {
	if len(bars) == 0 {
		return BacktestResult{}, fmt.Errorf("%w: empty price-bar sequence", ErrInvalidInput)
	}
	if len(signals) != len(bars) {
		return BacktestResult{}, fmt.Errorf("%w: %d signals for %d bars", ErrInvalidInput, len(signals), len(bars))
	}
	if ok, i, prev, cur := validateBarOrdering(bars); !ok {
		return BacktestResult{}, fmt.Errorf("%w: bar timestamps not strictly increasing at index %d: %d <= %d",
			ErrInvalidInput, i, cur, prev)
	}

	capital := sim.cfg.InitialCapital
	cost := sim.cfg.Cost
	slip := sim.cfg.Slippage
	frac := sim.cfg.PositionFraction

	var pos Position
	trades := make([]Trade, 0, 16)
	curve := make([]EquityPoint, 0, len(bars))

	for i, bar := range bars {
		price := bar.Close
		var barTrades []Trade

		switch {
		case signals[i] == Long && pos.Quantity <= 0:
			if pos.Quantity < 0 {
				pnl := (pos.EntryPrice - price) * -pos.Quantity * (1 - cost - slip)
				capital += pnl
				tr := Trade{TimeMs: bar.TimeMs, Kind: CloseShort, Price: price, Quantity: -pos.Quantity, PnL: pnl}
				trades = append(trades, tr)
				barTrades = append(barTrades, tr)
				pos = Position{}
			}

			entryPrice := price * (1 + slip)
			qty := capital * frac / price
			capital -= qty * entryPrice * (1 + cost)
			pos = Position{Quantity: qty, EntryPrice: entryPrice}
			tr := Trade{TimeMs: bar.TimeMs, Kind: OpenLong, Price: entryPrice, Quantity: qty, PnL: 0}
			trades = append(trades, tr)
			barTrades = append(barTrades, tr)

		case signals[i] == Short && pos.Quantity >= 0:
			if pos.Quantity > 0 {
				pnl := (price - pos.EntryPrice) * pos.Quantity * (1 - cost - slip)
				capital += pnl
				tr := Trade{TimeMs: bar.TimeMs, Kind: CloseLong, Price: price, Quantity: pos.Quantity, PnL: pnl}
				trades = append(trades, tr)
				barTrades = append(barTrades, tr)
				pos = Position{}
			}

			entryPrice := price * (1 - slip)
			qty := capital * frac / price
			capital += qty * entryPrice * (1 - cost)
			pos = Position{Quantity: -qty, EntryPrice: entryPrice}
			tr := Trade{TimeMs: bar.TimeMs, Kind: OpenShort, Price: entryPrice, Quantity: qty, PnL: 0}
			trades = append(trades, tr)
			barTrades = append(barTrades, tr)
		}
		// Flat, or a signal matching the current direction: hold.

		// Sign of quantity handles long/short mark-to-market.
		pt := EquityPoint{
			TimeMs:   bar.TimeMs,
			Equity:   capital + pos.Quantity*price,
			Position: pos.Quantity,
			Price:    price,
		}
		curve = append(curve, pt)

		if sim.checker != nil {
			sim.checker.CheckBar(i, bar, pos, pt, barTrades)
		}
		for _, h := range sim.hooks {
			h(i, pt, barTrades)
		}
	}

	report := ComputeReport(sim.cfg.InitialCapital, curve, trades)
	return BacktestResult{Trades: trades, EquityCurve: curve, Report: report}, nil
}

// signalThreshold converts a regression-style prediction into a discrete
// signal: above +1% expected move goes long, below -1% goes short.
const signalThreshold = 0.01

// SignalsFromPredictions maps per-bar model predictions onto signals.
func SignalsFromPredictions(preds []float64) []SignalKind {
	out := make([]SignalKind, len(preds))
	for i, p := range preds {
		switch {
		case p > signalThreshold:
			out[i] = Long
		case p < -signalThreshold:
			out[i] = Short
		default:
			out[i] = Flat
		}
	}
	return out
}
