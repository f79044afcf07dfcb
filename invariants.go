package main

import (
	"fmt"
	"log"
	"math"
)

// Invariants holds configuration for runtime assertion checking inside a
// backtest run. Off by default; tests and debug runs turn it on.
type Invariants struct {
	Enabled         bool // Enable/disable all invariant checks
	CheckTimestamps bool // Verify equity points advance in time
	CheckEquity     bool // Verify mark-to-market accounting each bar
	CheckTrades     bool // Verify ledger records are well-formed
	CheckDrawdown   bool // Verify drawdown stays within [0, 1]
}

// DefaultInvariants returns the default invariant checking configuration.
func DefaultInvariants() Invariants {
	return Invariants{
		Enabled:         true,
		CheckTimestamps: true,
		CheckEquity:     true,
		CheckTrades:     true,
		CheckDrawdown:   true,
	}
}

// InvariantChecker validates the position/ledger/equity triple after each
// bar's atomic update.
type InvariantChecker struct {
	config Invariants
	cfg    BacktestConfig

	lastTimeMs int64
	peak       float64
}

// CheckBar runs all enabled checks for one completed bar.
func (ic *InvariantChecker) CheckBar(i int, bar PriceBar, pos Position, pt EquityPoint, barTrades []Trade) {
	if !ic.config.Enabled {
		return
	}

	if ic.config.CheckTimestamps {
		assert(pt.TimeMs == bar.TimeMs,
			fmt.Sprintf("equity point time %d != bar time %d at i=%d", pt.TimeMs, bar.TimeMs, i))
		if i > 0 {
			assert(pt.TimeMs > ic.lastTimeMs,
				fmt.Sprintf("equity time not increasing at i=%d: %d <= %d", i, pt.TimeMs, ic.lastTimeMs))
		}
		ic.lastTimeMs = pt.TimeMs
	}

	if ic.config.CheckEquity {
		assert(!math.IsNaN(pt.Equity) && !math.IsInf(pt.Equity, 0),
			fmt.Sprintf("equity is not finite at i=%d", i))
		assert(pt.Position == pos.Quantity,
			fmt.Sprintf("equity point position %.8f != simulator position %.8f at i=%d",
				pt.Position, pos.Quantity, i))
	}

	if ic.config.CheckTrades {
		for _, tr := range barTrades {
			assert(tr.Quantity > 0,
				fmt.Sprintf("trade quantity %.8f must be positive at i=%d", tr.Quantity, i))
			assert(tr.Price > 0,
				fmt.Sprintf("trade price %.8f must be positive at i=%d", tr.Price, i))
			assert(tr.TimeMs == bar.TimeMs,
				fmt.Sprintf("trade time %d != bar time %d at i=%d", tr.TimeMs, bar.TimeMs, i))
			if tr.Kind == OpenLong || tr.Kind == OpenShort {
				assert(tr.PnL == 0,
					fmt.Sprintf("%s trade carries pnl %.8f, opens must be 0", tr.Kind, tr.PnL))
			}
		}
	}

	if ic.config.CheckDrawdown && pt.Equity >= 0 {
		if i == 0 {
			ic.peak = ic.cfg.InitialCapital
		}
		if pt.Equity > ic.peak {
			ic.peak = pt.Equity
		}
		if ic.peak > 0 {
			dd := (ic.peak - pt.Equity) / ic.peak
			assert(dd >= 0 && dd <= 1,
				fmt.Sprintf("drawdown %.8f outside [0,1] at i=%d", dd, i))
		}
	}
}

// assert logs and exits if condition is false. An invariant violation is a
// bug in the simulator, never a recoverable input error.
func assert(condition bool, message string) {
	if !condition {
		log.Fatalf("INVARIANT VIOLATION: %s\n", message)
	}
}
