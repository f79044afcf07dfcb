package main

import "math"

// annualizationBars is the Sharpe annualization factor. It assumes one
// simulated bar per trading day; callers feeding intraday bars must
// rescale. Kept as a named parameter rather than buried in the formula.
const annualizationBars = 252

// PerformanceReport aggregates metrics derived purely from the ledger and
// equity curve. No hidden state.
type PerformanceReport struct {
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalReturn    float64 `json:"total_return"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	TotalTrades    int     `json:"total_trades"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
}

// ComputeReport is a pure function over the run outputs.
// Documented edge policies: an empty curve reports final capital equal to
// initial; Sharpe is 0 when the return series has no variance; win rate is
// 0 with no trades; profit factor is 0 with no losing trades.
func ComputeReport(initialCapital float64, curve []EquityPoint, trades []Trade) PerformanceReport {
	r := PerformanceReport{
		InitialCapital: initialCapital,
		FinalCapital:   initialCapital,
		TotalTrades:    len(trades),
	}

	if len(curve) > 0 {
		r.FinalCapital = curve[len(curve)-1].Equity
	}
	r.TotalReturn = (r.FinalCapital - initialCapital) / initialCapital

	r.SharpeRatio = sharpeRatio(curve)
	r.MaxDrawdown = maxDrawdown(initialCapital, curve)

	wins := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
			r.GrossProfit += t.PnL
		} else if t.PnL < 0 {
			r.GrossLoss += -t.PnL
		}
	}
	if len(trades) > 0 {
		r.WinRate = float64(wins) / float64(len(trades))
	}
	if r.GrossLoss > 0 {
		r.ProfitFactor = r.GrossProfit / r.GrossLoss
	}

	return r
}

// sharpeRatio computes mean/std of per-step percentage equity changes,
// annualized by sqrt(annualizationBars). The first step has no predecessor
// and is dropped.
func sharpeRatio(curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, v := range returns {
		mean += v
	}
	mean /= float64(len(returns))

	var variance float64
	for _, v := range returns {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	std := math.Sqrt(variance)
	if std <= 0 {
		return 0
	}
	return mean / std * math.Sqrt(annualizationBars)
}

// maxDrawdown tracks the running equity peak and returns the worst
// peak-to-trough fraction. Always in [0, 1] for non-negative equity.
func maxDrawdown(initialCapital float64, curve []EquityPoint) float64 {
	peak := initialCapital
	maxDD := 0.0
	for _, pt := range curve {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - pt.Equity) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
