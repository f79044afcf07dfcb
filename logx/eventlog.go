package logx

import (
	"fmt"
	"time"

	"ml_signal_backtester/tui"
)

// Convenience functions that forward to TUI

func LogTradeEvent(kind string, price, pnl float64) {
	event := tui.Event{
		Timestamp: time.Now(),
		Type:      "TRADE",
		Severity:  "info",
		Message:   fmt.Sprintf("%s price=%.4f pnl=%+.2f", kind, price, pnl),
	}
	tui.PushEvent(event)
}

func LogFoldEvent(fold int, accuracy float64) {
	event := tui.Event{
		Timestamp: time.Now(),
		Type:      "FOLD",
		Severity:  "info",
		Message:   fmt.Sprintf("Fold %d done (accuracy=%.4f)", fold, accuracy),
	}
	tui.PushEvent(event)
}

func LogDrawdownWarning(dd float64) {
	event := tui.Event{
		Timestamp: time.Now(),
		Type:      "DRAWDOWN",
		Severity:  "warning",
		Message:   fmt.Sprintf("Drawdown %.2f%% exceeds comfort threshold", dd*100),
	}
	tui.PushEvent(event)
}

func LogFallbackEvent(barsBuffered int) {
	event := tui.Event{
		Timestamp: time.Now(),
		Type:      "FALLBACK",
		Severity:  "warning",
		Message:   fmt.Sprintf("History too short (%d bars), emitting neutral signal", barsBuffered),
	}
	tui.PushEvent(event)
}

func LogRunError(message string) {
	event := tui.Event{
		Timestamp: time.Now(),
		Type:      "ERROR",
		Severity:  "error",
		Message:   message,
	}
	tui.PushEvent(event)
}
