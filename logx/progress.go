package logx

import (
	"fmt"
	"strings"
	"time"
)

// LogBacktestProgress - single line progress log during a backtest run
func LogBacktestProgress(bar, total int, equity float64, trades int, rate float64) {
	fmt.Printf("%s  %s  bar %s/%s | equity=%.2f | trades=%d | %.0f bars/s\n",
		TS(), Channel("BT  "),
		formatNumber(bar), formatNumber(total), equity, trades, rate)
}

// LogDataLoaded - data load summary line
func LogDataLoaded(path string, bars int, firstMs, lastMs int64) {
	fmt.Printf("%s  %s  loaded %s bars from %s (%s -> %s)\n",
		TS(), Channel("DATA"),
		formatNumber(bars), path,
		time.UnixMilli(firstMs).UTC().Format("2006-01-02"),
		time.UnixMilli(lastMs).UTC().Format("2006-01-02"),
	)
}

// LogSignal - one decided signal (used by verbose inference runs)
func LogSignal(bar int, kind string, confidence float64, bucket string) {
	fmt.Printf("%s  %s  bar=%d signal=%s conf=%.3f bucket=%s\n",
		TS(), Channel("SIG "), bar, kind, confidence, bucket)
}

// LogWalkForward - walk-forward validation result line
func LogWalkForward(trainRows, testRows int, accuracy float64) {
	fmt.Printf("%s  %s  train=%s test=%s | oos R²=%.4f\n",
		TS(), Channel("VAL "),
		formatNumber(trainRows), formatNumber(testRows), accuracy)
}

// LogArtifacts - artifact load summary
func LogArtifacts(dir string, features, windowSize int) {
	fmt.Printf("%s  %s  artifacts from %s: %d features, window=%d\n",
		TS(), Channel("CAL "), dir, features, windowSize)
}

// formatDuration formats a duration in a human-readable way
// Shows hours, minutes, and seconds (e.g., "1h23m45s" or "45m32s" or "23s")
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, minutes)
}

// LogRunDone - final line after a backtest completes
func LogRunDone(trades int, elapsed time.Duration) {
	fmt.Printf("%s  %s  done: %d trades (runtime %s)\n",
		TS(), Channel("BT  "), trades, formatDuration(elapsed))
}

// formatNumber formats a number with thousands separators (e.g., 12,345)
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []string
	for i := len(s); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		result = append([]string{s[start:i]}, result...)
	}
	return strings.Join(result, ",")
}

// FormatNumberSimple formats a number with thousands separators (exported version)
func FormatNumberSimple(n int) string {
	return formatNumber(n)
}
