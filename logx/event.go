package logx

import (
	"fmt"
	"time"
)

const eventSep = "═══════════════════════════════════════════════════════════════════"

// LogEntryBlock - position entry event block at bar close (t)
// bar: true bar index (absolute position in full dataset)
// ts: timestamp of the entry bar
// kind: "open_long" or "open_short"
// fillPrice: entry price after slippage adjustment
// qty: position quantity
func LogEntryBlock(bar int, ts time.Time, kind string, fillPrice, qty float64) {
	fmt.Printf("%s\n%s  [BT  ]  ENTRY (t close)\nTimestamp:    %s\nBar Index:    %d\nKind:         %s\nFill Price:   %.6f\nQuantity:     %.6f\n%s\n",
		eventSep,
		C(cyan, time.Now().UTC().Format("15:04:05.000Z")),
		C(gray, ts.UTC().Format("2006-01-02 15:04:05.000Z")),
		bar,
		C(green, kind),
		fillPrice,
		qty,
		eventSep,
	)
}

// LogExitBlock - position exit event block with realized PnL
// kind: "close_long" or "close_short"
func LogExitBlock(bar int, ts time.Time, kind string, price, pnl float64) {
	pnlColor := green
	if pnl < 0 {
		pnlColor = red
	}
	fmt.Printf("%s\n%s  [BT  ]  EXIT (t close)\nTimestamp:    %s\nBar Index:    %d\nKind:         %s\nExit Price:   %.6f\nRealized PnL: %s\n%s\n",
		eventSep,
		C(cyan, time.Now().UTC().Format("15:04:05.000Z")),
		C(gray, ts.UTC().Format("2006-01-02 15:04:05.000Z")),
		bar,
		C(yellow, kind),
		price,
		C(pnlColor, fmt.Sprintf("%+.4f", pnl)),
		eventSep,
	)
}

