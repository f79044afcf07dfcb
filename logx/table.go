package logx

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"
)

// NewTableWriter creates a tabwriter for custom output
func NewTableWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// PrintReportRow - one aligned metric row inside a report table
func PrintReportRow(w *tabwriter.Writer, name, value string) {
	fmt.Fprintf(w, "  %s:\t%s\n", name, value)
}

// PrintTradeRow - one aligned ledger row
func PrintTradeRow(w *tabwriter.Writer, i int, timeMs int64, kind string, price, qty, pnl float64) {
	fmt.Fprintf(w, "  %d\t%s\t%s\t%.4f\t%.6f\t%+.4f\n",
		i,
		time.UnixMilli(timeMs).UTC().Format("2006-01-02 15:04"),
		kind, price, qty, pnl)
}

// PrintTradeHeader - ledger table header
func PrintTradeHeader(w *tabwriter.Writer) {
	fmt.Fprintf(w, "  #\ttime\tkind\tprice\tqty\tpnl\n")
}

// Stdout tabwriter shared by the report helpers
func StdoutTable() *tabwriter.Writer {
	return NewTableWriter(os.Stdout)
}
