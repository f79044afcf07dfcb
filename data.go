package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

const timeLayout = "2006-01-02 15:04:05-07:00"

// PriceBar is one OHLCV time step. Timestamps are unix milliseconds and
// must be strictly increasing within a series.
type PriceBar struct {
	TimeMs int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// LoadPriceBarsCSV reads bars from a CSV with a header row and columns
// timestamp, open, high, low, close, volume. The timestamp column accepts
// either the exchange export layout or raw unix milliseconds.
func LoadPriceBarsCSV(path string) ([]PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReaderSize(f, 1<<20))
	r.ReuseRecord = true

	_, err = r.Read()
	if err != nil {
		return nil, err
	}

	var bars []PriceBar
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("bad CSV row: want 6 columns, got %d", len(rec))
		}

		ts, err := parseBarTime(rec[0])
		if err != nil {
			return nil, err
		}

		open, _ := strconv.ParseFloat(rec[1], 64)
		high, _ := strconv.ParseFloat(rec[2], 64)
		low, _ := strconv.ParseFloat(rec[3], 64)
		closep, _ := strconv.ParseFloat(rec[4], 64)
		vol, _ := strconv.ParseFloat(rec[5], 64)

		bars = append(bars, PriceBar{
			TimeMs: ts,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closep,
			Volume: vol,
		})
	}

	return bars, nil
}

func parseBarTime(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("unparseable bar timestamp %q: %w", s, err)
	}
	return t.UnixMilli(), nil
}

// validateBarOrdering checks that bar timestamps are strictly increasing.
// Returns (ok, badIndex, prevTs, curTs) for error reporting.
func validateBarOrdering(bars []PriceBar) (bool, int, int64, int64) {
	for i := 1; i < len(bars); i++ {
		if bars[i].TimeMs <= bars[i-1].TimeMs {
			return false, i, bars[i-1].TimeMs, bars[i].TimeMs
		}
	}
	return true, -1, 0, 0
}

// SliceBars returns bars[i0:i1) with bounds clamped to the series.
func SliceBars(bars []PriceBar, i0, i1 int) []PriceBar {
	if i0 < 0 {
		i0 = 0
	}
	if i1 > len(bars) {
		i1 = len(bars)
	}
	if i0 >= i1 {
		return nil
	}
	return bars[i0:i1]
}
