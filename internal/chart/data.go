// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chart validates stock chart data and renders it as a
// terminal price chart with buy, sell and split markers.
package chart

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tradelens/tradelens-tui/internal/api"
)

// Validation errors. A series that fails validation renders nothing.
var (
	// ErrNoData means the backend returned no usable points.
	ErrNoData = errors.New("no chart data available")
	// ErrDataMismatch means dates and prices are not parallel arrays.
	ErrDataMismatch = errors.New("invalid chart data")
)

// Marker is a buy or sell placed on the price series.
type Marker struct {
	Index int // position in the date axis
	Price float64
	Qty   float64
	Date  string
	Time  string
	ID    int64
}

// SplitMarker is a stock split annotation: a vertical line at the split
// date plus, when the backend supplied a price, a point at that price.
type SplitMarker struct {
	Index int
	Label string // e.g. "2:1 Split"
	Price *float64
}

// Series is validated, render-ready chart data.
type Series struct {
	Symbol string
	Dates  []string
	Prices []float64
	Buys   []Marker
	Sells  []Marker
	Splits []SplitMarker
}

// BuildSeries validates raw chart data and assembles markers.
//
// Rules: a backend-reported error or empty series yields ErrNoData; a
// dates/prices length mismatch yields ErrDataMismatch; NaN prices are
// dropped together with their dates; transactions and splits that do
// not land on a remaining date are skipped.
func BuildSeries(data *api.ChartData, symbol string) (*Series, error) {
	if data == nil || data.Error != "" {
		return nil, ErrNoData
	}
	if len(data.Dates) != len(data.Prices) {
		return nil, ErrDataMismatch
	}
	if len(data.Dates) == 0 {
		return nil, ErrNoData
	}

	s := &Series{Symbol: symbol}
	index := make(map[string]int)
	for i, d := range data.Dates {
		if math.IsNaN(data.Prices[i]) || math.IsInf(data.Prices[i], 0) {
			continue
		}
		index[d] = len(s.Dates)
		s.Dates = append(s.Dates, d)
		s.Prices = append(s.Prices, data.Prices[i])
	}
	if len(s.Dates) == 0 {
		return nil, ErrNoData
	}

	for _, tx := range data.BuyTransactions {
		if i, ok := index[tx.Date]; ok {
			s.Buys = append(s.Buys, markerFrom(tx, i))
		}
	}
	for _, tx := range data.SellTransactions {
		if i, ok := index[tx.Date]; ok {
			s.Sells = append(s.Sells, markerFrom(tx, i))
		}
	}
	for _, sp := range data.SplitEvents {
		if i, ok := index[sp.Date]; ok {
			s.Splits = append(s.Splits, SplitMarker{
				Index: i,
				Label: fmt.Sprintf("%g:1 Split", sp.Ratio),
				Price: sp.Price,
			})
		}
	}

	return s, nil
}

func markerFrom(tx api.Transaction, index int) Marker {
	return Marker{
		Index: index,
		Price: tx.Price,
		Qty:   tx.Qty,
		Date:  tx.Date,
		Time:  tx.Time,
		ID:    tx.ID,
	}
}

// rangeCutoffs maps range selectors to lookback durations. "all" has no
// cutoff.
var rangeCutoffs = map[string]time.Duration{
	"1y": 365 * 24 * time.Hour,
	"6m": 182 * 24 * time.Hour,
	"3m": 91 * 24 * time.Hour,
	"1m": 30 * 24 * time.Hour,
}

// FilterRange trims a series to the selected range, measured back from
// the most recent date. Unknown selectors and "all" keep everything.
// Markers outside the window are dropped and indexes rebased.
func FilterRange(s *Series, rng string) *Series {
	cutoffDur, ok := rangeCutoffs[rng]
	if !ok {
		return s
	}

	last, err := time.Parse("2006-01-02", s.Dates[len(s.Dates)-1])
	if err != nil {
		return s
	}
	cutoff := last.Add(-cutoffDur)

	start := 0
	for i, d := range s.Dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			start = i
			break
		}
	}
	if start == 0 {
		return s
	}

	out := &Series{
		Symbol: s.Symbol,
		Dates:  s.Dates[start:],
		Prices: s.Prices[start:],
	}
	for _, m := range s.Buys {
		if m.Index >= start {
			m.Index -= start
			out.Buys = append(out.Buys, m)
		}
	}
	for _, m := range s.Sells {
		if m.Index >= start {
			m.Index -= start
			out.Sells = append(out.Sells, m)
		}
	}
	for _, sp := range s.Splits {
		if sp.Index >= start {
			sp.Index -= start
			out.Splits = append(out.Splits, sp)
		}
	}
	return out
}
