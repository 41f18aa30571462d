// Copyright (c) 2025 TradeLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/url"
)

// =============================================================================
// STOCK CHART DATA
// =============================================================================

// Transaction is a buy or sell recorded against a symbol.
type Transaction struct {
	ID    int64   `json:"id"`
	Date  string  `json:"date"`
	Time  string  `json:"time,omitempty"`
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// Split is a stock split event. Price is the adjusted price at the
// split date when the backend knows it.
type Split struct {
	Date  string   `json:"date"`
	Ratio float64  `json:"ratio"`
	Price *float64 `json:"price,omitempty"`
}

// ChartData is the wire format of GET /api/stock_chart/{symbol}.
// Dates and Prices are parallel arrays; a length mismatch is invalid
// and nothing may be rendered from it.
type ChartData struct {
	Dates            []string      `json:"dates"`
	Prices           []float64     `json:"prices"`
	BuyTransactions  []Transaction `json:"buy_transactions"`
	SellTransactions []Transaction `json:"sell_transactions"`
	SplitEvents      []Split       `json:"split_events"`
	Error            string        `json:"error,omitempty"`
}

// StockChart fetches price history and transaction markers for a symbol.
// rng is one of the accepted range selectors ("all", "1y", "6m", "3m", "1m").
func (c *Client) StockChart(ctx context.Context, symbol, rng string) (*ChartData, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	path := "/api/stock_chart/" + url.PathEscape(symbol)
	if rng != "" {
		path += "?range=" + url.QueryEscape(rng)
	}

	var data ChartData
	if err := c.getJSON(reqCtx, path, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
