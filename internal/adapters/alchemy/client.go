// Package alchemy obtiene precios históricos diarios de tokens desde la Prices API de Alchemy.
package alchemy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/tokenfolio/internal/adapters/httpclient"
	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

const (
	defaultBaseURL    = "https://api.g.alchemy.com/prices/v1"
	historicalPath    = "/tokens/historical"
	defaultNetwork    = "arb-mainnet"
	defaultInterval   = "1d"
	defaultRatePerSec = 5
)

// Config contiene la configuración del cliente.
type Config struct {
	BaseURL    string
	APIKey     string
	Network    string // ej. "arb-mainnet", "eth-mainnet"
	Interval   string // "5m", "1h" o "1d"
	RatePerSec float64
}

// Client implementa ports.PriceProvider contra la API de Alchemy.
type Client struct {
	http     *httpclient.Client
	url      string
	network  string
	interval string
}

// NewClient crea un Client. Los campos vacíos usan producción, Arbitrum y velas diarias.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Network == "" {
		cfg.Network = defaultNetwork
	}
	if cfg.Interval == "" {
		cfg.Interval = defaultInterval
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	return &Client{
		http:     httpclient.New(httpclient.Options{RatePerSec: cfg.RatePerSec}),
		url:      strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.APIKey + historicalPath,
		network:  cfg.Network,
		interval: cfg.Interval,
	}
}

type historicalRequest struct {
	Network   string `json:"network"`
	Address   string `json:"address"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Interval  string `json:"interval"`
}

type pricePoint struct {
	Value       decimal.Decimal     `json:"value"`
	Timestamp   time.Time           `json:"timestamp"`
	MarketCap   decimal.NullDecimal `json:"marketCap"`
	TotalVolume decimal.NullDecimal `json:"totalVolume"`
}

// historicalResponse acepta las dos formas que devuelve la API:
// {"data": [...]} y {"data": {"prices": [...]}}.
type historicalResponse struct {
	Data json.RawMessage `json:"data"`
}

// FetchHistoricalPrices implementa ports.PriceProvider.
func (c *Client) FetchHistoricalPrices(ctx context.Context, address string, start, end time.Time) ([]domain.PriceRecord, error) {
	req := historicalRequest{
		Network:   c.network,
		Address:   address,
		StartTime: start.UTC().Format(time.RFC3339),
		EndTime:   end.UTC().Format(time.RFC3339),
		Interval:  c.interval,
	}

	var resp historicalResponse
	if err := c.http.PostJSON(ctx, c.url, req, &resp); err != nil {
		return nil, fmt.Errorf("alchemy.FetchHistoricalPrices: %s: %w", address, err)
	}

	points, err := parseData(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("alchemy.FetchHistoricalPrices: %s: %w", address, err)
	}

	records := make([]domain.PriceRecord, 0, len(points))
	for _, p := range points {
		records = append(records, domain.PriceRecord{
			TokenAddress: address,
			Timestamp:    p.Timestamp.UTC(),
			Value:        p.Value,
			MarketCap:    p.MarketCap,
			TotalVolume:  p.TotalVolume,
		})
	}

	slog.Debug("alchemy prices fetched",
		"token", address,
		"start", req.StartTime,
		"end", req.EndTime,
		"count", len(records),
	)
	return records, nil
}

func parseData(raw json.RawMessage) ([]pricePoint, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w: missing 'data' key", domain.ErrUnexpectedResponse)
	}

	var points []pricePoint
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &points); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedResponse, err)
		}
		return points, nil
	}

	var wrapped struct {
		Prices []pricePoint `json:"prices"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedResponse, err)
	}
	if wrapped.Prices == nil {
		return nil, fmt.Errorf("%w: missing 'prices' key", domain.ErrUnexpectedResponse)
	}
	return wrapped.Prices, nil
}
