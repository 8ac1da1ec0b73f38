// Package oneinch obtiene la lista de tokens soportados por el agregador 1inch.
package oneinch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/buger/jsonparser"

	"github.com/alejandrodnm/tokenfolio/internal/adapters/httpclient"
	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

const (
	defaultBaseURL = "https://api.1inch.dev"
	tokensPath     = "/swap/v6.1/%d/tokens"

	// Plan gratuito de 1inch: 1 req/s.
	defaultRatePerSec = 1

	DefaultChainID = 42161 // Arbitrum One
)

// Config contiene la configuración del cliente.
type Config struct {
	BaseURL    string
	APIKey     string
	ChainID    int64
	RatePerSec float64
}

// Client implementa ports.TokenProvider contra la API de 1inch.
type Client struct {
	http    *httpclient.Client
	baseURL string
	chainID int64
}

// NewClient crea un Client. BaseURL y ChainID vacíos usan producción y Arbitrum One.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = DefaultChainID
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	return &Client{
		http: httpclient.New(httpclient.Options{
			RatePerSec: cfg.RatePerSec,
			Headers:    map[string]string{"Authorization": "Bearer " + cfg.APIKey},
		}),
		baseURL: cfg.BaseURL,
		chainID: cfg.ChainID,
	}
}

// FetchTokens implementa ports.TokenProvider.
func (c *Client) FetchTokens(ctx context.Context) ([]domain.Token, error) {
	url := c.baseURL + fmt.Sprintf(tokensPath, c.chainID)
	body, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("oneinch.FetchTokens: %w", err)
	}

	tokens, err := ParseTokens(body, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("oneinch.FetchTokens: %w", err)
	}

	slog.Debug("1inch tokens fetched", "chain_id", c.chainID, "count", len(tokens))
	return tokens, nil
}

// ParseTokens lee {"tokens": {"<address>": {...}}} respetando el orden del documento.
// Las entradas con dirección inválida se descartan con un warning.
func ParseTokens(body []byte, chainID int64) ([]domain.Token, error) {
	obj, dataType, _, err := jsonparser.Get(body, "tokens")
	if errors.Is(err, jsonparser.KeyPathNotFoundError) || (err == nil && dataType != jsonparser.Object) {
		return nil, fmt.Errorf("%w: missing 'tokens' key", domain.ErrUnexpectedResponse)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedResponse, err)
	}

	var tokens []domain.Token
	err = jsonparser.ObjectEach(obj, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		addr, err := domain.NormalizeAddress(string(key))
		if err != nil {
			slog.Warn("skipping token with invalid address", "address", string(key))
			return nil
		}
		tok := domain.Token{Address: addr, ChainID: chainID}
		if vt == jsonparser.Object {
			tok.Symbol, _ = jsonparser.GetString(value, "symbol")
			tok.Name, _ = jsonparser.GetString(value, "name")
			if dec, err := jsonparser.GetInt(value, "decimals"); err == nil {
				tok.Decimals = int(dec)
			}
			if id, err := jsonparser.GetInt(value, "chainId"); err == nil && id != 0 {
				tok.ChainID = id
			}
		}
		tokens = append(tokens, tok)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedResponse, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty 'tokens' object", domain.ErrUnexpectedResponse)
	}
	return tokens, nil
}
