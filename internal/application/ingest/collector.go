// Package ingest descarga tokens y precios históricos y los guarda en el store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
	"github.com/alejandrodnm/tokenfolio/internal/ports"
)

const (
	DefaultMaxDaysPerRequest = 365
	DefaultLookbackDays      = 120
)

// DefaultStart es la fecha de lanzamiento de Ethereum, el inicio usado cuando no se pide otro.
var DefaultStart = time.Date(2015, 7, 30, 0, 0, 0, 0, time.UTC)

// Config contiene la configuración del collector.
type Config struct {
	MaxDaysPerRequest int // días por request a la API de precios (0 = 365)
	LookbackDays      int // ventana hacia atrás si el schema está vacío (0 = 120)
	Workers           int // goroutines para descargar tokens en paralelo (0 = NumCPU)
}

// Store es lo que el collector necesita de la base de datos.
type Store interface {
	ports.TokenStore
	ports.PriceStore
}

// Collector orquesta la sincronización de tokens y precios.
type Collector struct {
	cfg      Config
	tokens   ports.TokenProvider
	prices   ports.PriceProvider
	store    Store
	metadata ports.TokenMetadataReader
	now      func() time.Time
}

// New crea un Collector con todas las dependencias inyectadas.
// metadata puede ser nil: en ese caso los tokens sin symbol/decimals se guardan tal cual.
func New(
	cfg Config,
	tokens ports.TokenProvider,
	prices ports.PriceProvider,
	store Store,
	metadata ports.TokenMetadataReader,
) *Collector {
	if cfg.MaxDaysPerRequest <= 0 {
		cfg.MaxDaysPerRequest = DefaultMaxDaysPerRequest
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	return &Collector{
		cfg:      cfg,
		tokens:   tokens,
		prices:   prices,
		store:    store,
		metadata: metadata,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TokenReport resume una sincronización de tokens.
type TokenReport struct {
	Before   int
	Fetched  int
	Enriched int
	After    int
}

// SyncTokens descarga la lista de tokens y hace upsert en contracts.
func (c *Collector) SyncTokens(ctx context.Context) (TokenReport, error) {
	var report TokenReport

	before, err := c.store.CountTokens(ctx)
	if err != nil {
		return report, fmt.Errorf("ingest.SyncTokens: count before: %w", err)
	}
	report.Before = before

	tokens, err := c.tokens.FetchTokens(ctx)
	if err != nil {
		return report, fmt.Errorf("ingest.SyncTokens: fetch: %w", err)
	}
	report.Fetched = len(tokens)

	if c.metadata != nil {
		for i, tok := range tokens {
			if tok.HasMetadata() {
				continue
			}
			meta, err := c.metadata.ReadMetadata(ctx, tok.Address)
			if err != nil {
				slog.Debug("on-chain metadata unavailable", "token", tok.Address, "err", err)
				continue
			}
			tokens[i] = mergeMetadata(tok, meta)
			report.Enriched++
		}
	}

	if _, err := c.store.StoreTokens(ctx, tokens); err != nil {
		return report, fmt.Errorf("ingest.SyncTokens: store: %w", err)
	}

	after, err := c.store.CountTokens(ctx)
	if err != nil {
		return report, fmt.Errorf("ingest.SyncTokens: count after: %w", err)
	}
	report.After = after

	slog.Info("tokens synced",
		"before", report.Before,
		"fetched", report.Fetched,
		"enriched", report.Enriched,
		"after", report.After,
	)
	return report, nil
}

func mergeMetadata(tok, meta domain.Token) domain.Token {
	if tok.Symbol == "" {
		tok.Symbol = meta.Symbol
	}
	if tok.Name == "" {
		tok.Name = meta.Name
	}
	if tok.Decimals == 0 {
		tok.Decimals = meta.Decimals
	}
	return tok
}

// ResolveStart devuelve el timestamp más reciente del schema, o now − LookbackDays
// si todavía no hay precios.
func (c *Collector) ResolveStart(ctx context.Context, schema string) (time.Time, error) {
	latest, err := c.store.GetLatestPriceDate(ctx, schema)
	if err != nil {
		return time.Time{}, fmt.Errorf("ingest.ResolveStart: %w", err)
	}
	if latest != nil {
		return latest.UTC(), nil
	}
	return c.now().AddDate(0, 0, -c.cfg.LookbackDays), nil
}

// PriceReport resume una sincronización de precios.
type PriceReport struct {
	Tokens int
	Failed int
	Rows   int
}

// SyncPrices descarga y guarda precios de tokens entre start y end.
// Si tokens está vacío usa todos los tokens de contracts. Un start en cero usa
// DefaultStart y un end en cero usa now. Un token que falla se loguea y se salta.
func (c *Collector) SyncPrices(ctx context.Context, schema string, tokens []string, start, end time.Time) (PriceReport, error) {
	if start.IsZero() {
		start = DefaultStart
	}
	if end.IsZero() {
		end = c.now()
	}
	if end.Before(start) {
		return PriceReport{}, fmt.Errorf("ingest.SyncPrices: end %s before start %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	if len(tokens) == 0 {
		stored, err := c.store.GetTokens(ctx)
		if err != nil {
			return PriceReport{}, fmt.Errorf("ingest.SyncPrices: list tokens: %w", err)
		}
		for _, t := range stored {
			tokens = append(tokens, t.Address)
		}
	}
	if len(tokens) == 0 {
		slog.Info("no tokens to sync, skipping price fetch")
		return PriceReport{}, nil
	}

	slog.Info("syncing historical prices",
		"schema", schema,
		"tokens", len(tokens),
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
	)

	rows, failed := c.syncTokensConcurrent(ctx, schema, tokens, start, end, c.cfg.Workers)
	if err := ctx.Err(); err != nil {
		return PriceReport{Tokens: len(tokens), Failed: failed, Rows: rows}, fmt.Errorf("ingest.SyncPrices: %w", err)
	}

	report := PriceReport{Tokens: len(tokens), Failed: failed, Rows: rows}
	slog.Info("prices synced", "schema", schema, "tokens", report.Tokens, "failed", report.Failed, "rows", report.Rows)
	return report, nil
}

// syncToken recorre las ventanas de un token en orden y guarda todo al final.
func (c *Collector) syncToken(ctx context.Context, schema, token string, start, end time.Time) (int, error) {
	var all []domain.PriceRecord
	for i, w := range Windows(start, end, c.cfg.MaxDaysPerRequest) {
		batch, err := c.prices.FetchHistoricalPrices(ctx, token, w.Start, w.End)
		if err != nil {
			return 0, fmt.Errorf("window %d (%s..%s): %w", i+1,
				w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly), err)
		}
		if len(batch) == 0 {
			slog.Debug("no prices in window", "token", token, "window", i+1)
			continue
		}
		all = append(all, batch...)
	}
	if len(all) == 0 {
		return 0, nil
	}

	n, err := c.store.StorePrices(ctx, schema, all)
	if err != nil {
		return 0, fmt.Errorf("store: %w", err)
	}
	return n, nil
}

// Window es un rango [Start, End] que cabe en una request a la API de precios.
type Window struct {
	Start time.Time
	End   time.Time
}

// Windows parte [start, end] en ventanas contiguas de maxDays días como máximo.
// Cada ventana empieza el día siguiente al fin de la anterior.
func Windows(start, end time.Time, maxDays int) []Window {
	if maxDays <= 0 {
		maxDays = DefaultMaxDaysPerRequest
	}
	var out []Window
	for cur := start; !cur.After(end); {
		wEnd := cur.AddDate(0, 0, maxDays-1)
		if wEnd.After(end) {
			wEnd = end
		}
		out = append(out, Window{Start: cur, End: wEnd})
		cur = wEnd.AddDate(0, 0, 1)
	}
	return out
}
