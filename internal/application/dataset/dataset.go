// Package dataset turns stored prices into the universe a backtest runs on.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/tokenfolio/internal/application/features"
	"github.com/alejandrodnm/tokenfolio/internal/domain"
	"github.com/alejandrodnm/tokenfolio/internal/ports"
)

// Loader reads a price schema and derives the rolling signals.
type Loader struct {
	store   ports.PriceStore
	deriver *features.Deriver
}

// NewLoader creates a loader over store.
func NewLoader(store ports.PriceStore, deriver *features.Deriver) *Loader {
	return &Loader{store: store, deriver: deriver}
}

// Load returns the points of schema in [from, to]. A zero bound is open.
//
// Signals are derived over the full stored history up to `to`, so points near
// `from` already carry values computed from earlier observations.
func (l *Loader) Load(ctx context.Context, schema string, from, to time.Time) ([]domain.PricePoint, error) {
	records, err := l.store.GetPrices(ctx, schema, time.Time{}, to)
	if err != nil {
		return nil, fmt.Errorf("dataset.Load: %w", err)
	}

	points := l.deriver.Derive(records)
	if !from.IsZero() {
		kept := points[:0]
		for _, p := range points {
			if !p.Timestamp.Before(from) {
				kept = append(kept, p)
			}
		}
		points = kept
	}

	slog.Info("dataset loaded",
		"schema", schema,
		"records", len(records),
		"points", len(points),
		"window", l.deriver.Window(),
	)
	return points, nil
}

// LoadSeries is Load followed by domain.NewSeries.
func (l *Loader) LoadSeries(ctx context.Context, schema string, from, to time.Time) (*domain.Series, error) {
	points, err := l.Load(ctx, schema, from, to)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("dataset.LoadSeries: no prices in schema %q", schema)
	}
	return domain.NewSeries(points), nil
}
