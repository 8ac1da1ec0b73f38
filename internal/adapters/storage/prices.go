package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// StorePrices hace upsert por (token_address, timestamp): la última escritura gana.
func (s *SQLStorage) StorePrices(ctx context.Context, schema string, prices []domain.PriceRecord) (int, error) {
	if err := ValidateSchema(schema); err != nil {
		return 0, fmt.Errorf("storage.StorePrices: %w", err)
	}
	if len(prices) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.StorePrices: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(fmt.Sprintf(`
		INSERT INTO %s (token_address, value, timestamp, market_cap, total_volume, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(token_address, timestamp) DO UPDATE SET
			value        = excluded.value,
			market_cap   = excluded.market_cap,
			total_volume = excluded.total_volume
	`, s.dialect.priceTable(schema))))
	if err != nil {
		return 0, fmt.Errorf("storage.StorePrices: prepare: %w", err)
	}
	defer stmt.Close()

	now := s.dialect.timeArg(time.Now())
	for _, p := range prices {
		if _, err := stmt.ExecContext(ctx,
			p.TokenAddress,
			p.Value,
			s.dialect.timeArg(p.Timestamp),
			p.MarketCap,
			p.TotalVolume,
			now,
		); err != nil {
			return 0, fmt.Errorf("storage.StorePrices: upsert %s@%s: %w",
				p.TokenAddress, p.Timestamp.Format(time.DateOnly), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage.StorePrices: commit: %w", err)
	}
	return len(prices), nil
}

// GetPrices devuelve los precios en [from, to] ordenados por timestamp y token.
// Un from o to en cero deja ese extremo abierto.
func (s *SQLStorage) GetPrices(ctx context.Context, schema string, from, to time.Time) ([]domain.PriceRecord, error) {
	if err := ValidateSchema(schema); err != nil {
		return nil, fmt.Errorf("storage.GetPrices: %w", err)
	}

	var (
		where []string
		args  []any
	)
	if !from.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, s.dialect.timeArg(from))
	}
	if !to.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, s.dialect.timeArg(to))
	}

	query := fmt.Sprintf(`SELECT token_address, value, timestamp, market_cap, total_volume FROM %s`,
		s.dialect.priceTable(schema))
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp, token_address"

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("storage.GetPrices: query: %w", err)
	}
	defer rows.Close()

	var out []domain.PriceRecord
	for rows.Next() {
		var (
			r  domain.PriceRecord
			ts dbTime
		)
		if err := rows.Scan(&r.TokenAddress, &r.Value, &ts, &r.MarketCap, &r.TotalVolume); err != nil {
			return nil, fmt.Errorf("storage.GetPrices: scan row: %w", err)
		}
		r.Timestamp = ts.Time
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetLatestPriceDate devuelve el timestamp más reciente del schema, o nil si está vacío.
func (s *SQLStorage) GetLatestPriceDate(ctx context.Context, schema string) (*time.Time, error) {
	if err := ValidateSchema(schema); err != nil {
		return nil, fmt.Errorf("storage.GetLatestPriceDate: %w", err)
	}

	var ts dbTime
	query := fmt.Sprintf(`SELECT MAX(timestamp) FROM %s`, s.dialect.priceTable(schema))
	if err := s.db.QueryRowContext(ctx, query).Scan(&ts); err != nil {
		return nil, fmt.Errorf("storage.GetLatestPriceDate: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}

// GetPricesDistinctTokens devuelve los tokens con al menos un precio en el schema.
func (s *SQLStorage) GetPricesDistinctTokens(ctx context.Context, schema string) ([]string, error) {
	if err := ValidateSchema(schema); err != nil {
		return nil, fmt.Errorf("storage.GetPricesDistinctTokens: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT token_address FROM %s ORDER BY token_address`, s.dialect.priceTable(schema)))
	if err != nil {
		return nil, fmt.Errorf("storage.GetPricesDistinctTokens: query: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("storage.GetPricesDistinctTokens: scan row: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
