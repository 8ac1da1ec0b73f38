package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// StoreTokens hace upsert de los tokens por token_address. created_at no se sobreescribe.
func (s *SQLStorage) StoreTokens(ctx context.Context, tokens []domain.Token) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.StoreTokens: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(`
		INSERT INTO contracts (token_address, symbol, name, decimals, chain_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(token_address) DO UPDATE SET
			symbol   = excluded.symbol,
			name     = excluded.name,
			decimals = excluded.decimals,
			chain_id = excluded.chain_id
	`))
	if err != nil {
		return 0, fmt.Errorf("storage.StoreTokens: prepare: %w", err)
	}
	defer stmt.Close()

	now := s.dialect.timeArg(time.Now())
	for _, t := range tokens {
		if _, err := stmt.ExecContext(ctx, t.Address, t.Symbol, t.Name, t.Decimals, t.ChainID, now); err != nil {
			return 0, fmt.Errorf("storage.StoreTokens: upsert %s: %w", t.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage.StoreTokens: commit: %w", err)
	}
	return len(tokens), nil
}

// GetTokens devuelve todos los contratos ordenados por dirección.
func (s *SQLStorage) GetTokens(ctx context.Context) ([]domain.Token, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token_address, symbol, name, decimals, chain_id
		FROM contracts
		ORDER BY token_address
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetTokens: query: %w", err)
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		var t domain.Token
		if err := rows.Scan(&t.Address, &t.Symbol, &t.Name, &t.Decimals, &t.ChainID); err != nil {
			return nil, fmt.Errorf("storage.GetTokens: scan row: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// CountTokens devuelve cuántos contratos hay guardados.
func (s *SQLStorage) CountTokens(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.CountTokens: %w", err)
	}
	return n, nil
}
