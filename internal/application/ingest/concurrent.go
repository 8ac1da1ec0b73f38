package ingest

// Worker pool para descargar precios de varios tokens en paralelo.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

type tokenResult struct {
	token  string
	stored int
	err    error
}

// syncTokensConcurrent procesa cada token en un worker del pool. Los errores de
// un token se loguean y no frenan al resto; el rate limiter del cliente HTTP
// es el que limita el ritmo real de requests.
//
// Si workers <= 0 usa runtime.NumCPU().
func (c *Collector) syncTokensConcurrent(
	ctx context.Context,
	schema string,
	tokens []string,
	start, end time.Time,
	workers int,
) (stored, failed int) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workCh := make(chan string, len(tokens))
	resultCh := make(chan tokenResult, len(tokens))

	// Worker pool: cada worker toma tokens de workCh y envía resultados a resultCh.
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for token := range workCh {
				if ctx.Err() != nil {
					resultCh <- tokenResult{token: token, err: ctx.Err()}
					continue
				}
				n, err := c.syncToken(ctx, schema, token, start, end)
				resultCh <- tokenResult{token: token, stored: n, err: err}
			}
		}()
	}

	for _, token := range tokens {
		workCh <- token
	}
	close(workCh)

	// Cerrar resultCh cuando todos los workers terminen.
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for r := range resultCh {
		if r.err != nil {
			failed++
			slog.Warn("token price sync failed", "token", r.token, "err", r.err)
			continue
		}
		stored += r.stored
	}

	slog.Debug("concurrent price sync complete",
		"tokens_queued", len(tokens),
		"failed", failed,
		"rows", stored,
		"workers", workers,
	)
	return stored, failed
}
