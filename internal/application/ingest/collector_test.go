package ingest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

// --- fakes ---

type memStore struct {
	mu     sync.Mutex
	tokens map[string]domain.Token
	prices map[string][]domain.PriceRecord
	latest *time.Time
}

func newMemStore() *memStore {
	return &memStore{tokens: map[string]domain.Token{}, prices: map[string][]domain.PriceRecord{}}
}

func (m *memStore) StoreTokens(_ context.Context, tokens []domain.Token) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tokens {
		m.tokens[t.Address] = t
	}
	return len(tokens), nil
}

func (m *memStore) GetTokens(context.Context) ([]domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Token, 0, len(m.tokens))
	for _, t := range m.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (m *memStore) CountTokens(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens), nil
}

func (m *memStore) StorePrices(_ context.Context, schema string, prices []domain.PriceRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[schema] = append(m.prices[schema], prices...)
	return len(prices), nil
}

func (m *memStore) GetPrices(_ context.Context, schema string, _, _ time.Time) ([]domain.PriceRecord, error) {
	return m.prices[schema], nil
}

func (m *memStore) GetLatestPriceDate(context.Context, string) (*time.Time, error) {
	return m.latest, nil
}

func (m *memStore) GetPricesDistinctTokens(context.Context, string) ([]string, error) {
	return nil, nil
}

type stubTokens struct {
	tokens []domain.Token
	err    error
}

func (s stubTokens) FetchTokens(context.Context) ([]domain.Token, error) {
	return s.tokens, s.err
}

type call struct {
	token      string
	start, end time.Time
}

type stubPrices struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]bool
}

func (s *stubPrices) FetchHistoricalPrices(_ context.Context, address string, start, end time.Time) ([]domain.PriceRecord, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{token: address, start: start, end: end})
	s.mu.Unlock()
	if s.fail[address] {
		return nil, errors.New("upstream 500")
	}
	return []domain.PriceRecord{{TokenAddress: address, Timestamp: start, Value: decimal.NewFromInt(1)}}, nil
}

type stubMetadata struct{}

func (stubMetadata) ReadMetadata(_ context.Context, address string) (domain.Token, error) {
	if address == "0xbad" {
		return domain.Token{}, errors.New("execution reverted")
	}
	return domain.Token{Address: address, Symbol: "ONC", Name: "Onchain", Decimals: 18}, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- Windows ---

func TestWindows_SplitsByMaxDays(t *testing.T) {
	ws := Windows(date(2023, 1, 1), date(2024, 6, 30), 365)
	require.Len(t, ws, 2)
	assert.Equal(t, date(2023, 1, 1), ws[0].Start)
	assert.Equal(t, date(2023, 12, 31), ws[0].End)
	assert.Equal(t, date(2024, 1, 1), ws[1].Start)
	assert.Equal(t, date(2024, 6, 30), ws[1].End)
}

func TestWindows_SingleDay(t *testing.T) {
	ws := Windows(date(2024, 1, 1), date(2024, 1, 1), 365)
	require.Len(t, ws, 1)
	assert.Equal(t, ws[0].Start, ws[0].End)
}

func TestWindows_EndBeforeStart(t *testing.T) {
	assert.Empty(t, Windows(date(2024, 1, 2), date(2024, 1, 1), 365))
}

// --- SyncTokens ---

func TestSyncTokens_UpsertsAndEnriches(t *testing.T) {
	store := newMemStore()
	store.tokens["0xold"] = domain.Token{Address: "0xold", Symbol: "OLD", Decimals: 6}

	tokens := stubTokens{tokens: []domain.Token{
		{Address: "0xaaa", Symbol: "AAA", Decimals: 18},
		{Address: "0xbbb"},
		{Address: "0xbad"},
	}}
	c := New(Config{}, tokens, &stubPrices{}, store, stubMetadata{})

	report, err := c.SyncTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TokenReport{Before: 1, Fetched: 3, Enriched: 1, After: 4}, report)
	assert.Equal(t, "ONC", store.tokens["0xbbb"].Symbol)
	assert.Equal(t, 18, store.tokens["0xbbb"].Decimals)
	assert.Empty(t, store.tokens["0xbad"].Symbol)
}

func TestSyncTokens_FetchError(t *testing.T) {
	c := New(Config{}, stubTokens{err: errors.New("401")}, &stubPrices{}, newMemStore(), nil)
	_, err := c.SyncTokens(context.Background())
	assert.ErrorContains(t, err, "ingest.SyncTokens: fetch")
}

// --- SyncPrices ---

func TestSyncPrices_WindowsPerToken(t *testing.T) {
	store := newMemStore()
	prices := &stubPrices{}
	c := New(Config{MaxDaysPerRequest: 10, Workers: 2}, stubTokens{}, prices, store, nil)

	report, err := c.SyncPrices(context.Background(), "backtest", []string{"0xa", "0xb"}, date(2024, 1, 1), date(2024, 1, 25))
	require.NoError(t, err)
	assert.Equal(t, PriceReport{Tokens: 2, Failed: 0, Rows: 6}, report)
	assert.Len(t, prices.calls, 6)
	assert.Len(t, store.prices["backtest"], 6)

	var forA []call
	for _, cl := range prices.calls {
		if cl.token == "0xa" {
			forA = append(forA, cl)
		}
	}
	require.Len(t, forA, 3)
	assert.Equal(t, date(2024, 1, 1), forA[0].start)
	assert.Equal(t, date(2024, 1, 10), forA[0].end)
	assert.Equal(t, date(2024, 1, 21), forA[2].start)
	assert.Equal(t, date(2024, 1, 25), forA[2].end)
}

func TestSyncPrices_FailingTokenIsSkipped(t *testing.T) {
	store := newMemStore()
	prices := &stubPrices{fail: map[string]bool{"0xb": true}}
	c := New(Config{Workers: 3}, stubTokens{}, prices, store, nil)

	report, err := c.SyncPrices(context.Background(), "live", []string{"0xa", "0xb", "0xc"}, date(2024, 1, 1), date(2024, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Rows)
	for _, p := range store.prices["live"] {
		assert.NotEqual(t, "0xb", p.TokenAddress)
	}
}

func TestSyncPrices_DefaultsToStoredTokens(t *testing.T) {
	store := newMemStore()
	store.tokens["0x1"] = domain.Token{Address: "0x1"}
	store.tokens["0x2"] = domain.Token{Address: "0x2"}
	c := New(Config{}, stubTokens{}, &stubPrices{}, store, nil)

	report, err := c.SyncPrices(context.Background(), "backtest", nil, date(2024, 1, 1), date(2024, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Tokens)
}

func TestSyncPrices_RejectsInvertedRange(t *testing.T) {
	c := New(Config{}, stubTokens{}, &stubPrices{}, newMemStore(), nil)
	_, err := c.SyncPrices(context.Background(), "backtest", []string{"0xa"}, date(2024, 2, 1), date(2024, 1, 1))
	assert.Error(t, err)
}

// --- ResolveStart ---

func TestResolveStart_UsesLatestOrLookback(t *testing.T) {
	store := newMemStore()
	c := New(Config{}, stubTokens{}, &stubPrices{}, store, nil)
	c.now = func() time.Time { return date(2024, 5, 1) }

	start, err := c.ResolveStart(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 5, 1).AddDate(0, 0, -120), start)

	latest := date(2024, 4, 28)
	store.latest = &latest
	start, err = c.ResolveStart(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, latest, start)
}
