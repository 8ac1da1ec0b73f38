package dataset_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tokenfolio/internal/application/dataset"
	"github.com/alejandrodnm/tokenfolio/internal/application/features"
	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

type fakeStore struct {
	records []domain.PriceRecord
	err     error
}

func (f fakeStore) StorePrices(context.Context, string, []domain.PriceRecord) (int, error) {
	return 0, nil
}

func (f fakeStore) GetPrices(context.Context, string, time.Time, time.Time) ([]domain.PriceRecord, error) {
	return f.records, f.err
}

func (f fakeStore) GetLatestPriceDate(context.Context, string) (*time.Time, error) { return nil, nil }

func (f fakeStore) GetPricesDistinctTokens(context.Context, string) ([]string, error) {
	return nil, nil
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func recs(values ...float64) []domain.PriceRecord {
	out := make([]domain.PriceRecord, 0, len(values))
	for i, v := range values {
		out = append(out, domain.PriceRecord{TokenAddress: "0xa", Timestamp: day(i), Value: decimal.NewFromFloat(v)})
	}
	return out
}

func TestLoad_DerivesBeforeTrimming(t *testing.T) {
	d, err := features.New(2)
	require.NoError(t, err)
	l := dataset.NewLoader(fakeStore{records: recs(10, 11, 12, 13)}, d)

	pts, err := l.Load(context.Background(), "backtest", day(2), time.Time{})
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, day(2), pts[0].Timestamp)
	assert.True(t, pts[0].HasMomentum())
	assert.True(t, pts[0].HasVolatility())
}

func TestLoadSeries_EmptyIsError(t *testing.T) {
	d, err := features.New(features.DefaultWindow)
	require.NoError(t, err)
	l := dataset.NewLoader(fakeStore{}, d)

	_, err = l.LoadSeries(context.Background(), "backtest", time.Time{}, time.Time{})
	assert.ErrorContains(t, err, "no prices")
}

func TestLoad_StoreError(t *testing.T) {
	d, err := features.New(features.DefaultWindow)
	require.NoError(t, err)
	boom := errors.New("db locked")
	l := dataset.NewLoader(fakeStore{err: boom}, d)

	_, err = l.Load(context.Background(), "live", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, boom)
}
