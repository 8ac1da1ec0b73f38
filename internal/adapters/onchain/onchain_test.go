package onchain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

const weth = "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"

// fakeBackend responde eth_call según el selector del método.
type fakeBackend struct {
	returns  map[string][]byte // método → datos ABI
	fail     map[string]bool
	gasWei   *big.Int
	gasErr   error
	gasCalls int
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	for name, m := range erc20ABI.Methods {
		if !bytes.Equal(msg.Data[:4], m.ID) {
			continue
		}
		if f.fail[name] {
			return nil, errors.New("execution reverted")
		}
		return f.returns[name], nil
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	f.gasCalls++
	if f.gasErr != nil {
		return nil, f.gasErr
	}
	return f.gasWei, nil
}

func packOut(t *testing.T, method string, v any) []byte {
	t.Helper()
	out, err := erc20ABI.Methods[method].Outputs.Pack(v)
	require.NoError(t, err)
	return out
}

// --- MetadataReader ---

func TestReadMetadata_Standard(t *testing.T) {
	b := &fakeBackend{returns: map[string][]byte{
		"symbol":   packOut(t, "symbol", "WETH"),
		"name":     packOut(t, "name", "Wrapped Ether"),
		"decimals": packOut(t, "decimals", uint8(18)),
	}}

	tok, err := NewMetadataReader(b, 42161).ReadMetadata(context.Background(), weth)
	require.NoError(t, err)
	assert.Equal(t, "0x82af49447d8a07e3bd95bd0d56f35241523fbab1", tok.Address)
	assert.Equal(t, "WETH", tok.Symbol)
	assert.Equal(t, "Wrapped Ether", tok.Name)
	assert.Equal(t, 18, tok.Decimals)
	assert.Equal(t, int64(42161), tok.ChainID)
}

func TestReadMetadata_Bytes32Symbol(t *testing.T) {
	var sym [32]byte
	copy(sym[:], "MKR")
	b := &fakeBackend{returns: map[string][]byte{
		"symbol":   sym[:],
		"name":     packOut(t, "name", "Maker"),
		"decimals": packOut(t, "decimals", uint8(18)),
	}}

	tok, err := NewMetadataReader(b, 1).ReadMetadata(context.Background(), weth)
	require.NoError(t, err)
	assert.Equal(t, "MKR", tok.Symbol)
}

func TestReadMetadata_NameRevertsIsTolerated(t *testing.T) {
	b := &fakeBackend{
		returns: map[string][]byte{
			"symbol":   packOut(t, "symbol", "USDC"),
			"decimals": packOut(t, "decimals", uint8(6)),
		},
		fail: map[string]bool{"name": true},
	}

	tok, err := NewMetadataReader(b, 42161).ReadMetadata(context.Background(), weth)
	require.NoError(t, err)
	assert.Equal(t, "USDC", tok.Symbol)
	assert.Empty(t, tok.Name)
	assert.Equal(t, 6, tok.Decimals)
}

func TestReadMetadata_DecimalsRequired(t *testing.T) {
	b := &fakeBackend{fail: map[string]bool{"decimals": true}}
	_, err := NewMetadataReader(b, 42161).ReadMetadata(context.Background(), weth)
	assert.ErrorContains(t, err, "decimals")
}

func TestReadMetadata_InvalidAddress(t *testing.T) {
	_, err := NewMetadataReader(&fakeBackend{}, 42161).ReadMetadata(context.Background(), "0x1234")
	assert.True(t, errors.Is(err, domain.ErrInvalidAddress))
}

// --- GasOracle ---

func coingecko(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "ethereum", r.URL.Query().Get("ids"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEstimateSwapCostUSD(t *testing.T) {
	srv := coingecko(t, `{"ethereum":{"usd":2000}}`, http.StatusOK)
	b := &fakeBackend{gasWei: big.NewInt(1_000_000_000)} // 1 gwei → 1.1 gwei con margen

	g := NewGasOracle(b, GasConfig{SwapGasLimit: 200_000, PriceURL: srv.URL})
	cost, err := g.EstimateSwapCostUSD(context.Background())
	require.NoError(t, err)

	// 1.1e9 wei × 200000 = 2.2e14 wei = 0.00022 ETH × 2000 = 0.44 USD
	assert.True(t, cost.Equal(decimal.RequireFromString("0.44")), "got %s", cost)
}

func TestEstimateSwapCostUSD_CachesGasPrice(t *testing.T) {
	srv := coingecko(t, `{"ethereum":{"usd":2000}}`, http.StatusOK)
	b := &fakeBackend{gasWei: big.NewInt(1_000_000_000)}
	g := NewGasOracle(b, GasConfig{PriceURL: srv.URL})

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	_, err := g.EstimateSwapCostUSD(context.Background())
	require.NoError(t, err)
	_, err = g.EstimateSwapCostUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, b.gasCalls)

	now = now.Add(6 * time.Minute)
	_, err = g.EstimateSwapCostUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, b.gasCalls)
}

func TestEstimateSwapCostUSD_NativePriceFallback(t *testing.T) {
	srv := coingecko(t, `{"error":"bad request"}`, http.StatusBadRequest)
	b := &fakeBackend{gasWei: big.NewInt(1_000_000_000)}

	g := NewGasOracle(b, GasConfig{SwapGasLimit: 100_000, PriceURL: srv.URL, NativeFallback: 1000})
	cost, err := g.EstimateSwapCostUSD(context.Background())
	require.NoError(t, err)

	// 1.1e9 × 1e5 = 1.1e14 wei = 0.00011 ETH × 1000
	assert.True(t, cost.Equal(decimal.RequireFromString("0.11")), "got %s", cost)
}

func TestEstimateSwapCostUSD_GasFallback(t *testing.T) {
	srv := coingecko(t, `{"ethereum":{"usd":1000}}`, http.StatusOK)
	b := &fakeBackend{gasErr: errors.New("connection refused")}

	g := NewGasOracle(b, GasConfig{SwapGasLimit: 100_000, PriceURL: srv.URL})
	cost, err := g.EstimateSwapCostUSD(context.Background())
	require.NoError(t, err)

	// 0.1 gwei × 1e5 = 1e13 wei = 0.00001 ETH × 1000
	assert.True(t, cost.Equal(decimal.RequireFromString("0.01")), "got %s", cost)
}
