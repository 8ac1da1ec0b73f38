package onchain

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alejandrodnm/tokenfolio/internal/domain"
)

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{"name": "symbol",   "type": "function", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
		{"name": "name",     "type": "function", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
		{"name": "decimals", "type": "function", "inputs": [], "outputs": [{"name": "", "type": "uint8"}]}
	]`))
	if err != nil {
		panic("erc20 abi parse: " + err.Error())
	}
}

// MetadataReader implementa ports.TokenMetadataReader.
type MetadataReader struct {
	backend Backend
	chainID int64
}

// NewMetadataReader crea un lector de metadata ERC-20 para la cadena chainID.
func NewMetadataReader(backend Backend, chainID int64) *MetadataReader {
	return &MetadataReader{backend: backend, chainID: chainID}
}

// ReadMetadata consulta symbol, name y decimals del contrato en address.
// Si symbol o name fallan (contratos no estándar) quedan vacíos; decimals es obligatorio.
func (r *MetadataReader) ReadMetadata(ctx context.Context, address string) (domain.Token, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return domain.Token{}, fmt.Errorf("onchain.ReadMetadata: %w", err)
	}
	contract := common.HexToAddress(addr)

	tok := domain.Token{Address: addr, ChainID: r.chainID}

	raw, err := r.call(ctx, contract, "decimals")
	if err != nil {
		return domain.Token{}, fmt.Errorf("onchain.ReadMetadata: %s decimals: %w", addr, err)
	}
	vals, err := erc20ABI.Unpack("decimals", raw)
	if err != nil || len(vals) == 0 {
		return domain.Token{}, fmt.Errorf("onchain.ReadMetadata: %s decimals: %w: %v", addr, domain.ErrUnexpectedResponse, err)
	}
	dec, ok := vals[0].(uint8)
	if !ok {
		return domain.Token{}, fmt.Errorf("onchain.ReadMetadata: %s decimals: %w", addr, domain.ErrUnexpectedResponse)
	}
	tok.Decimals = int(dec)

	tok.Symbol = r.readString(ctx, contract, "symbol")
	tok.Name = r.readString(ctx, contract, "name")

	slog.Debug("erc20 metadata read", "token", addr, "symbol", tok.Symbol, "decimals", tok.Decimals)
	return tok, nil
}

func (r *MetadataReader) call(ctx context.Context, contract common.Address, method string) ([]byte, error) {
	data, err := erc20ABI.Pack(method)
	if err != nil {
		return nil, err
	}
	return r.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
}

// readString lee un método string; acepta también contratos antiguos que devuelven bytes32.
func (r *MetadataReader) readString(ctx context.Context, contract common.Address, method string) string {
	raw, err := r.call(ctx, contract, method)
	if err != nil {
		slog.Warn("erc20 call failed", "token", contract.Hex(), "method", method, "err", err)
		return ""
	}

	vals, err := erc20ABI.Unpack(method, raw)
	if err == nil && len(vals) > 0 {
		if s, ok := vals[0].(string); ok {
			return s
		}
	}

	if len(raw) == 32 {
		return string(bytes.TrimRight(raw, "\x00"))
	}
	slog.Warn("erc20 unexpected return", "token", contract.Hex(), "method", method, "len", len(raw))
	return ""
}
