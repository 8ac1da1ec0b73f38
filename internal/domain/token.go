package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress se devuelve cuando un token_address no es una dirección EVM válida.
var ErrInvalidAddress = errors.New("invalid token address")

// Token es un contrato ERC-20 listado por el agregador en una chain EVM.
type Token struct {
	Address  string // siempre normalizada en minúsculas, ver NormalizeAddress
	Symbol   string
	Name     string
	Decimals int
	ChainID  int64
}

// HasMetadata devuelve true si el token ya tiene symbol y decimals conocidos.
func (t Token) HasMetadata() bool {
	return t.Symbol != "" && t.Decimals > 0
}

// Label devuelve un nombre corto para logs y tablas: symbol si existe,
// o la dirección abreviada.
func (t Token) Label() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return ShortAddress(t.Address)
}

// NormalizeAddress valida una dirección EVM (0x + 40 hex) y la devuelve en minúsculas.
// Las direcciones en minúsculas son la clave de tokens en todo el sistema.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) || !strings.HasPrefix(strings.ToLower(addr), "0x") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

// ChecksumAddress devuelve la forma EIP-55 de una dirección ya validada.
func ChecksumAddress(addr string) string {
	return common.HexToAddress(addr).Hex()
}

// ShortAddress abrevia una dirección a 0x1234…abcd.
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
