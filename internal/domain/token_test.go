package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress_LowercasesChecksum(t *testing.T) {
	addr, err := NormalizeAddress("0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8")
	require.NoError(t, err)
	assert.Equal(t, "0xff970a61a04b1ca14834a43f5de4533ebddb5cc8", addr)
}

func TestNormalizeAddress_TrimsSpaces(t *testing.T) {
	addr, err := NormalizeAddress("  0x82af49447d8a07e3bd95bd0d56f35241523fbab1 ")
	require.NoError(t, err)
	assert.Equal(t, "0x82af49447d8a07e3bd95bd0d56f35241523fbab1", addr)
}

func TestNormalizeAddress_Invalid(t *testing.T) {
	for _, in := range []string{"", "0x123", "82af49447d8a07e3bd95bd0d56f35241523fbab1", "0xZZaf49447d8a07e3bd95bd0d56f35241523fbab1"} {
		_, err := NormalizeAddress(in)
		assert.True(t, errors.Is(err, ErrInvalidAddress), "input %q", in)
	}
}

func TestToken_Label(t *testing.T) {
	assert.Equal(t, "WETH", Token{Address: "0x82af49447d8a07e3bd95bd0d56f35241523fbab1", Symbol: "WETH"}.Label())
	assert.Equal(t, "0x82af…bab1", Token{Address: "0x82af49447d8a07e3bd95bd0d56f35241523fbab1"}.Label())
}

func TestConfigError_IsInvalidConfig(t *testing.T) {
	var err error = NewConfigError("initial_capital", "must be > 0, got %s", "0")
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "initial_capital", cfgErr.Field)
	assert.Contains(t, err.Error(), "must be > 0")
}
