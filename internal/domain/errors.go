package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marca parámetros de backtest o de configuración fuera de rango.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnexpectedResponse se devuelve cuando una API externa responde con un cuerpo
	// que no tiene la forma esperada.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// ConfigError identifica el campo inválido. errors.Is(err, ErrInvalidConfig) es true.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// NewConfigError construye un *ConfigError con motivo formateado.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
