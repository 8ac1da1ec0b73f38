package storage

// Conexión y schema.
//
// Un solo SQLStorage sirve para SQLite (por defecto, pure Go) y PostgreSQL.
// Las diferencias viven en dialect: placeholders, tipos de columna y cómo se
// nombran las tablas de precios por schema.

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SchemaBacktest = "backtest"
	SchemaLive     = "live"
)

// ErrInvalidSchema se devuelve para cualquier schema fuera de la allow-list.
var ErrInvalidSchema = errors.New("invalid price schema")

// Schemas son los schemas de precios conocidos.
var Schemas = []string{SchemaBacktest, SchemaLive}

// ValidateSchema devuelve ErrInvalidSchema si schema no está en Schemas.
// Los nombres de tabla se arman con este valor, nunca con input sin validar.
func ValidateSchema(schema string) error {
	for _, s := range Schemas {
		if s == schema {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidSchema, schema)
}

// SQLStorage implementa ports.Storage sobre database/sql.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLiteStorage abre (o crea) la base de datos SQLite en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLStorage, error) {
	return Open(DriverSQLite, path)
}

// NewPostgresStorage conecta a PostgreSQL y aplica el schema.
func NewPostgresStorage(dsn string) (*SQLStorage, error) {
	return Open(DriverPostgres, dsn)
}

// Open abre una conexión con el driver dado ("sqlite" o "postgres").
func Open(driver, dsn string) (*SQLStorage, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, fmt.Errorf("storage.Open: %w", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.Open: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite es single-writer
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec(d.ddl()); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.Open: apply schema: %w", err)
	}
	return &SQLStorage{db: db, dialect: d}, nil
}

// Driver devuelve el nombre del driver en uso.
func (s *SQLStorage) Driver() string {
	return s.dialect.name
}

// Close cierra la conexión a la base de datos.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

// --- dialect ---

type dialect struct {
	name string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
		return dialect{name: driver}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
}

func (d dialect) postgres() bool { return d.name == DriverPostgres }

// rebind reemplaza los placeholders "?" por "$n" en PostgreSQL.
func (d dialect) rebind(query string) string {
	if !d.postgres() {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// priceTable devuelve el nombre de la tabla de precios de un schema ya validado.
func (d dialect) priceTable(schema string) string {
	if d.postgres() {
		return schema + ".prices"
	}
	return schema + "_prices"
}

func (d dialect) ddl() string {
	text, num, ts, flt, bigint := "TEXT", "TEXT", "TEXT", "REAL", "INTEGER"
	if d.postgres() {
		num, ts, flt, bigint = "NUMERIC", "TIMESTAMPTZ", "DOUBLE PRECISION", "BIGINT"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
CREATE TABLE IF NOT EXISTS contracts (
    token_address %[1]s PRIMARY KEY,
    symbol        %[1]s NOT NULL DEFAULT '',
    name          %[1]s NOT NULL DEFAULT '',
    decimals      INTEGER NOT NULL DEFAULT 0,
    chain_id      %[5]s NOT NULL DEFAULT 0,
    created_at    %[3]s NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_runs (
    id               %[1]s PRIMARY KEY,
    strategy         %[1]s NOT NULL,
    params           %[1]s NOT NULL,
    started_at       %[3]s NOT NULL,
    initial_capital  %[2]s NOT NULL,
    final_value      %[2]s NOT NULL,
    total_return     %[4]s NOT NULL DEFAULT 0,
    max_drawdown     %[4]s NOT NULL DEFAULT 0,
    sharpe           %[4]s NOT NULL DEFAULT 0,
    snapshots        INTEGER NOT NULL DEFAULT 0,
    rebalances       INTEGER NOT NULL DEFAULT 0,
    empty_rebalances INTEGER NOT NULL DEFAULT 0,
    stop_loss_exits  INTEGER NOT NULL DEFAULT 0,
    data_gaps        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS backtest_snapshots (
    run_id          %[1]s NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
    date            %[3]s NOT NULL,
    portfolio_value %[2]s NOT NULL,
    position_count  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, date)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON backtest_runs(started_at DESC);
`, text, num, ts, flt, bigint)

	for _, schema := range Schemas {
		table := d.priceTable(schema)
		if d.postgres() {
			fmt.Fprintf(&b, "\nCREATE SCHEMA IF NOT EXISTS %s;\n", schema)
		}
		fmt.Fprintf(&b, `
CREATE TABLE IF NOT EXISTS %[1]s (
    token_address %[3]s NOT NULL,
    value         %[4]s NOT NULL,
    timestamp     %[5]s NOT NULL,
    market_cap    %[4]s,
    total_volume  %[4]s,
    created_at    %[5]s NOT NULL,
    UNIQUE (token_address, timestamp)
);

CREATE INDEX IF NOT EXISTS idx_%[2]s_prices_ts ON %[1]s(timestamp);
`, table, schema, text, num, ts)
	}
	return b.String()
}
