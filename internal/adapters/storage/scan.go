package storage

import (
	"fmt"
	"time"
)

// tsLayout es el formato de timestamps en SQLite: UTC, ordenable como texto.
const tsLayout = "2006-01-02T15:04:05Z"

// timeArg convierte t al tipo de parámetro del dialecto.
func (d dialect) timeArg(t time.Time) any {
	if d.postgres() {
		return t.UTC()
	}
	return t.UTC().Format(tsLayout)
}

// dbTime escanea timestamps guardados como TEXT (SQLite) o TIMESTAMPTZ (PostgreSQL).
type dbTime struct {
	Time  time.Time
	Valid bool
}

// Scan implementa sql.Scanner.
func (t *dbTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = x.UTC(), true
		return nil
	case string:
		return t.parse(x)
	case []byte:
		return t.parse(string(x))
	default:
		return fmt.Errorf("storage: cannot scan %T into timestamp", v)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range []string{tsLayout, time.RFC3339Nano, "2006-01-02 15:04:05", time.DateOnly} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("storage: unparseable timestamp %q", s)
}
