package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/mibagent/internal/mib"
)

// Column encoding of a value: kind tag plus one populated column.
const (
	kindText    = "text"
	kindInteger = "integer"
)

// row is a scalars table row.
type row struct {
	name string
	kind string
	text sql.NullString
	num  sql.NullInt64
	seq  int64
}

// marshalValue splits a value into its kind tag and column values.
func marshalValue(v mib.Value) (kind string, text sql.NullString, num sql.NullInt64, err error) {
	switch val := v.(type) {
	case mib.Text:
		return kindText, sql.NullString{String: string(val), Valid: true}, sql.NullInt64{}, nil
	case mib.Integer:
		return kindInteger, sql.NullString{}, sql.NullInt64{Int64: int64(val), Valid: true}, nil
	}
	return "", sql.NullString{}, sql.NullInt64{}, fmt.Errorf("marshal value: unsupported %T", v)
}

// unmarshalValue rebuilds a value from a row. A row whose populated column
// disagrees with its kind is reported as an error so load can repair it.
func unmarshalValue(r row) (mib.Value, error) {
	switch r.kind {
	case kindText:
		if !r.text.Valid {
			return nil, fmt.Errorf("object %q: text value is NULL", r.name)
		}
		return mib.Text(r.text.String), nil
	case kindInteger:
		if !r.num.Valid {
			return nil, fmt.Errorf("object %q: integer value is NULL", r.name)
		}
		return mib.Integer(r.num.Int64), nil
	}
	return nil, fmt.Errorf("object %q: unknown kind %q", r.name, r.kind)
}
