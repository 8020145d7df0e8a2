package database

import (
	"bytes"
	"database/sql"
	"encoding/json"
)

// Row is one result row: each column name maps to a Value, and the
// column order of the result set is kept alongside.
type Row struct {
	columns []string
	values  map[string]Value
}

// NewRow builds a Row from parallel column and value slices.
// When a column name repeats, the last value wins but the name is listed once.
func NewRow(columns []string, values []Value) Row {
	r := Row{
		columns: make([]string, 0, len(columns)),
		values:  make(map[string]Value, len(columns)),
	}
	for i, col := range columns {
		if _, dup := r.values[col]; !dup {
			r.columns = append(r.columns, col)
		}
		if i < len(values) {
			r.values[col] = values[i]
		} else {
			r.values[col] = Null()
		}
	}
	return r
}

// Columns returns the column names in result order.
func (r Row) Columns() []string { return r.columns }

// Get returns the value of a column and whether the column exists.
func (r Row) Get(column string) (Value, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Values returns the values in column order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.columns))
	for i, col := range r.columns {
		out[i] = r.values[col]
	}
	return out
}

// Map returns the row as a plain map of Go-native values.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for col, v := range r.values {
		out[col] = v.Interface()
	}
	return out
}

// MarshalJSON encodes the row as an object whose keys follow column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := r.values[col].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ScanRows reads every row of the result set into Rows.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes rows; callers do not need to call Close().
func ScanRows(rows *sql.Rows) (*ResultSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types := make([]string, len(columns))
	if colTypes, err := rows.ColumnTypes(); err == nil {
		for i, ct := range colTypes {
			if i < len(types) {
				types[i] = ct.DatabaseTypeName()
			}
		}
	}

	result := &ResultSet{Columns: columns, Rows: make([]Row, 0)}

	for rows.Next() {
		// Allocate scan targets as *any so the driver can write any type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, err
		}

		values := make([]Value, len(columns))
		for i := range dest {
			values[i] = FromDriver(dest[i], types[i])
		}
		result.Rows = append(result.Rows, NewRow(columns, values))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
