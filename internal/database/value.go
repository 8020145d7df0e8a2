package database

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBool
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	default:
		return "null"
	}
}

// TimeLayout is how temporal values are rendered.
const TimeLayout = "2006-01-02 15:04:05.999999"

// Value is a single scalar cell of a result row.
// The zero Value is NULL.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	raw  []byte
}

func Null() Value                { return Value{} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Integer(i int64) Value      { return Value{kind: KindInteger, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Bytes(raw []byte) Value     { return Value{kind: KindBytes, raw: append([]byte(nil), raw...)} }
func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) RawBytes() []byte { return v.raw }

// Int returns the value as an integer when it holds one, or a string or
// float that represents a whole number.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case KindInteger:
		return v.i, true
	case KindFloat:
		return int64(v.f), v.f == float64(int64(v.f))
	case KindString:
		n, err := strconv.ParseInt(v.s, 10, 64)
		return n, err == nil
	case KindBytes:
		n, err := strconv.ParseInt(string(v.raw), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// String renders the value as text. NULL renders as "NULL".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindBytes:
		return string(v.raw)
	default:
		return "NULL"
	}
}

// Interface returns the Go-native form: nil, string, int64, float64, bool or []byte.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindBytes:
		return v.raw
	default:
		return nil
	}
}

// MarshalJSON encodes bytes as base64 strings, everything else natively.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBytes:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.raw))
	default:
		return json.Marshal(v.Interface())
	}
}

// FromDriver converts a value scanned into *any by database/sql.
// dbType is the column's DatabaseTypeName; MySQL's text protocol returns
// every column as []byte, so the type name decides how bytes are read.
func FromDriver(src any, dbType string) Value {
	switch x := src.(type) {
	case nil:
		return Null()
	case int64:
		return Integer(x)
	case int32:
		return Integer(int64(x))
	case int:
		return Integer(int64(x))
	case uint64:
		if x > 1<<63-1 {
			return String(strconv.FormatUint(x, 10))
		}
		return Integer(int64(x))
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case time.Time:
		return String(x.Format(TimeLayout))
	case []byte:
		return fromBytes(x, dbType)
	default:
		return String(fmt.Sprint(x))
	}
}

func fromBytes(raw []byte, dbType string) Value {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	t = strings.TrimPrefix(t, "UNSIGNED ")

	switch t {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR":
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return Integer(n)
		}
		return String(string(raw))
	case "FLOAT", "DOUBLE", "REAL":
		if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return Float(f)
		}
		return String(string(raw))
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BIT", "GEOMETRY":
		return Bytes(raw)
	default:
		return String(string(raw))
	}
}
