package statement

import (
	"fmt"
	"math"
	"time"
)

// ParamType is the declared SQL type of a bound parameter.
type ParamType int

// Supported parameter types.
const (
	Text ParamType = iota + 1
	Integer
	Real
	Blob
	Boolean
	DateTime
)

// String returns the SQLite type name.
func (t ParamType) String() string {
	switch t {
	case Text:
		return "TEXT"
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	case Blob:
		return "BLOB"
	case Boolean:
		return "BOOLEAN"
	case DateTime:
		return "DATETIME"
	default:
		return fmt.Sprintf("ParamType(%d)", int(t))
	}
}

// Param is one named binding. Name may carry a leading @, : or $.
type Param struct {
	Name  string
	Type  ParamType
	Value any
}

// P builds a Param.
func P(name string, typ ParamType, value any) Param {
	return Param{Name: name, Type: typ, Value: value}
}

// TextParam binds a TEXT value.
func TextParam(name, value string) Param { return P(name, Text, value) }

// IntegerParam binds an INTEGER value.
func IntegerParam(name string, value int64) Param { return P(name, Integer, value) }

// RealParam binds a REAL value.
func RealParam(name string, value float64) Param { return P(name, Real, value) }

// BlobParam binds a BLOB value.
func BlobParam(name string, value []byte) Param { return P(name, Blob, value) }

// NullParam binds SQL NULL with the given declared type.
func NullParam(name string, typ ParamType) Param { return P(name, typ, nil) }

// coerce converts v to the canonical Go representation for t. nil always
// passes through as SQL NULL.
func (t ParamType) coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case Text:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}
	case Integer:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case Real:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		}
		if n, ok := toInt64(v); ok {
			return float64(n), nil
		}
	case Blob:
		switch x := v.(type) {
		case []byte:
			out := make([]byte, len(x))
			copy(out, x)
			return out, nil
		case string:
			return []byte(x), nil
		}
	case Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case DateTime:
		if ts, ok := v.(time.Time); ok {
			return ts, nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown type %s", ErrParamType, t)
	}

	return nil, fmt.Errorf("%w: %T is not a valid %s value", ErrParamType, v, t)
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}
