package trace

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/txvar/internal/value"
)

// encodeValue serializes a value for the trace columns.
// An absent value encodes as an empty type name; a typed null encodes as a
// type name with a NULL payload column.
func encodeValue(v value.Value) (typ string, data sql.NullString, err error) {
	if v == nil {
		return "", sql.NullString{}, nil
	}
	typ = v.Type().String()
	if v.IsNull() {
		return typ, sql.NullString{}, nil
	}

	var raw []byte
	switch val := v.(type) {
	case value.Bool:
		raw, err = json.Marshal(bool(val))
	case value.Int:
		raw, err = json.Marshal(int64(val))
	case value.Float:
		raw, err = json.Marshal(float64(val))
	case value.Text:
		raw, err = json.Marshal(string(val))
	case value.Bytes:
		raw, err = json.Marshal([]byte(val)) // base64 per encoding/json
	case value.Timestamp:
		raw, err = json.Marshal(time.Time(val).UTC().Format(time.RFC3339Nano))
	default:
		return "", sql.NullString{}, fmt.Errorf("unsupported value type %T", v)
	}
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("encode %s value: %w", typ, err)
	}
	return typ, sql.NullString{String: string(raw), Valid: true}, nil
}

// decodeValue reverses encodeValue.
func decodeValue(typ string, data sql.NullString) (value.Value, error) {
	if typ == "" {
		return nil, nil
	}
	tid, err := value.ParseTypeID(typ)
	if err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	if !data.Valid {
		return value.NewNull(tid), nil
	}

	raw := []byte(data.String)
	switch tid {
	case value.TypeBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode bool: %w", err)
		}
		return value.Bool(b), nil
	case value.TypeInt:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("decode int: %w", err)
		}
		return value.Int(n), nil
	case value.TypeFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode float: %w", err)
		}
		return value.Float(f), nil
	case value.TypeText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode text: %w", err)
		}
		return value.Text(s), nil
	case value.TypeBytes:
		var b []byte
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode bytes: %w", err)
		}
		return value.Bytes(b), nil
	case value.TypeTimestamp:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode timestamp: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("decode timestamp: %w", err)
		}
		return value.Timestamp(ts), nil
	default:
		return nil, fmt.Errorf("decode value: unhandled type %s", typ)
	}
}
