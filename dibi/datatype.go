package dibi

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// Database types a DataType can declare. Drivers map them onto their own column types.
const (
	TypeUntyped  = ""
	TypeInt      = "INT"
	TypeReal     = "REAL"
	TypeText     = "TEXT"
	TypeBlob     = "BLOB"
	TypeDateTime = "DATETIME"
)

// Layouts used by Date and DateTime for their textual representation.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05.000000"
)

// DataType converts values between Go and a database column.
// Serialize and Deserialize pass nil through unchanged.
type DataType interface {
	DatabaseType() string
	DatabaseSize() int
	Serialize(value any) (any, error)
	Deserialize(value any) (any, error)
}

// Built-in datatypes.
var (
	Any      DataType = anyType{}
	Text     DataType = textType{size: 512}
	Integer  DataType = integerType{}
	Float    DataType = floatType{}
	Blob     DataType = blobType{}
	Date     DataType = dateType{}
	DateTime DataType = dateTimeType{}
	JSON     DataType = jsonType{}
	UUID     DataType = uuidType{}
)

var dateTimeLayouts = []string{
	DateTimeLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func invalidValue(value any, target string, cause error) error {
	err := fmt.Errorf("%w: cannot convert %T to %s", ErrInvalidValue, value, target)
	if cause != nil {
		return errors.Join(err, cause)
	}

	return err
}

type anyType struct{}

func (anyType) DatabaseType() string               { return TypeUntyped }
func (anyType) DatabaseSize() int                  { return 0 }
func (anyType) Serialize(value any) (any, error)   { return value, nil }
func (anyType) Deserialize(value any) (any, error) { return value, nil }
func (anyType) String() string                     { return "Any" }

type textType struct {
	size int
}

func (t textType) DatabaseType() string { return TypeText }
func (t textType) DatabaseSize() int    { return t.size }
func (t textType) String() string       { return "Text" }

func (t textType) Serialize(value any) (any, error) {
	return toText(value), nil
}

func (t textType) Deserialize(value any) (any, error) {
	return toText(value), nil
}

func toText(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

type integerType struct{}

func (integerType) DatabaseType() string { return TypeInt }
func (integerType) DatabaseSize() int    { return 64 }
func (integerType) String() string       { return "Integer" }

func (integerType) Serialize(value any) (any, error) {
	return toInt64(value)
}

func (integerType) Deserialize(value any) (any, error) {
	return toInt64(value)
}

func toInt64(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uintToInt64(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintToInt64(v)
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, invalidValue(value, "Integer", err)
		}
		return n, nil
	case []byte:
		return toInt64(string(v))
	default:
		return nil, invalidValue(value, "Integer", nil)
	}
}

func uintToInt64(v uint64) (any, error) {
	if v > math.MaxInt64 {
		return nil, invalidValue(v, "Integer", errors.New("value overflows int64"))
	}

	return int64(v), nil
}

func floatToInt64(v float64) (any, error) {
	if v != math.Trunc(v) {
		return nil, invalidValue(v, "Integer", errors.New("value is not a whole number"))
	}

	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return nil, invalidValue(v, "Integer", errors.New("value overflows int64"))
	}

	return int64(v), nil
}

type floatType struct{}

func (floatType) DatabaseType() string { return TypeReal }
func (floatType) DatabaseSize() int    { return 64 }
func (floatType) String() string       { return "Float" }

func (floatType) Serialize(value any) (any, error) {
	return toFloat64(value)
}

func (floatType) Deserialize(value any) (any, error) {
	return toFloat64(value)
}

func toFloat64(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, invalidValue(value, "Float", err)
		}
		return f, nil
	case []byte:
		return toFloat64(string(v))
	default:
		n, err := toInt64(value)
		if err != nil {
			return nil, invalidValue(value, "Float", nil)
		}
		return float64(n.(int64)), nil
	}
}

type blobType struct{}

func (blobType) DatabaseType() string { return TypeBlob }
func (blobType) DatabaseSize() int    { return 0 }
func (blobType) String() string       { return "Blob" }

func (blobType) Serialize(value any) (any, error) {
	return toBytes(value)
}

func (blobType) Deserialize(value any) (any, error) {
	return toBytes(value)
}

func toBytes(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case string:
		return []byte(v), nil
	default:
		return nil, invalidValue(value, "Blob", nil)
	}
}

type dateType struct{}

func (dateType) DatabaseType() string { return TypeText }
func (dateType) DatabaseSize() int    { return len(DateLayout) }
func (dateType) String() string       { return "Date" }

func (dateType) Serialize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.Format(DateLayout), nil
	case string:
		if _, err := time.Parse(DateLayout, v); err != nil {
			return nil, invalidValue(value, "Date", err)
		}
		return v, nil
	default:
		return nil, invalidValue(value, "Date", nil)
	}
}

func (dateType) Deserialize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), nil
	case []byte:
		return dateType{}.Deserialize(string(v))
	case string:
		t, err := time.Parse(DateLayout, v)
		if err != nil {
			return nil, invalidValue(value, "Date", err)
		}
		return t, nil
	default:
		return nil, invalidValue(value, "Date", nil)
	}
}

type dateTimeType struct{}

func (dateTimeType) DatabaseType() string { return TypeDateTime }
func (dateTimeType) DatabaseSize() int    { return 0 }
func (dateTimeType) String() string       { return "DateTime" }

func (d dateTimeType) Serialize(value any) (any, error) {
	return d.Deserialize(value)
}

func (dateTimeType) Deserialize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v, nil
	case []byte:
		return parseDateTime(string(v))
	case string:
		return parseDateTime(v)
	default:
		return nil, invalidValue(value, "DateTime", nil)
	}
}

func parseDateTime(s string) (any, error) {
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return nil, invalidValue(s, "DateTime", lastErr)
}

type jsonType struct{}

func (jsonType) DatabaseType() string { return TypeText }
func (jsonType) DatabaseSize() int    { return 2048 }
func (jsonType) String() string       { return "JSON" }

func (jsonType) Serialize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		if !jsoniter.Valid(v) {
			return nil, invalidValue(value, "JSON", errors.New("invalid json document"))
		}
		return string(v), nil
	default:
		s, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(v)
		if err != nil {
			return nil, invalidValue(value, "JSON", err)
		}
		return s, nil
	}
}

func (jsonType) Deserialize(value any) (any, error) {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return nil, invalidValue(value, "JSON", nil)
	}

	var decoded any
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &decoded); err != nil {
		return nil, invalidValue(value, "JSON", err)
	}

	return decoded, nil
}

type uuidType struct{}

func (uuidType) DatabaseType() string { return TypeText }
func (uuidType) DatabaseSize() int    { return 36 }
func (uuidType) String() string       { return "UUID" }

func (u uuidType) Serialize(value any) (any, error) {
	id, err := u.Deserialize(value)
	if err != nil || id == nil {
		return nil, err
	}

	return id.(uuid.UUID).String(), nil
}

func (uuidType) Deserialize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuidType{}.Deserialize(string(v))
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, invalidValue(value, "UUID", err)
		}
		return id, nil
	default:
		return nil, invalidValue(value, "UUID", nil)
	}
}
