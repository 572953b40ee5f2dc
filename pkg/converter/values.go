// pkg/converter/values.go
package converter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/event-lakehouse/pkg/model"
)

// EncodeValue converts a Go value into the form the driver stores for colType
func (c *TypeConverter) EncodeValue(value interface{}, colType model.ColumnType) (interface{}, error) {
	// Handle NULL values
	if value == nil {
		return nil, nil
	}

	switch colType {
	case model.TypeDate, model.TypeTimestamp:
		t, err := ToTime(value)
		if err != nil {
			return nil, err
		}
		t = t.UTC()
		if colType == model.TypeDate {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		if !c.storesTemporalAsText() {
			return t, nil
		}
		if colType == model.TypeDate {
			return t.Format(DateLayout), nil
		}
		return t.Format(TimestampLayout), nil

	case model.TypeBoolean:
		b, err := ToBool(value)
		if err != nil {
			return nil, err
		}
		if c.storesTemporalAsText() {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return b, nil

	case model.TypeDouble:
		f, err := ToFloat(value)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite value %v cannot be stored", f)
		}
		return f, nil

	case model.TypeBigInt:
		return ToInt(value)

	default:
		s := ToNullableString(value)
		if s == nil {
			return nil, nil
		}
		return *s, nil
	}
}

// ToNullableString converts a driver value to text, preserving NULL as nil
func ToNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}

	var s string
	switch val := v.(type) {
	case string:
		s = val
	case []byte:
		s = string(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		s = val.UTC().Format(time.RFC3339Nano)
	case bool:
		s = strconv.FormatBool(val)
	case map[string]interface{}, []interface{}:
		// Semi-structured values (e.g. Snowflake VARIANT) are kept as JSON text
		data, err := json.Marshal(val)
		if err != nil {
			s = fmt.Sprintf("%v", val)
		} else {
			s = string(data)
		}
	default:
		// Use Sprint as a fallback
		s = fmt.Sprintf("%v", val)
	}
	return &s
}

// ToString converts a driver value to text, mapping NULL to ""
func ToString(v interface{}) string {
	if s := ToNullableString(v); s != nil {
		return *s
	}
	return ""
}

// ToInt attempts to convert a value to int64
func ToInt(v interface{}) (int64, error) {
	if v == nil {
		return 0, errors.New("nil value")
	}

	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case int64:
		return val, nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return 0, errors.New("uint64 value overflow for int64")
		}
		return int64(val), nil
	case float32:
		return int64(val), nil
	case float64:
		return int64(val), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string, []byte:
		cleaned := strings.TrimSpace(ToString(val))
		if cleaned == "" {
			return 0, errors.New("empty string")
		}
		return strconv.ParseInt(cleaned, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

// ToFloat attempts to convert a value to float64
func ToFloat(v interface{}) (float64, error) {
	if v == nil {
		return 0, errors.New("nil value")
	}

	switch val := v.(type) {
	case float32:
		return float64(val), nil
	case float64:
		return val, nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		i, err := ToInt(val)
		return float64(i), err
	case string, []byte:
		cleaned := strings.TrimSpace(ToString(val))
		if cleaned == "" {
			return 0, errors.New("empty string")
		}
		return strconv.ParseFloat(cleaned, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

// ToBool attempts to convert a value to bool
func ToBool(v interface{}) (bool, error) {
	if v == nil {
		return false, errors.New("nil value")
	}

	switch val := v.(type) {
	case bool:
		return val, nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		// Convert numeric values (0 = false, non-0 = true)
		i, _ := ToInt(val)
		return i != 0, nil
	case string, []byte:
		cleaned := strings.TrimSpace(strings.ToLower(ToString(val)))
		switch cleaned {
		case "true", "t", "yes", "y", "1":
			return true, nil
		case "false", "f", "no", "n", "0":
			return false, nil
		default:
			return false, fmt.Errorf("cannot parse '%s' as boolean", cleaned)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to bool", v)
	}
}

// storedTimeFormats are the layouts a stored DATE/TIMESTAMP may come back in
var storedTimeFormats = []string{
	time.RFC3339Nano,
	TimestampLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	DateLayout,
}

// ToTime attempts to convert a stored value to time.Time in UTC
func ToTime(v interface{}) (time.Time, error) {
	if v == nil {
		return time.Time{}, errors.New("nil value")
	}

	switch val := v.(type) {
	case time.Time:
		return val.UTC(), nil
	case string, []byte:
		cleaned := strings.TrimSpace(ToString(val))
		if cleaned == "" {
			return time.Time{}, errors.New("empty string")
		}

		for _, format := range storedTimeFormats {
			if t, err := time.Parse(format, cleaned); err == nil {
				return t.UTC(), nil
			}
		}

		return time.Time{}, fmt.Errorf("cannot parse time from '%s'", cleaned)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
	}
}
