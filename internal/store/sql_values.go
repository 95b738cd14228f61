package store

import (
	"encoding/json"
	"strconv"
	"time"
)

// Flag columns are integers: 0 is false, anything else is true.

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case int32:
		return t != 0
	case int:
		return t != 0
	case []byte:
		return asBool(string(t))
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			b, _ := strconv.ParseBool(t)
			return b
		}
		return n != 0
	default:
		return false
	}
}

// nullString stores empty strings as NULL so that unique indexes ignore them.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		return asTime(string(t))
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// encodeIDs serializes an id list as JSON text. A nil list is stored as NULL.
func encodeIDs(ids []int64) any {
	if ids == nil {
		return nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return nil
	}
	return string(b)
}

// decodeIDs accepts JSON text, raw bytes or an already decoded list.
// Malformed input yields nil.
func decodeIDs(v any) []int64 {
	switch t := v.(type) {
	case nil:
		return nil
	case []int64:
		return t
	case []any:
		ids := make([]int64, 0, len(t))
		for _, item := range t {
			switch n := item.(type) {
			case float64:
				ids = append(ids, int64(n))
			case int64:
				ids = append(ids, n)
			case int:
				ids = append(ids, int64(n))
			case string:
				if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
					ids = append(ids, parsed)
				}
			}
		}
		return ids
	case []byte:
		return decodeIDs(string(t))
	case string:
		if t == "" {
			return nil
		}
		var raw []any
		if err := json.Unmarshal([]byte(t), &raw); err != nil {
			return nil
		}
		return decodeIDs(raw)
	default:
		return nil
	}
}
