package sync

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeEpochMillis coerces the updatedAt forms found in remote documents
// to epoch milliseconds. Legacy writers stored BSON dates, structured
// {seconds, nanos} timestamps, raw numerics, and numeric strings; comparing
// those unnormalized is a correctness bug, so every timestamp crosses through
// here before any ordering decision.
func NormalizeEpochMillis(v any) (int64, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return int64(t), true
	case primitive.Timestamp:
		return int64(t.T) * 1000, true
	case time.Time:
		return t.UnixMilli(), true
	case bson.M:
		return millisFromStructured(t)
	case map[string]any:
		return millisFromStructured(t)
	default:
		return asInt64(v)
	}
}

// millisFromStructured handles {seconds, nanos|nanoseconds} documents.
func millisFromStructured(doc map[string]any) (int64, bool) {
	secs, ok := asInt64(doc["seconds"])
	if !ok {
		return 0, false
	}
	var nanos int64
	if n, ok := asInt64(doc["nanos"]); ok {
		nanos = n
	} else if n, ok := asInt64(doc["nanoseconds"]); ok {
		nanos = n
	}
	return secs*1000 + nanos/1_000_000, true
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case float32:
		return int64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}
