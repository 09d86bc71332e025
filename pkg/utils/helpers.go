package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ParseDuration parses a duration string like "90s", returning fallback when
// d is empty or malformed.
func ParseDuration(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return fallback
	}
	return duration
}

var unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// CleanTopicName strips characters that are not allowed in file names.
func CleanTopicName(topic string) string {
	return strings.TrimSpace(unsafeFileChars.ReplaceAllString(topic, ""))
}

// FormatValue renders a record value as a single table cell.
// Scalars print as-is, nested values as compact JSON.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
