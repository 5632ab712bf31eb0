package tools

import (
	"fmt"
	"strings"
	"time"
)

// stringArg extracts a required string argument. Models occasionally omit or
// mistype arguments; missing values become spoken errors upstream.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string", key)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("argument %q is empty", key)
	}
	return s, nil
}

func optionalStringArg(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

// timeArg parses an ISO 8601 timestamp argument.
func timeArg(args map[string]any, key string) (time.Time, error) {
	s, err := stringArg(args, key)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("argument %q is not a valid timestamp: %q", key, s)
}
