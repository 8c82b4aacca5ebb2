package gateway

import (
	"regexp"
	"strings"
)

var (
	upperPattern     = regexp.MustCompile(`([A-Z])`)
	snakePartPattern = regexp.MustCompile(`_([a-z0-9])`)
)

// ToSnakeKey converts one camelCase key to snake_case.
func ToSnakeKey(key string) string {
	return strings.ToLower(upperPattern.ReplaceAllString(key, "_$1"))
}

// ToCamelKey converts one snake_case key to camelCase.
func ToCamelKey(key string) string {
	return snakePartPattern.ReplaceAllStringFunc(key, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

// ToSnake recursively rewrites every object key in a decoded JSON value
// to snake_case. Values are untouched.
func ToSnake(v any) any {
	return convertKeys(v, ToSnakeKey)
}

// ToCamel recursively rewrites every object key in a decoded JSON value
// to camelCase. Values are untouched.
func ToCamel(v any) any {
	return convertKeys(v, ToCamelKey)
}

func convertKeys(v any, keyFn func(string) string) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[keyFn(k)] = convertKeys(val, keyFn)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = convertKeys(val, keyFn)
		}
		return out
	default:
		return v
	}
}
