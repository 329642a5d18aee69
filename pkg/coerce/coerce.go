// Package coerce provides strict type coercion helpers used wherever
// loosely-typed values (YAML documents, environment variables, CLI
// key=value pairs) are bound to typed consumers. Unreasonable inputs
// return an error rather than a best-effort guess.
package coerce

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ToBool coerces a value to bool.
//
// Accepted inputs: bool, the integers 0 and 1, and the strings
// "true"/"false", "1"/"0", "yes"/"no", "on"/"off" (case-insensitive).
func ToBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
		return false, fmt.Errorf("integer %d is not a valid boolean value (expected 0 or 1)", v)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
	}
	return false, fmt.Errorf("cannot interpret %#v as a boolean", value)
}

// ToInt coerces a value to int. Floats are accepted only when integral.
func ToInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
		return 0, fmt.Errorf("cannot interpret %v as an integer", v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("cannot interpret %q as an integer", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("cannot interpret %#v as an integer", value)
}

// ToFloat coerces a value to float64.
func ToFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot interpret %q as a float", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("cannot interpret %#v as a float", value)
}

// ToString coerces a value to string. Nil is rejected.
func ToString(value any) (string, error) {
	if value == nil {
		return "", fmt.Errorf("cannot interpret nil as a string")
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", value), nil
}

// ToDuration coerces a value to time.Duration. Strings use
// time.ParseDuration syntax; bare numbers are taken as seconds.
func ToDuration(value any) (time.Duration, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("cannot interpret %q as a duration", v)
		}
		return d, nil
	}
	return 0, fmt.Errorf("cannot interpret %#v as a duration", value)
}

// ToPath coerces a value to a cleaned filesystem path.
func ToPath(value any) (string, error) {
	s, err := ToString(value)
	if err != nil {
		return "", fmt.Errorf("cannot interpret %#v as a path", value)
	}
	return filepath.Clean(s), nil
}

// ToBoolString is ToBool restricted to string input, for use where a
// func(string) coercer is required.
func ToBoolString(raw string) (bool, error) { return ToBool(raw) }

// ToIntString is ToInt restricted to string input.
func ToIntString(raw string) (int, error) { return ToInt(raw) }

// ToFloatString is ToFloat restricted to string input.
func ToFloatString(raw string) (float64, error) { return ToFloat(raw) }

// ToDurationString is ToDuration restricted to string input.
func ToDurationString(raw string) (time.Duration, error) { return ToDuration(raw) }
