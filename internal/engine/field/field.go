// Package field provides get-or-default accessors over raw provider JSON.
// Every accessor returns nil for missing keys, JSON null and empty strings,
// so normalizers never assume a key is present.
package field

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Present reports whether path holds a non-null value
func Present(r gjson.Result, path string) bool {
	v := get(r, path)
	return v.Exists() && v.Type != gjson.Null
}

// Str returns the value at path as a string pointer
func Str(r gjson.Result, path string) *string {
	v := get(r, path)
	if !v.Exists() || v.Type == gjson.Null || v.IsObject() || v.IsArray() {
		return nil
	}
	s := strings.TrimSpace(v.String())
	if s == "" {
		return nil
	}
	return &s
}

// StrOr returns the string at path or def
func StrOr(r gjson.Result, path, def string) string {
	if s := Str(r, path); s != nil {
		return *s
	}
	return def
}

// Int returns the value at path as an int pointer. Floats are rounded and
// numeric strings ("1,950") are parsed.
func Int(r gjson.Result, path string) *int {
	f := Float(r, path)
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}

// Float returns the value at path as a float pointer
func Float(r gjson.Result, path string) *float64 {
	v := get(r, path)
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		return &f
	case gjson.String:
		return ParseNumber(v.String())
	}
	return nil
}

// Bool returns true only when path holds JSON true
func Bool(r gjson.Result, path string) bool {
	return get(r, path).Type == gjson.True
}

// BoolPtr returns nil unless path holds a JSON boolean
func BoolPtr(r gjson.Result, path string) *bool {
	v := get(r, path)
	switch v.Type {
	case gjson.True, gjson.False:
		b := v.Bool()
		return &b
	}
	return nil
}

// Array returns the elements at path, or nil when it is not an array
func Array(r gjson.Result, path string) []gjson.Result {
	v := get(r, path)
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}

// Strings collects the non-empty strings at path
func Strings(r gjson.Result, path string) []string {
	var out []string
	for _, item := range Array(r, path) {
		if s := strings.TrimSpace(item.String()); s != "" && item.Type == gjson.String {
			out = append(out, s)
		}
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Date returns the value at path as a time. Strings are parsed as ISO
// dates or timestamps, numbers as epoch milliseconds.
func Date(r gjson.Result, path string) *time.Time {
	v := get(r, path)
	switch v.Type {
	case gjson.Number:
		ms := v.Int()
		if ms <= 0 {
			return nil
		}
		t := time.UnixMilli(ms).UTC()
		return &t
	case gjson.String:
		return ParseDate(v.String())
	}
	return nil
}

// ParseDate parses an ISO date or timestamp, returning nil on failure
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse(time.DateOnly, s[:10]); err == nil {
			return &t
		}
	}
	return nil
}

// ParseNumber extracts a number from display strings like "$1,950+/mo"
func ParseNumber(s string) *float64 {
	var b strings.Builder
	seenDigit := false
scan:
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			b.WriteRune(c)
			seenDigit = true
		case c == '.' || (c == '-' && !seenDigit && b.Len() == 0):
			b.WriteRune(c)
		case c == ',' || c == '$' || c == ' ':
			if seenDigit && c == ' ' {
				break scan
			}
		default:
			if seenDigit {
				break scan
			}
		}
	}
	if !seenDigit {
		return nil
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return &f
}

func get(r gjson.Result, path string) gjson.Result {
	if path == "" {
		return r
	}
	return r.Get(path)
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
