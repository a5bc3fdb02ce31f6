package oauth

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// RawProfile is the provider's user payload as decoded from JSON.
type RawProfile map[string]any

// Profile is the canonical, provider-agnostic user shape.
// It always carries "uid". Optional keys are name, email, nickname, image,
// first_name, last_name, verified (email verified by the provider) and urls,
// a map of labelled links such as "profile" and "website". Strategies may
// add provider-specific keys (locale, google_hd, basecamp_accounts).
type Profile map[string]any

// UID returns the stringified external identifier.
func (p Profile) UID() string {
	return stringify(p["uid"])
}

// String returns the value under key as a string, or "" when absent.
func (p Profile) String(key string) string {
	v, ok := p[key].(string)
	if !ok {
		return ""
	}
	return v
}

// Bool returns the value under key as a bool.
func (p Profile) Bool(key string) bool {
	v, _ := p[key].(bool)
	return v
}

// String returns the value under key as a string, or "" when absent or not a string.
func (r RawProfile) String(key string) string {
	v, _ := r[key].(string)
	return v
}

// Map returns a nested object under key.
func (r RawProfile) Map(key string) RawProfile {
	switch v := r[key].(type) {
	case map[string]any:
		return RawProfile(v)
	case RawProfile:
		return v
	}
	return nil
}

// stringify converts JSON identifiers to strings. Provider bodies decode
// numbers as json.Number, which keeps 64-bit ids exact.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < math.MaxInt64 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}

// links returns the non-nil entries of urls, or nil when none remain.
func links(urls map[string]any) any {
	out := make(map[string]any, len(urls))
	for k, v := range urls {
		if v != nil {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
