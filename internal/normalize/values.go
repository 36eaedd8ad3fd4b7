package normalize

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/npa-sniper/internal/feed"
)

var numberPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

// truthy reports whether a feed value counts as present.
// Zero numbers, empty strings and empty collections are absent.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	case bool:
		return x
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// first returns the first present value among keys.
func first(rec map[string]any, keys ...string) any {
	for _, key := range keys {
		if v := rec[key]; truthy(v) {
			return v
		}
	}
	return nil
}

// text renders a scalar feed value as a trimmed string.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// firstText returns the first non-empty string among keys.
func firstText(rec map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := text(rec[key]); s != "" {
			return s
		}
	}
	return ""
}

// number coerces a value to float64, or reports false when it is not numeric.
func number(v any) (float64, bool) {
	return feed.ToFloat(v)
}

// numberOrZero coerces a value to float64, degrading to zero.
func numberOrZero(v any) float64 {
	f, ok := number(v)
	if !ok {
		return 0
	}
	return f
}

// extractNumber returns the first numeric token embedded in a value.
func extractNumber(v any) *float64 {
	if !truthy(v) {
		return nil
	}
	match := numberPattern.FindString(text(v))
	if match == "" {
		return nil
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &f
}

// firstNonZero returns the first pointer holding a non-zero value.
func firstNonZero(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && *v != 0 {
			return v
		}
	}
	return nil
}

// asMap returns v as an object, or an empty one.
func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	if r, ok := v.(feed.Record); ok {
		return r
	}
	return map[string]any{}
}

// gatherImages collects image URLs from lists of {url} objects, bare strings or a single object.
func gatherImages(sources ...any) []string {
	var images []string
	for _, source := range sources {
		switch s := source.(type) {
		case []any:
			for _, item := range s {
				switch it := item.(type) {
				case map[string]any:
					if u := text(it["url"]); u != "" {
						images = append(images, u)
					}
				case string:
					images = append(images, it)
				}
			}
		case map[string]any:
			if u := text(s["url"]); u != "" {
				images = append(images, u)
			}
		case string:
			images = append(images, s)
		}
	}
	return images
}

// dedupeImages drops empty and repeated URLs, keeping first occurrences in order.
func dedupeImages(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// combineContact renders "name (phone, phone)", either half alone, or "".
func combineContact(name string, phones ...string) string {
	var present []string
	for _, p := range phones {
		if p != "" {
			present = append(present, p)
		}
	}
	phoneText := strings.Join(present, ", ")
	switch {
	case name != "" && phoneText != "":
		return fmt.Sprintf("%s (%s)", name, phoneText)
	case name != "":
		return name
	default:
		return phoneText
	}
}

// joinNonEmpty joins the non-empty parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// Synthetic coordinates fall inside this box around Bangkok.
const (
	syntheticLatBase = 13.7
	syntheticLonBase = 100.5
	syntheticSpan    = 0.1
)

// syntheticCoords returns a stable point in the Bangkok box derived from key.
func syntheticCoords(key string) (float64, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	lat := syntheticLatBase + rng.Float64()*syntheticSpan
	lon := syntheticLonBase + rng.Float64()*syntheticSpan
	return lat, lon
}
