package headers

import (
	"net/http"
	"strings"
)

// ParseHeaders converts "Key: Value" strings into a map keyed by the
// canonical header name. Malformed entries and empty keys are skipped.
func ParseHeaders(h []string) map[string]string {
	m := make(map[string]string)
	for _, hdr := range h {
		parts := strings.SplitN(hdr, ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		m[http.CanonicalHeaderKey(name)] = strings.TrimSpace(parts[1])
	}
	return m
}

// Merge layers the given maps left to right; later values win
func Merge(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			out[http.CanonicalHeaderKey(k)] = v
		}
	}
	return out
}

// Apply sets every header in m on h
func Apply(h http.Header, m map[string]string) {
	for k, v := range m {
		h.Set(k, v)
	}
}
