package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

// DefaultRedactedKeys are the attribute keys whose values are policy
// payloads or secrets derived from them.
var DefaultRedactedKeys = []string{"payload", "data", "secret", "token", "password"}

// Redactor replaces sensitive attribute values with a size summary.
type Redactor struct {
	keys []string
}

// NewRedactor creates a Redactor for DefaultRedactedKeys plus extra.
func NewRedactor(extra ...string) *Redactor {
	keys := make([]string, 0, len(DefaultRedactedKeys)+len(extra))
	keys = append(keys, DefaultRedactedKeys...)
	for _, k := range extra {
		keys = append(keys, strings.ToLower(k))
	}
	return &Redactor{keys: keys}
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr function.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup || !r.isSensitiveKey(a.Key) {
		return a
	}
	return slog.String(a.Key, redactValue(a.Value))
}

// isSensitiveKey reports whether key names sensitive data. Matching is
// case-insensitive on whole key segments, so "seed_payload" matches and
// "payload_size" does not.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range r.keys {
		if lowerKey == sensitive || strings.HasSuffix(lowerKey, "_"+sensitive) || strings.HasSuffix(lowerKey, "."+sensitive) {
			return true
		}
	}
	return false
}

// redactValue summarizes v without revealing it.
func redactValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return RedactPayload([]byte(v.String()))
	case slog.KindAny:
		if b, ok := v.Any().([]byte); ok {
			return RedactPayload(b)
		}
	}
	return "[redacted]"
}

// RedactPayload describes a payload by its size only.
func RedactPayload(b []byte) string {
	if len(b) == 0 {
		return "[redacted empty]"
	}
	return fmt.Sprintf("[redacted %d bytes]", len(b))
}
