package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces sensitive values before they reach a log sink.
const RedactedValue = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"authorization": {},
	"token":         {},
	"jwt":           {},
	"secret":        {},
	"jwt_secret":    {},
	"passphrase":    {},
	"private_key":   {},
}

// IsSensitive reports whether values logged under key are always redacted.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskField logs value under key with everything past the first word
// redacted, so "Bearer eyJ..." becomes "Bearer [REDACTED]". Empty values pass
// through unchanged.
func MaskField(key, value string) slog.Attr {
	value = strings.TrimSpace(value)
	if value == "" {
		return slog.String(key, value)
	}
	if scheme, _, found := strings.Cut(value, " "); found {
		return slog.String(key, scheme+" "+RedactedValue)
	}
	return slog.String(key, RedactedValue)
}

// redactAttr masks string attributes under sensitive keys unless MaskField
// already did so.
func redactAttr(attr slog.Attr) slog.Attr {
	if !IsSensitive(attr.Key) || attr.Value.Kind() != slog.KindString {
		return attr
	}
	value := attr.Value.String()
	if value == "" || strings.HasSuffix(value, RedactedValue) {
		return attr
	}
	return slog.String(attr.Key, RedactedValue)
}
