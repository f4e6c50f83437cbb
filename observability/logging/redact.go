package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// RedactedValue replaces sensitive values in log output.
const RedactedValue = "[REDACTED]"

// sensitiveKeys are masked by every logger built here, whatever the caller
// passes. Tip annotations are free text written by tippers.
var sensitiveKeys = map[string]struct{}{
	"annotation":    {},
	"authorization": {},
	"email":         {},
	"passphrase":    {},
	"password":      {},
	"secret":        {},
	"session_token": {},
	"token":         {},
}

// IsSensitive reports whether values logged under key are masked.
func IsSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// redactAttr is applied by the handler to every attribute.
func redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindString || !IsSensitive(attr.Key) {
		return attr
	}
	value := attr.Value.String()
	if value == "" || value == RedactedValue || strings.HasPrefix(value, fingerprintPrefix) {
		return attr
	}
	if strings.EqualFold(attr.Key, "email") {
		return slog.String(attr.Key, RedactEmail(value))
	}
	if strings.HasPrefix(value, RedactedValue) {
		return attr
	}
	return slog.String(attr.Key, RedactedValue)
}

// MaskValue returns the placeholder for non-empty values.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField masks value under any key, sensitive or not.
func MaskField(key, value string) slog.Attr {
	return slog.String(key, MaskValue(value))
}

const fingerprintPrefix = "sha256:"

// Fingerprint logs a short stable digest in place of value so related lines
// can be correlated without exposing the content.
func Fingerprint(key, value string) slog.Attr {
	if value == "" {
		return slog.String(key, "")
	}
	sum := sha256.Sum256([]byte(value))
	return slog.String(key, fingerprintPrefix+hex.EncodeToString(sum[:6]))
}

// RedactEmail keeps the domain of an address and masks the local part.
func RedactEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return MaskValue(email)
	}
	return RedactedValue + email[at:]
}
