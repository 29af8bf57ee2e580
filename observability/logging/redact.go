package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces credential material in log output.
const RedactedValue = "[REDACTED]"

// credentialKeys are attribute keys whose values never reach a log sink.
// Matching ignores case.
var credentialKeys = map[string]struct{}{
	"authorization": {},
	"authtoken":     {},
	"bearer":        {},
	"signature":     {},
	"privatekey":    {},
	"superadminkey": {},
}

// IsCredentialKey reports whether values logged under key are redacted.
func IsCredentialKey(key string) bool {
	_, ok := credentialKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskCredential hides a credential while keeping an HTTP auth scheme
// prefix, so "Bearer abc" becomes "Bearer [REDACTED]".
func MaskCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if scheme, rest, ok := strings.Cut(trimmed, " "); ok && strings.TrimSpace(rest) != "" {
		return scheme + " " + RedactedValue
	}
	return RedactedValue
}

// MaskField builds an attribute for key, masking the value when key names a
// credential.
func MaskField(key, value string) slog.Attr {
	if IsCredentialKey(key) {
		return slog.String(key, MaskCredential(value))
	}
	return slog.String(key, value)
}

// redactAttr is applied by the JSON handler to every attribute, so callers
// that log a credential under a known key without MaskField are covered too.
func redactAttr(attr slog.Attr) slog.Attr {
	if !IsCredentialKey(attr.Key) || attr.Value.Kind() != slog.KindString {
		return attr
	}
	masked := MaskCredential(attr.Value.String())
	if masked == attr.Value.String() {
		return attr
	}
	return slog.String(attr.Key, masked)
}
