package logger

import (
	"log/slog"
	"strings"
	"sync"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"api-key",
	"credential",
	"authorization",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// minSecretLength keeps trivially short values out of the secret set;
// masking them would mangle unrelated output.
const minSecretLength = 4

var (
	secretsMu sync.RWMutex
	secrets   []string
)

// RegisterSecret masks value wherever it appears inside logged strings.
func RegisterSecret(value string) {
	if len(value) < minSecretLength {
		return
	}
	secretsMu.Lock()
	defer secretsMu.Unlock()
	for _, s := range secrets {
		if s == value {
			return
		}
	}
	secrets = append(secrets, value)
}

// resetSecrets clears the registered secrets.
func resetSecrets() {
	secretsMu.Lock()
	secrets = nil
	secretsMu.Unlock()
}

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if masked := RedactString(strVal); masked != strVal {
			return slog.String(a.Key, masked)
		}
	case slog.KindAny:
		// Errors and Stringers may embed a secret, e.g. a URL with a key.
		if err, ok := a.Value.Any().(error); ok && err != nil {
			msg := err.Error()
			if masked := RedactString(msg); masked != msg {
				return slog.String(a.Key, masked)
			}
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// RedactString masks every registered secret inside value.
func RedactString(value string) string {
	secretsMu.RLock()
	defer secretsMu.RUnlock()
	for _, s := range secrets {
		if strings.Contains(value, s) {
			value = strings.ReplaceAll(value, s, maskValue(s))
		}
	}
	return value
}

// maskValue keeps the first and last two characters of a secret.
func maskValue(value string) string {
	if len(value) <= 6 {
		return "***"
	}
	return value[:2] + "***" + value[len(value)-2:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
