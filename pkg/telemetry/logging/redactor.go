package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/scribe/pkg/config"
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "[REDACTED]"

// sensitiveKeys are attribute keys whose values are never logged. Matching is
// case-insensitive on the key's last dotted segment.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"x-api-key":     true,
	"key":           true,
	"password":      true,
	"secret":        true,
	"token":         true,
}

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// defaultPatterns mask credentials that leak into free text such as error
// messages and URLs.
var defaultPatterns = []redactPattern{
	{"bearer_token", regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer ***"},
	{"secret_key", regexp.MustCompile(`\bsk-[A-Za-z0-9\-_]{3,}`), "sk-***"},
	{"google_key", regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{10,}`), "AIza***"},
	{"query_key", regexp.MustCompile(`([?&](?:key|api_key)=)[^&\s"]+`), "${1}***"},
}

// NewRedactor creates a redactor with the default patterns plus custom.
// Invalid custom patterns are skipped.
func NewRedactor(custom []config.RedactPattern) *Redactor {
	r := &Redactor{patterns: append([]redactPattern(nil), defaultPatterns...)}
	for _, p := range custom {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		replacement := p.Replacement
		if replacement == "" {
			replacement = "***"
		}
		r.patterns = append(r.patterns, redactPattern{name: p.Name, regex: re, replacement: replacement})
	}
	return r
}

// IsSensitiveKey reports whether values logged under key are masked.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if i := strings.LastIndexByte(k, '.'); i >= 0 {
		k = k[i+1:]
	}
	return sensitiveKeys[k]
}

// RedactString masks credential patterns inside s.
func (r *Redactor) RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if IsSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, Redacted)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if v := a.Value.String(); v != "" {
			if red := r.RedactString(v); red != v {
				return slog.String(a.Key, red)
			}
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && err != nil {
			msg := err.Error()
			if red := r.RedactString(msg); red != msg {
				return slog.String(a.Key, red)
			}
		}
	}
	return a
}
