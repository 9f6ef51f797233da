package logging

import (
	"regexp"
	"strings"
)

const RedactedText = "[REDACTED]"

var (
	// password=xxx, pwd=xxx, pass=xxx
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	jwtPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// api_token is how Pipedrive takes its credential on the query string.
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?token|key)=[^;&\s"]+`)

	// api-key header values echoed in transport errors
	headerKeyPattern = regexp.MustCompile(`(?i)(api-key|authorization):\s*\S+`)

	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeString removes credentials from free text before it is logged or returned.
func SanitizeString(s string) string {
	if s == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(s, "${1}="+RedactedText)
	sanitized = jwtPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = headerKeyPattern.ReplaceAllString(sanitized, "${1}: "+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	return sanitized
}

// SanitizeError sanitizes an error message that might contain sensitive data.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// RedactSecret replaces every literal occurrence of secret in s. Use it when the
// secret value is known, e.g. a configured token echoed back in a URL.
func RedactSecret(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, RedactedText)
}
