package testutil

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveKey matches query, form, header and JSON keys whose values are
// redacted.
var sensitiveKey = regexp.MustCompile(`(?i)password|passwd|secret|token|session|sess_|auth|jwt|bearer|api_?key|credential|access_key|private_key`)

// SensitiveHeaders are headers that should be redacted.
var SensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-auth-token":        true,
	"x-api-key":           true,
	"x-access-token":      true,
	"x-session-id":        true,
	"x-csrf-token":        true,
	"x-xsrf-token":        true,
	"proxy-authorization": true,
}

var (
	jsonStringField = regexp.MustCompile(`"([^"]+)"\s*:\s*"[^"]*"`)
	jsonScalarField = regexp.MustCompile(`"([^"]+)"\s*:\s*(-?\d[\d.eE+-]*|true|false|null)`)
)

// FixturePattern rewrites captured HTML before it is committed.
type FixturePattern struct {
	Pattern     *regexp.Regexp
	Replacement string
	Description string
}

// FixturePatterns redact personal data commonly found in captured pages.
var FixturePatterns = []FixturePattern{
	{
		regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		"user@example.com",
		"Email address",
	},
	{
		regexp.MustCompile(`\b(?:\d{4}[ -]){3}\d{4}\b`),
		"XXXX XXXX XXXX XXXX",
		"Card number",
	},
	{
		regexp.MustCompile(`(?i)(Signed in as\s*(?:<[^>]+>)?)[^<\s][^<]*`),
		"${1}customer",
		"Account name",
	},
	{
		regexp.MustCompile(`(?i)(token|csrf|session)["\s:=]+["']?[a-zA-Z0-9_-]{20,}["']?`),
		`$1="REDACTED"`,
		"Token",
	},
	{
		regexp.MustCompile(`(?i)document\.cookie\s*=\s*["'][^"']+["']`),
		`document.cookie="REDACTED"`,
		"Cookie",
	},
}

// SanitizeHTML applies FixturePatterns to html. The returned map counts the
// replacements per pattern description.
func SanitizeHTML(html string) (string, map[string]int) {
	counts := make(map[string]int)
	for _, p := range FixturePatterns {
		if n := len(p.Pattern.FindAllStringIndex(html, -1)); n > 0 {
			counts[p.Description] += n
			html = p.Pattern.ReplaceAllString(html, p.Replacement)
		}
	}
	return html, counts
}

// SanitizeHAR redacts sensitive data from a HAR log.
// Returns a new HARLog with sensitive data replaced by [REDACTED].
func SanitizeHAR(har *HARLog) *HARLog {
	sanitized := &HARLog{
		Entries: make([]HAREntry, len(har.Entries)),
	}

	for i, entry := range har.Entries {
		sanitized.Entries[i] = HAREntry{
			Request:  sanitizeRequest(entry.Request),
			Response: sanitizeResponse(entry.Response),
		}
	}

	return sanitized
}

func sanitizeRequest(req HARRequest) HARRequest {
	return HARRequest{
		Method:  req.Method,
		URL:     sanitizeURL(req.URL),
		Headers: sanitizeHeaders(req.Headers),
		Body:    sanitizeBody(req.Body),
	}
}

func sanitizeResponse(resp HARResponse) HARResponse {
	content := resp.Content
	if content.Encoding != "base64" {
		content.Text = sanitizeBody(content.Text)
		if strings.Contains(content.MimeType, "html") {
			content.Text, _ = SanitizeHTML(content.Text)
		}
	}
	return HARResponse{
		Status:  resp.Status,
		Headers: sanitizeHeaders(resp.Headers),
		Content: content,
	}
}

func sanitizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.RawQuery == "" {
		return rawURL
	}

	query := parsed.Query()
	changed := false
	for key := range query {
		if isSensitiveKey(key) {
			query.Set(key, redacted)
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

func sanitizeHeaders(headers []HARHeader) []HARHeader {
	if headers == nil {
		return nil
	}
	sanitized := make([]HARHeader, len(headers))

	for i, h := range headers {
		if SensitiveHeaders[strings.ToLower(h.Name)] || isSensitiveKey(h.Name) {
			sanitized[i] = HARHeader{Name: h.Name, Value: redacted}
			continue
		}
		sanitized[i] = h
	}

	return sanitized
}

func sanitizeBody(body string) string {
	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "":
		return body
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		return sanitizeJSONBody(body)
	case strings.Contains(body, "=") && !strings.Contains(trimmed, "<"):
		return sanitizeFormBody(body)
	}
	return body
}

func sanitizeFormBody(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return body
	}

	for key := range values {
		if isSensitiveKey(key) {
			values.Set(key, redacted)
		}
	}

	return values.Encode()
}

// sanitizeJSONBody redacts "key": value pairs with a sensitive key.
func sanitizeJSONBody(body string) string {
	redact := func(re *regexp.Regexp) func(string) string {
		return func(m string) string {
			key := re.FindStringSubmatch(m)[1]
			if !isSensitiveKey(key) {
				return m
			}
			return `"` + key + `": "` + redacted + `"`
		}
	}
	body = jsonStringField.ReplaceAllStringFunc(body, redact(jsonStringField))
	return jsonScalarField.ReplaceAllStringFunc(body, redact(jsonScalarField))
}

func isSensitiveKey(key string) bool {
	return sensitiveKey.MatchString(key)
}
