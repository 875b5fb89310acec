package testutil

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

const maxRedirects = 10

// Replayer serves recorded responses to a rod page through request
// hijacking.
type Replayer struct {
	exact map[string]*HAREntry
	// byPath ignores the query string; the first recording of a path wins.
	byPath map[string]*HAREntry

	passthrough bool
	log         *zap.Logger
}

type ReplayerOption func(*Replayer)

// WithPassthrough lets unmatched requests reach the network. By default
// they get a 404.
func WithPassthrough(enabled bool) ReplayerOption {
	return func(r *Replayer) {
		r.passthrough = enabled
	}
}

// WithLogger logs each match and miss at debug level.
func WithLogger(l *zap.Logger) ReplayerOption {
	return func(r *Replayer) {
		r.log = l
	}
}

func NewReplayer(har *HARLog, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		exact:  make(map[string]*HAREntry),
		byPath: make(map[string]*HAREntry),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i := range har.Entries {
		entry := &har.Entries[i]
		r.exact[entry.Request.URL] = entry
		if key, ok := pathKey(entry.Request.URL); ok {
			if _, seen := r.byPath[key]; !seen {
				r.byPath[key] = entry
			}
		}
	}
	return r
}

// Lookup finds the recording for rawURL and follows recorded redirects.
func (r *Replayer) Lookup(rawURL string) (*HAREntry, bool) {
	entry, ok := r.match(rawURL)
	if !ok {
		return nil, false
	}

	for range maxRedirects {
		if entry.Response.Status < 300 || entry.Response.Status >= 400 {
			break
		}
		location := entry.Response.Header("location")
		if location == "" {
			break
		}
		next, ok := r.match(location)
		if !ok {
			r.log.Debug("redirect target not recorded", zap.String("location", location))
			break
		}
		entry = next
	}
	return entry, true
}

// Middleware is a rod hijack handler: router.MustAdd("*", r.Middleware()).
func (r *Replayer) Middleware() func(*rod.Hijack) {
	return func(h *rod.Hijack) {
		reqURL := h.Request.URL().String()

		entry, ok := r.Lookup(reqURL)
		if !ok {
			r.log.Debug("no recording", zap.String("url", reqURL))
			if r.passthrough {
				_ = h.LoadResponse(nil, true)
				return
			}
			payload := h.Response.Payload()
			payload.ResponseCode = 404
			payload.ResponseHeaders = []*proto.FetchHeaderEntry{{Name: "Content-Type", Value: "application/json"}}
			payload.Body = []byte(`{"error": "no recording found for URL"}`)
			return
		}

		r.log.Debug("replay", zap.String("url", reqURL), zap.Int("status", entry.Response.Status))
		status, headers, body := Response(entry)
		payload := h.Response.Payload()
		payload.ResponseCode = status
		payload.ResponseHeaders = headers
		payload.Body = body
	}
}

// Response renders a recorded entry as a CDP fetch response. Encoding and
// length headers are dropped since the body is served decoded.
func Response(entry *HAREntry) (int, []*proto.FetchHeaderEntry, []byte) {
	resp := entry.Response

	body := []byte(resp.Content.Text)
	if resp.Content.Encoding == "base64" {
		if decoded, err := base64.StdEncoding.DecodeString(resp.Content.Text); err == nil {
			body = decoded
		}
	}

	var headers []*proto.FetchHeaderEntry
	hasType := false
	for _, h := range resp.Headers {
		switch strings.ToLower(h.Name) {
		case "content-encoding", "content-length", "location":
			continue
		case "content-type":
			hasType = true
		}
		headers = append(headers, &proto.FetchHeaderEntry{Name: h.Name, Value: h.Value})
	}
	if !hasType && resp.Content.MimeType != "" {
		headers = append(headers, &proto.FetchHeaderEntry{Name: "Content-Type", Value: resp.Content.MimeType})
	}
	return resp.Status, headers, body
}

// Stats reports index sizes.
func (r *Replayer) Stats() map[string]int {
	return map[string]int{
		"exact_matches": len(r.exact),
		"path_matches":  len(r.byPath),
	}
}

func (r *Replayer) match(rawURL string) (*HAREntry, bool) {
	if e, ok := r.exact[rawURL]; ok {
		return e, true
	}
	if key, ok := pathKey(rawURL); ok {
		e, ok := r.byPath[key]
		return e, ok
	}
	return nil, false
}

func pathKey(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	return u.Scheme + "://" + u.Host + u.Path, true
}

func findHeader(headers []HARHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
