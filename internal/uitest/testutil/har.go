// Package testutil provides test helpers for page objects: fixture loading,
// test modes, and HAR recording replay for browser-backed tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// HARLog is a simplified HAR (HTTP Archive) used to replay recorded
// browser sessions.
type HARLog struct {
	Entries []HAREntry `json:"entries"`
}

type HAREntry struct {
	Request  HARRequest  `json:"request"`
	Response HARResponse `json:"response"`
}

type HARRequest struct {
	Method  string      `json:"method"`
	URL     string      `json:"url"`
	Headers []HARHeader `json:"headers,omitempty"`
	Body    string      `json:"body,omitempty"`
}

type HARResponse struct {
	Status  int         `json:"status"`
	Headers []HARHeader `json:"headers,omitempty"`
	Content HARContent  `json:"content"`
}

type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type HARContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"` // "base64" for binary bodies
	Size     int    `json:"size,omitempty"`
}

// Header returns the first header named name, case-insensitively.
func (r HARResponse) Header(name string) string {
	return findHeader(r.Headers, name)
}

// devtoolsHAR is the HAR 1.2 layout browser devtools export: entries sit
// under "log" and request bodies under postData.
type devtoolsHAR struct {
	Log struct {
		Entries []struct {
			Request struct {
				Method   string      `json:"method"`
				URL      string      `json:"url"`
				Headers  []HARHeader `json:"headers,omitempty"`
				PostData *struct {
					Text string `json:"text"`
				} `json:"postData,omitempty"`
			} `json:"request"`
			Response HARResponse `json:"response"`
		} `json:"entries"`
	} `json:"log"`
}

// LoadHAR reads a HAR file in either the simplified or the devtools layout.
func LoadHAR(path string) (*HARLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read HAR file: %w", err)
	}
	return ParseHAR(data)
}

func ParseHAR(data []byte) (*HARLog, error) {
	var dev devtoolsHAR
	if err := json.Unmarshal(data, &dev); err == nil && len(dev.Log.Entries) > 0 {
		har := &HARLog{Entries: make([]HAREntry, len(dev.Log.Entries))}
		for i, e := range dev.Log.Entries {
			req := HARRequest{Method: e.Request.Method, URL: e.Request.URL, Headers: e.Request.Headers}
			if e.Request.PostData != nil {
				req.Body = e.Request.PostData.Text
			}
			har.Entries[i] = HAREntry{Request: req, Response: e.Response}
		}
		return har, nil
	}

	var har HARLog
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, fmt.Errorf("parse HAR JSON: %w", err)
	}
	return &har, nil
}

func SaveHAR(path string, har *HARLog) error {
	data, err := json.MarshalIndent(har, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal HAR: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write HAR file: %w", err)
	}
	return nil
}

func MustLoadHAR(t testing.TB, path string) *HARLog {
	t.Helper()
	har, err := LoadHAR(path)
	require.NoError(t, err, "load HAR file %s", path)
	return har
}
