package fetcher

import (
	"bytes"
	"io"
	"net/http"
)

// StealthTransport adapts the stealth client to http.RoundTripper so
// code written against net/http (the remote manifest loader, for one)
// gets the same TLS fingerprint and headers as direct fetches.
type StealthTransport struct {
	client *Client
}

// NewStealthTransport wraps a stealth client as a transport.
func NewStealthTransport(client *Client) *StealthTransport {
	return &StealthTransport{client: client}
}

// RoundTrip implements http.RoundTripper.
func (t *StealthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	extra := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		if len(v) > 0 {
			extra[k] = v[0]
		}
	}

	resp, err := t.client.GetWithHeaders(req.Context(), req.URL.String(), extra)
	if err != nil {
		return nil, err
	}

	// The body is already decompressed. Content-Encoding must go,
	// or the caller decompresses a second time and fails.
	resp.Headers.Del("Content-Encoding")

	return &http.Response{
		Status:        http.StatusText(resp.StatusCode),
		StatusCode:    resp.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        resp.Headers,
		Body:          io.NopCloser(bytes.NewReader(resp.Body)),
		ContentLength: int64(len(resp.Body)),
		Request:       req,
	}, nil
}

// Transport exposes the client as an http.RoundTripper.
func (c *Client) Transport() http.RoundTripper {
	return NewStealthTransport(c)
}
