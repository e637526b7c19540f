package socketclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// httpHandshake posts handshake envelopes to the server's HTTP sibling
// endpoint. Only the handshake ever travels this path; every other
// envelope requires the socket to be open.
type httpHandshake struct {
	client   *http.Client
	endpoint *url.URL
}

func newHTTPHandshake(client *http.Client, endpoint *url.URL) (*httpHandshake, error) {
	if client == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		client = &http.Client{Jar: jar}
	}
	return &httpHandshake{client: client, endpoint: endpoint}, nil
}

// post sends one handshake envelope as a one-element JSON array and parses
// the reply batch.
func (h *httpHandshake) post(ctx context.Context, m *Message) ([]Message, error) {
	payload, err := encodeHTTPPayload(m)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, BadResponseError{resp.StatusCode, resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodePayload(body)
}
