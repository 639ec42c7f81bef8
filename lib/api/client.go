// Package api implements the clients of the remote services used by the portal: the agents backend (security checks,
// agent creation, dataset visualisation), the metrics API (roadmap, portfolio optimisation) and the quantum API (risk
// analysis). All of them speak JSON over HTTP; failures are reported with the error types of this package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client issues JSON requests against one base URL.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient returns a Client for base. A zero timeout leaves the transport defaults in place.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.hc = hc

	return c
}

// Do sends in (nil for no body) to path with method and decodes the JSON reply into out. It returns a
// *NetworkError for transport failures and non-2xx statuses, and an *ApplicationError when a 2xx reply carries an
// "error" field. For non-2xx replies with an "error" field the message is kept in the NetworkError.
func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader

	if in != nil {
		pl, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: cannot encode request: %w", path, err)
		}

		body = bytes.NewReader(pl)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return &NetworkError{Op: path, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return &NetworkError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: path, Status: resp.StatusCode, Err: err}
	}

	var e struct {
		Error string `json:"error"`
	}

	_ = json.Unmarshal(raw, &e)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{Op: path, Status: resp.StatusCode, Err: remoteError(e.Error)}
	}

	if e.Error != "" {
		return &ApplicationError{Op: path, Message: e.Error}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err = json.Unmarshal(raw, out); err != nil {
		return &NetworkError{Op: path, Status: resp.StatusCode, Err: fmt.Errorf("cannot decode reply: %w", err)}
	}

	return nil
}

// Post is Do with http.MethodPost.
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

// Get is Do with http.MethodGet and no body.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

type remoteError string

func (e remoteError) Error() string {
	if e == "" {
		return "no error message"
	}

	return string(e)
}

// RemoteMessage returns the "error" message a remote service sent with err, if any.
func RemoteMessage(err error) string {
	var ne *NetworkError
	if errors.As(err, &ne) {
		if re, ok := ne.Err.(remoteError); ok && re != "" {
			return string(re)
		}
	}

	var ae *ApplicationError
	if errors.As(err, &ae) {
		return ae.Message
	}

	return ""
}
