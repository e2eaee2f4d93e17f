// Package httpsource opens archives served over HTTP, such as the
// com.atproto.sync.getRepo endpoint of a personal data server.
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"xdao.co/carstream/car"
)

// ErrStatus is wrapped by errors for non-200 responses.
var ErrStatus = errors.New("httpsource: unexpected status")

// Client builds archive openers against one service host.
type Client struct {
	// Host is the service base URL, e.g. https://bsky.social.
	Host string
	// HTTPClient is used for requests; http.DefaultClient when nil. Its
	// Timeout bounds the whole transfer.
	HTTPClient *http.Client
	// Header is added to every request (e.g. Authorization).
	Header http.Header
}

// GetRepo returns an Opener for com.atproto.sync.getRepo. since is optional.
func (c *Client) GetRepo(did, since string) car.Opener {
	q := url.Values{}
	q.Set("did", did)
	if since != "" {
		q.Set("since", since)
	}
	return c.Opener("/xrpc/com.atproto.sync.getRepo?" + q.Encode())
}

// Opener returns an Opener that issues a GET for path relative to Host. The
// response body is the archive source; the decoder closes it.
func (c *Client) Opener(path string) car.Opener {
	return func(ctx context.Context) (io.ReadCloser, error) {
		if c == nil || c.Host == "" {
			return nil, errors.New("httpsource: missing host")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(c.Host, "/")+path, nil)
		if err != nil {
			return nil, err
		}
		for k, vs := range c.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/vnd.ipld.car")

		hc := c.HTTPClient
		if hc == nil {
			hc = http.DefaultClient
		}
		resp, err := hc.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("%w: %s: %s", ErrStatus, resp.Status, strings.TrimSpace(string(msg)))
		}
		return resp.Body, nil
	}
}
