// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultTimeout bounds a single request
const DefaultTimeout = 360 * time.Second

// AuthFunc decorates an outgoing request with credentials
type AuthFunc func(req *http.Request)

// BearerAuth authenticates with a personal access token
func BearerAuth(token string) AuthFunc {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// BasicAuth authenticates with a username and API token
func BasicAuth(username, token string) AuthFunc {
	return func(req *http.Request) {
		req.SetBasicAuth(username, token)
	}
}

// CookieAuth sends a raw Cookie header
func CookieAuth(cookie string) AuthFunc {
	return func(req *http.Request) {
		if cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
	}
}

// 🔌 HTTPClient issues authenticated GETs against one base URL
type HTTPClient struct {
	base   string
	auth   AuthFunc
	client *http.Client
}

// NewHTTPClient creates a client. A nil httpClient uses a client with DefaultTimeout.
func NewHTTPClient(base string, auth AuthFunc, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if auth == nil {
		auth = func(*http.Request) {}
	}
	return &HTTPClient{
		base:   strings.TrimRight(base, "/"),
		auth:   auth,
		client: httpClient,
	}
}

// BaseURL returns the base URL without a trailing slash
func (c *HTTPClient) BaseURL() string {
	return c.base
}

// Resolve joins a site-relative path onto the base URL; absolute URLs pass through
func (c *HTTPClient) Resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base + path
}

// GetJSON decodes the JSON response of path with query into out
func (c *HTTPClient) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.Resolve(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.do(ctx, target, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Errorf("decoding %s: %w", target, err)
	}
	return nil
}

// Fetch downloads target, resolving site-relative paths against the base URL
func (c *HTTPClient) Fetch(ctx context.Context, target string) (*Download, error) {
	target = c.Resolve(target)

	resp, err := c.do(ctx, target, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", target, err)
	}

	return &Download{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (c *HTTPClient) do(ctx context.Context, target, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	c.auth(req)

	zerolog.Ctx(ctx).Trace().Str("url", target).Msg("GET")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Errorf("making request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status code: %w", &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        target,
			Body:       strings.TrimSpace(string(snippet)),
		})
	}

	return resp, nil
}
