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

package jira

import (
	"context"
	"net/http"
	"net/url"

	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

func init() {
	remote.RegisterTracker("jira", func(ctx context.Context, cfg *config.Config) (remote.IssueTracker, remote.Fetcher, error) {
		client := New(cfg, nil)
		return client, NewCookieFetcher(cfg, nil), nil
	})
}

// 🎫 Client is a Jira REST v2 client
type Client struct {
	http *remote.HTTPClient
}

var _ remote.IssueTracker = (*Client)(nil)

// New creates a client for the Jira URL, falling back to the Confluence URL.
// JIRA_PAT_TOKEN wins over the Confluence credentials.
func New(cfg *config.Config, httpClient *http.Client) *Client {
	var auth remote.AuthFunc
	switch {
	case cfg.Jira.PAT != "":
		auth = remote.BearerAuth(cfg.Jira.PAT)
	case cfg.Confluence.PAT != "":
		auth = remote.BearerAuth(cfg.Confluence.PAT)
	default:
		auth = remote.BasicAuth(cfg.Confluence.Username, cfg.Confluence.APIToken)
	}
	return &Client{http: remote.NewHTTPClient(cfg.JiraURL(), auth, httpClient)}
}

// GetIssue returns an issue by key
func (c *Client) GetIssue(ctx context.Context, key string) (*remote.IssueJSON, error) {
	var issue remote.IssueJSON
	if err := c.http.GetJSON(ctx, "/rest/api/2/issue/"+url.PathEscape(key), nil, &issue); err != nil {
		return nil, errors.Errorf("getting issue %s: %w", key, err)
	}
	return &issue, nil
}

// 🍪 CookieFetcher downloads tracker-hosted files with the JIRA_COOKIE header
type CookieFetcher struct {
	http *remote.HTTPClient
}

var _ remote.Fetcher = (*CookieFetcher)(nil)

// NewCookieFetcher creates a fetcher for absolute tracker URLs
func NewCookieFetcher(cfg *config.Config, httpClient *http.Client) *CookieFetcher {
	return &CookieFetcher{http: remote.NewHTTPClient(cfg.JiraURL(), remote.CookieAuth(cfg.Jira.Cookie), httpClient)}
}

// Fetch downloads target
func (f *CookieFetcher) Fetch(ctx context.Context, target string) (*remote.Download, error) {
	dl, err := f.http.Fetch(ctx, target)
	if err != nil {
		return nil, errors.Errorf("fetching %s: %w", target, err)
	}
	return dl, nil
}
