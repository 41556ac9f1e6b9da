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

package confluence

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

const (
	// PageExpand selects the body variants, labels and ancestors of a page
	PageExpand = "body.view,body.export_view,body.editor2,metadata.labels,metadata.properties,ancestors"

	spacePageLimit  = 200
	attachmentLimit = 1000
	spaceListLimit  = 100
)

func init() {
	remote.RegisterSource("confluence", func(ctx context.Context, cfg *config.Config) (remote.ContentSource, error) {
		return New(ctx, cfg, nil)
	})
}

// 🌐 Client is a Confluence REST v1 client
type Client struct {
	http *remote.HTTPClient
}

var _ remote.ContentSource = (*Client)(nil)

// New creates a client authenticated with a PAT when set, else username and API token
func New(ctx context.Context, cfg *config.Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.ValidateAuth(); err != nil {
		return nil, errors.Errorf("validating confluence auth: %w", err)
	}

	var auth remote.AuthFunc
	if cfg.Confluence.PAT != "" {
		auth = remote.BearerAuth(cfg.Confluence.PAT)
	} else {
		auth = remote.BasicAuth(cfg.Confluence.Username, cfg.Confluence.APIToken)
	}

	return &Client{http: remote.NewHTTPClient(cfg.Confluence.URL, auth, httpClient)}, nil
}

type paged[T any] struct {
	Results []T `json:"results"`
	Start   int `json:"start"`
	Limit   int `json:"limit"`
	Size    int `json:"size"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

// collect walks start/limit pagination until a short or final page
func collect[T any](ctx context.Context, c *Client, path string, query url.Values, limit int) ([]T, error) {
	var out []T
	start := 0
	for {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("start", strconv.Itoa(start))
		q.Set("limit", strconv.Itoa(limit))

		var resp paged[T]
		if err := c.http.GetJSON(ctx, path, q, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Results...)

		if len(resp.Results) == 0 || (resp.Links.Next == "" && len(resp.Results) < limit) {
			return out, nil
		}
		start += len(resp.Results)
	}
}

// BaseURL returns the site root
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// GetSpace returns a space with its homepage expanded
func (c *Client) GetSpace(ctx context.Context, key string) (*remote.SpaceJSON, error) {
	var space remote.SpaceJSON
	q := url.Values{"expand": {"homepage"}}
	if err := c.http.GetJSON(ctx, "/rest/api/space/"+url.PathEscape(key), q, &space); err != nil {
		return nil, errors.Errorf("getting space %s: %w", key, err)
	}
	return &space, nil
}

// ListSpaces returns every global, current space
func (c *Client) ListSpaces(ctx context.Context) ([]remote.SpaceJSON, error) {
	q := url.Values{
		"type":   {"global"},
		"status": {"current"},
		"expand": {"homepage"},
	}
	spaces, err := collect[remote.SpaceJSON](ctx, c, "/rest/api/space", q, spaceListLimit)
	if err != nil {
		return nil, errors.Errorf("listing spaces: %w", err)
	}
	return spaces, nil
}

// ListSpacePageIDs returns the id of every page in a space
func (c *Client) ListSpacePageIDs(ctx context.Context, key string) ([]string, error) {
	q := url.Values{
		"spaceKey": {key},
		"type":     {"page"},
	}
	pages, err := collect[remote.ContentJSON](ctx, c, "/rest/api/content", q, spacePageLimit)
	if err != nil {
		return nil, errors.Errorf("listing pages of space %s: %w", key, err)
	}

	ids := make([]string, 0, len(pages))
	for _, p := range pages {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// GetPage returns a page with bodies, labels and ancestors
func (c *Client) GetPage(ctx context.Context, id string) (*remote.ContentJSON, error) {
	var page remote.ContentJSON
	q := url.Values{"expand": {PageExpand}}
	if err := c.http.GetJSON(ctx, "/rest/api/content/"+url.PathEscape(id), q, &page); err != nil {
		return nil, errors.Errorf("getting page %s: %w", id, err)
	}
	return &page, nil
}

// GetAttachments returns up to 1000 attachments of a page
func (c *Client) GetAttachments(ctx context.Context, pageID string) ([]remote.ContentJSON, error) {
	var resp paged[remote.ContentJSON]
	q := url.Values{
		"limit":  {strconv.Itoa(attachmentLimit)},
		"expand": {"container.ancestors"},
	}
	if err := c.http.GetJSON(ctx, "/rest/api/content/"+url.PathEscape(pageID)+"/child/attachment", q, &resp); err != nil {
		return nil, errors.Errorf("getting attachments of page %s: %w", pageID, err)
	}
	return resp.Results, nil
}

// SearchCQL runs a CQL query through /rest/api/search
func (c *Client) SearchCQL(ctx context.Context, cql string, limit int) ([]remote.SearchResultJSON, error) {
	var resp paged[remote.SearchResultJSON]
	q := url.Values{
		"cql":   {cql},
		"limit": {strconv.Itoa(limit)},
	}
	if err := c.http.GetJSON(ctx, "/rest/api/search", q, &resp); err != nil {
		return nil, errors.Errorf("searching %q: %w", cql, err)
	}
	return resp.Results, nil
}

// Fetch downloads a site-relative or absolute URL with the Confluence credentials
func (c *Client) Fetch(ctx context.Context, target string) (*remote.Download, error) {
	dl, err := c.http.Fetch(ctx, target)
	if err != nil {
		return nil, errors.Errorf("fetching %s: %w", target, err)
	}
	return dl, nil
}
