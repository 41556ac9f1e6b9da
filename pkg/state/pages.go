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

package state

import (
	"context"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/pathtmpl"
	"github.com/walteh/confexport/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

// FetchFunc enumerates page ids remotely
type FetchFunc func(ctx context.Context) ([]string, error)

// 🗂️ PageIDCache persists the page ids of one space
type PageIDCache struct {
	ws   *workspace.Workspace
	path string
}

// NewPageIDCache creates the cache for a space
func NewPageIDCache(ws *workspace.Workspace, spaceKey string) *PageIDCache {
	return &PageIDCache{
		ws:   ws,
		path: ws.CachePath(path.Join(pathtmpl.SanitizeFilename(spaceKey), PageIDFile)),
	}
}

// Path returns the cache file path relative to the output root
func (c *PageIDCache) Path() string {
	return c.path
}

// Load returns the cached ids and whether the cache file exists
func (c *PageIDCache) Load(ctx context.Context) ([]string, bool, error) {
	return readIDs(ctx, c.ws, c.path)
}

// Save replaces the cached ids
func (c *PageIDCache) Save(ctx context.Context, ids []string) error {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(id + "\n")
	}
	if _, err := c.ws.Files().WriteFile(ctx, c.path, []byte(sb.String())); err != nil {
		return errors.Errorf("saving page id cache: %w", err)
	}
	return nil
}

// Resolve returns the cached ids, or fetches and caches them. An unreadable
// cache is refetched. A failed save is logged and the fetched ids are still
// returned.
func (c *PageIDCache) Resolve(ctx context.Context, fetch FetchFunc) ([]string, error) {
	logger := zerolog.Ctx(ctx).With().Str("path", c.path).Logger()

	ids, ok, err := c.Load(ctx)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("could not read page id cache, fetching")
	case ok:
		logger.Info().Int("pages", len(ids)).Msg("loaded page ids from cache")
		return ids, nil
	}

	ids, err = fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.Save(ctx, ids); err != nil {
		logger.Warn().Err(err).Msg("could not save page id cache")
	}
	return ids, nil
}
