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
	"sort"
	"strings"

	"github.com/walteh/confexport/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// 🌐 ContentSource is the wiki backend pages, spaces and attachments are read from
type ContentSource interface {
	Fetcher

	// BaseURL returns the site root used to resolve relative links and downloads
	BaseURL() string
	// GetSpace returns a space with its homepage expanded
	GetSpace(ctx context.Context, key string) (*SpaceJSON, error)
	// ListSpaces returns all global, current spaces
	ListSpaces(ctx context.Context) ([]SpaceJSON, error)
	// ListSpacePageIDs pages through every page id of a space
	ListSpacePageIDs(ctx context.Context, key string) ([]string, error)
	// GetPage returns a page with its body variants, labels and ancestors expanded
	GetPage(ctx context.Context, id string) (*ContentJSON, error)
	// GetAttachments returns the attachments of a page with container ancestors expanded
	GetAttachments(ctx context.Context, pageID string) ([]ContentJSON, error)
	// SearchCQL runs a CQL search
	SearchCQL(ctx context.Context, cql string, limit int) ([]SearchResultJSON, error)
}

// 🎫 IssueTracker resolves issue keys
type IssueTracker interface {
	GetIssue(ctx context.Context, key string) (*IssueJSON, error)
}

// 📥 Fetcher downloads a URL with the credentials of its backend
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Download, error)
}

// Download is a fetched body and its declared content type
type Download struct {
	Body        []byte
	ContentType string
}

// SourceFactory builds a ContentSource from configuration
type SourceFactory func(ctx context.Context, cfg *config.Config) (ContentSource, error)

// TrackerFactory builds an IssueTracker and the fetcher used for tracker-hosted images
type TrackerFactory func(ctx context.Context, cfg *config.Config) (IssueTracker, Fetcher, error)

var (
	sources  = map[string]SourceFactory{}
	trackers = map[string]TrackerFactory{}
)

// RegisterSource makes a content source available by name
func RegisterSource(name string, factory SourceFactory) {
	sources[name] = factory
}

// RegisterTracker makes an issue tracker available by name
func RegisterTracker(name string, factory TrackerFactory) {
	trackers[name] = factory
}

// NewSource builds the named content source
func NewSource(ctx context.Context, name string, cfg *config.Config) (ContentSource, error) {
	factory, ok := sources[name]
	if !ok {
		return nil, errors.Errorf("content source %s not found, options: %s", name, strings.Join(keys(sources), ", "))
	}
	return factory(ctx, cfg)
}

// NewTracker builds the named issue tracker
func NewTracker(ctx context.Context, name string, cfg *config.Config) (IssueTracker, Fetcher, error) {
	factory, ok := trackers[name]
	if !ok {
		return nil, nil, errors.Errorf("issue tracker %s not found, options: %s", name, strings.Join(keys(trackers), ", "))
	}
	return factory(ctx, cfg)
}

func keys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
