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

// Package remotetest provides in-memory backends for tests.
package remotetest

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/walteh/confexport/pkg/remote"
)

// 🧪 Source is an in-memory remote.ContentSource.
// Missing entries answer with a 404 HTTPError unless an explicit error is set.
type Source struct {
	URL string

	Spaces      map[string]*remote.SpaceJSON
	SpacePages  map[string][]string
	Pages       map[string]*remote.ContentJSON
	Attachments map[string][]remote.ContentJSON
	Search      map[string][]remote.SearchResultJSON
	Files       map[string]*remote.Download

	// Errors maps "page:ID", "space:KEY", "search:CQL", "fetch:URL" to a forced failure
	Errors map[string]error

	mu    sync.Mutex
	calls map[string]int
}

var _ remote.ContentSource = (*Source)(nil)

// NewSource creates an empty fake rooted at https://wiki.example.com
func NewSource() *Source {
	return &Source{
		URL:         "https://wiki.example.com",
		Spaces:      map[string]*remote.SpaceJSON{},
		SpacePages:  map[string][]string{},
		Pages:       map[string]*remote.ContentJSON{},
		Attachments: map[string][]remote.ContentJSON{},
		Search:      map[string][]remote.SearchResultJSON{},
		Files:       map[string]*remote.Download{},
		Errors:      map[string]error{},
		calls:       map[string]int{},
	}
}

// Calls returns how often a key such as "page:42" was requested
func (s *Source) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func (s *Source) hit(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[key]++
	return s.Errors[key]
}

// Status builds the HTTPError a real client would return
func Status(code int, url string) error {
	return &remote.HTTPError{StatusCode: code, URL: url}
}

func (s *Source) BaseURL() string { return s.URL }

func (s *Source) GetSpace(ctx context.Context, key string) (*remote.SpaceJSON, error) {
	if err := s.hit("space:" + key); err != nil {
		return nil, err
	}
	sp, ok := s.Spaces[key]
	if !ok {
		return nil, Status(http.StatusNotFound, "/rest/api/space/"+key)
	}
	return sp, nil
}

func (s *Source) ListSpaces(ctx context.Context) ([]remote.SpaceJSON, error) {
	if err := s.hit("spaces"); err != nil {
		return nil, err
	}
	out := make([]remote.SpaceJSON, 0, len(s.Spaces))
	for _, k := range sortedKeys(s.Spaces) {
		out = append(out, *s.Spaces[k])
	}
	return out, nil
}

func (s *Source) ListSpacePageIDs(ctx context.Context, key string) ([]string, error) {
	if err := s.hit("space-pages:" + key); err != nil {
		return nil, err
	}
	return s.SpacePages[key], nil
}

func (s *Source) GetPage(ctx context.Context, id string) (*remote.ContentJSON, error) {
	if err := s.hit("page:" + id); err != nil {
		return nil, err
	}
	p, ok := s.Pages[id]
	if !ok {
		return nil, Status(http.StatusNotFound, "/rest/api/content/"+id)
	}
	return p, nil
}

func (s *Source) GetAttachments(ctx context.Context, pageID string) ([]remote.ContentJSON, error) {
	if err := s.hit("attachments:" + pageID); err != nil {
		return nil, err
	}
	return s.Attachments[pageID], nil
}

func (s *Source) SearchCQL(ctx context.Context, cql string, limit int) ([]remote.SearchResultJSON, error) {
	if err := s.hit("search:" + cql); err != nil {
		return nil, err
	}
	res := s.Search[cql]
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *Source) Fetch(ctx context.Context, url string) (*remote.Download, error) {
	if strings.HasPrefix(url, "/") {
		url = s.URL + url
	}
	if err := s.hit("fetch:" + url); err != nil {
		return nil, err
	}
	dl, ok := s.Files[url]
	if !ok {
		return nil, Status(http.StatusNotFound, url)
	}
	return dl, nil
}

// 🧪 Tracker is an in-memory remote.IssueTracker
type Tracker struct {
	Issues map[string]*remote.IssueJSON
	Files  map[string]*remote.Download

	mu    sync.Mutex
	calls map[string]int
}

var (
	_ remote.IssueTracker = (*Tracker)(nil)
	_ remote.Fetcher      = (*Tracker)(nil)
)

// NewTracker creates an empty fake tracker
func NewTracker() *Tracker {
	return &Tracker{
		Issues: map[string]*remote.IssueJSON{},
		Files:  map[string]*remote.Download{},
		calls:  map[string]int{},
	}
}

// Calls returns how often a key such as "issue:ABC-1" was requested
func (t *Tracker) Calls(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[key]
}

func (t *Tracker) hit(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[key]++
}

func (t *Tracker) GetIssue(ctx context.Context, key string) (*remote.IssueJSON, error) {
	t.hit("issue:" + key)
	issue, ok := t.Issues[key]
	if !ok {
		return nil, Status(http.StatusNotFound, "/rest/api/2/issue/"+key)
	}
	return issue, nil
}

func (t *Tracker) Fetch(ctx context.Context, url string) (*remote.Download, error) {
	t.hit("fetch:" + url)
	dl, ok := t.Files[url]
	if !ok {
		return nil, Status(http.StatusNotFound, url)
	}
	return dl, nil
}

// Issue builds an IssueJSON
func Issue(key, summary, status string) *remote.IssueJSON {
	issue := &remote.IssueJSON{Key: key}
	issue.Fields.Summary = summary
	issue.Fields.Status.Name = status
	return issue
}
