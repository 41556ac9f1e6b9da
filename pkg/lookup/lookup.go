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

package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/model"
	"github.com/walteh/confexport/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

// ErrNoContent is returned by Descendants when the search answers 404:
// the page does not exist or the caller may not view it
var ErrNoContent = errors.New("there is no content with the given id, or the calling user does not have permission to view the content")

// ErrNoTracker is returned by Issue when no issue tracker is configured
var ErrNoTracker = errors.New("no issue tracker configured")

const (
	titleSearchLimit      = 1
	descendantSearchLimit = 10000
)

// 📚 Repository builds model entities from a content source and memoizes them
type Repository struct {
	source  remote.ContentSource
	tracker remote.IssueTracker

	spaces *memo[model.Space]
	pages  *memo[*model.Page]
	issues *memo[*model.Issue]
	titles *memo[string]
}

// New creates a repository. tracker may be nil.
func New(source remote.ContentSource, tracker remote.IssueTracker, sizes config.CacheConfig) (*Repository, error) {
	r := &Repository{source: source, tracker: tracker}

	var err error
	if r.spaces, err = newMemo(sizes.Spaces, r.loadSpace); err != nil {
		return nil, errors.Errorf("space cache: %w", err)
	}
	if r.pages, err = newMemo(sizes.Pages, r.loadPage); err != nil {
		return nil, errors.Errorf("page cache: %w", err)
	}
	if r.issues, err = newMemo(sizes.Issues, r.loadIssue); err != nil {
		return nil, errors.Errorf("issue cache: %w", err)
	}
	if r.titles, err = newMemo(sizes.Titles, r.loadTitle); err != nil {
		return nil, errors.Errorf("title cache: %w", err)
	}

	return r, nil
}

// Source returns the underlying content source
func (r *Repository) Source() remote.ContentSource {
	return r.source
}

// Space returns a space by key
func (r *Repository) Space(ctx context.Context, key string) (model.Space, error) {
	return r.spaces.Get(ctx, key)
}

func (r *Repository) loadSpace(ctx context.Context, key string) (model.Space, error) {
	sp, err := r.source.GetSpace(ctx, key)
	if err != nil {
		return model.Space{}, err
	}
	return model.NewSpace(sp), nil
}

// Page returns a page with its attachments by id
func (r *Repository) Page(ctx context.Context, id string) (*model.Page, error) {
	return r.pages.Get(ctx, id)
}

func (r *Repository) loadPage(ctx context.Context, id string) (*model.Page, error) {
	c, err := r.source.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}

	space, err := r.Space(ctx, c.SpaceKey())
	if err != nil {
		return nil, errors.Errorf("space of page %s: %w", id, err)
	}

	raw, err := r.source.GetAttachments(ctx, id)
	if err != nil {
		return nil, errors.Errorf("attachments of page %s: %w", id, err)
	}

	attachments := make([]model.Attachment, 0, len(raw))
	for _, a := range raw {
		attSpace := space
		if key := a.SpaceKey(); key != "" && key != space.Key {
			if attSpace, err = r.Space(ctx, key); err != nil {
				return nil, errors.Errorf("space of attachment %s: %w", a.ID, err)
			}
		}
		attachments = append(attachments, model.NewAttachment(a, attSpace))
	}

	return model.NewPage(c, space, attachments), nil
}

// PageTitle returns the title of a page by id
func (r *Repository) PageTitle(ctx context.Context, id string) (string, error) {
	p, err := r.Page(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Title, nil
}

// Issue returns a tracker issue by key
func (r *Repository) Issue(ctx context.Context, key string) (*model.Issue, error) {
	return r.issues.Get(ctx, key)
}

func (r *Repository) loadIssue(ctx context.Context, key string) (*model.Issue, error) {
	if r.tracker == nil {
		return nil, ErrNoTracker
	}
	i, err := r.tracker.GetIssue(ctx, key)
	if err != nil {
		return nil, err
	}
	return model.NewIssue(i), nil
}

// PageIDByTitle finds a page by space key and exact title. A miss, or a
// failed search, returns ok=false; misses are cached.
func (r *Repository) PageIDByTitle(ctx context.Context, spaceKey, title string) (string, bool) {
	id, err := r.titles.Get(ctx, spaceKey+"\x00"+title)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("space", spaceKey).Str("title", title).Msg("finding page by title")
		return "", false
	}
	return id, id != ""
}

func (r *Repository) loadTitle(ctx context.Context, key string) (string, error) {
	spaceKey, title, _ := strings.Cut(key, "\x00")
	hits, err := r.source.SearchCQL(ctx, TitleCQL(spaceKey, title), titleSearchLimit)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", nil
	}
	return hits[0].Content.ID, nil
}

// TitleCQL is the search used to find a page by space and title
func TitleCQL(spaceKey, title string) string {
	return fmt.Sprintf("space.key=%q AND type=page AND title=%q", spaceKey, title)
}

// DescendantsCQL is the search used to enumerate every page below id
func DescendantsCQL(id string) string {
	return fmt.Sprintf("ancestor=%s AND type=page", id)
}

// Descendants lists every page below id through a CQL search.
// A 404 is reported as ErrNoContent.
func (r *Repository) Descendants(ctx context.Context, id string) ([]string, error) {
	hits, err := r.source.SearchCQL(ctx, DescendantsCQL(id), descendantSearchLimit)
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, errors.Errorf("%w: page %s: %s", ErrNoContent, id, err.Error())
		}
		return nil, errors.Errorf("searching descendants of %s: %w", id, err)
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.Content.ID)
	}
	return ids, nil
}

// SpacePageIDs lists every page id of a space
func (r *Repository) SpacePageIDs(ctx context.Context, key string) ([]string, error) {
	return r.source.ListSpacePageIDs(ctx, key)
}

// GlobalSpaces lists every global, current space and primes the space cache
func (r *Repository) GlobalSpaces(ctx context.Context) ([]model.Space, error) {
	raw, err := r.source.ListSpaces(ctx)
	if err != nil {
		return nil, err
	}

	spaces := make([]model.Space, 0, len(raw))
	for i := range raw {
		sp := model.NewSpace(&raw[i])
		r.spaces.cache.Add(sp.Key, sp)
		spaces = append(spaces, sp)
	}
	return spaces, nil
}
