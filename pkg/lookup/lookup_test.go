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
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/remote"
	"github.com/walteh/confexport/pkg/remote/remotetest"
	"gitlab.com/tozd/go/errors"
)

func newTestRepo(t *testing.T) (*Repository, *remotetest.Source, *remotetest.Tracker, context.Context) {
	t.Helper()

	src := remotetest.NewSource()
	src.Spaces["DOC"] = remotetest.Space("DOC", "Docs", "1")
	src.Pages["1"] = remotetest.Page("1", "Home", "DOC", "")
	src.Pages["2"] = remotetest.Page("2", "Child", "DOC", "<p>child</p>", "1")
	src.Attachments["2"] = []remote.ContentJSON{
		remotetest.Attachment("att1", "a.png", "DOC", "f1", "image/png", "2", "1"),
	}

	tracker := remotetest.NewTracker()
	tracker.Issues["ABC-1"] = remotetest.Issue("ABC-1", "Fix it", "Open")

	repo, err := New(src, tracker, config.Default().Cache)
	require.NoError(t, err, "creating repository should succeed")

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	return repo, src, tracker, ctx
}

func TestPageIsMemoized(t *testing.T) {
	repo, src, _, ctx := newTestRepo(t)

	page, err := repo.Page(ctx, "2")
	require.NoError(t, err, "Page should succeed")
	assert.Equal(t, "Child", page.Title, "title should match")
	assert.Equal(t, "Docs", page.Space.Name, "space should be resolved")
	require.Len(t, page.Attachments, 1, "attachments should be loaded")
	assert.Equal(t, []string{"2"}, page.Attachments[0].Ancestors, "attachment ancestors should drop the root")

	again, err := repo.Page(ctx, "2")
	require.NoError(t, err, "Page should succeed")
	assert.Same(t, page, again, "second lookup should hit the cache")
	assert.Equal(t, 1, src.Calls("page:2"), "page should be fetched once")
	assert.Equal(t, 1, src.Calls("space:DOC"), "space should be fetched once")

	title, err := repo.PageTitle(ctx, "2")
	require.NoError(t, err, "PageTitle should succeed")
	assert.Equal(t, "Child", title, "title should match")
	assert.Equal(t, 1, src.Calls("page:2"), "title should reuse the page cache")
}

func TestPageErrorsAreNotCached(t *testing.T) {
	repo, src, _, ctx := newTestRepo(t)
	src.Errors["page:2"] = remotetest.Status(http.StatusForbidden, "/rest/api/content/2")

	_, err := repo.Page(ctx, "2")
	require.Error(t, err, "forbidden page should fail")
	assert.True(t, remote.IsForbidden(err), "403 should be preserved")

	delete(src.Errors, "page:2")
	_, err = repo.Page(ctx, "2")
	require.NoError(t, err, "retry should succeed after the error clears")
	assert.Equal(t, 2, src.Calls("page:2"), "failed loads should not be cached")
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	repo, src, _, ctx := newTestRepo(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Page(ctx, "1")
			assert.NoError(t, err, "Page should succeed")
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, src.Calls("page:1"), 16, "calls should be bounded")
	_, err := repo.Page(ctx, "1")
	require.NoError(t, err, "Page should succeed")
	assert.Equal(t, 1, repo.pages.Len(), "one cached entry expected")
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	src := remotetest.NewSource()
	src.Spaces["DOC"] = remotetest.Space("DOC", "Docs", "")
	for _, id := range []string{"1", "2", "3"} {
		src.Pages[id] = remotetest.Page(id, "P"+id, "DOC", "")
	}

	sizes := config.Default().Cache
	sizes.Pages = 2
	repo, err := New(src, nil, sizes)
	require.NoError(t, err, "creating repository should succeed")
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3", "1"} {
		_, err := repo.Page(ctx, id)
		require.NoError(t, err, "Page should succeed")
	}

	assert.Equal(t, 2, src.Calls("page:1"), "page 1 should have been evicted and refetched")
	assert.Equal(t, 2, repo.pages.Len(), "cache should stay bounded")
}

func TestPageIDByTitle(t *testing.T) {
	repo, src, _, ctx := newTestRepo(t)
	src.Search[TitleCQL("DOC", "Child Page")] = []remote.SearchResultJSON{remotetest.Hit("2")}

	id, ok := repo.PageIDByTitle(ctx, "DOC", "Child Page")
	assert.True(t, ok, "page should be found")
	assert.Equal(t, "2", id, "id should match")

	_, ok = repo.PageIDByTitle(ctx, "DOC", "Missing")
	assert.False(t, ok, "unknown title should not be found")
	_, ok = repo.PageIDByTitle(ctx, "DOC", "Missing")
	assert.False(t, ok, "unknown title should not be found")
	assert.Equal(t, 1, src.Calls("search:"+TitleCQL("DOC", "Missing")), "misses should be cached")

	src.Errors["search:"+TitleCQL("DOC", "Broken")] = errors.New("boom")
	_, ok = repo.PageIDByTitle(ctx, "DOC", "Broken")
	assert.False(t, ok, "failed searches should read as not found")
}

func TestTitleCQL(t *testing.T) {
	assert.Equal(t, `space.key="DOC" AND type=page AND title="A B"`, TitleCQL("DOC", "A B"), "cql should match")
	assert.Equal(t, "ancestor=42 AND type=page", DescendantsCQL("42"), "cql should match")
}

func TestDescendants(t *testing.T) {
	repo, src, _, ctx := newTestRepo(t)
	src.Search[DescendantsCQL("1")] = []remote.SearchResultJSON{remotetest.Hit("2"), remotetest.Hit("3")}

	ids, err := repo.Descendants(ctx, "1")
	require.NoError(t, err, "Descendants should succeed")
	assert.Equal(t, []string{"2", "3"}, ids, "ids should keep search order")

	src.Errors["search:"+DescendantsCQL("9")] = remotetest.Status(http.StatusNotFound, "/rest/api/search")
	_, err = repo.Descendants(ctx, "9")
	require.Error(t, err, "404 should fail")
	assert.True(t, errors.Is(err, ErrNoContent), "404 should map to ErrNoContent")

	src.Errors["search:"+DescendantsCQL("8")] = remotetest.Status(http.StatusInternalServerError, "/rest/api/search")
	_, err = repo.Descendants(ctx, "8")
	require.Error(t, err, "500 should fail")
	assert.False(t, errors.Is(err, ErrNoContent), "other errors should not map to ErrNoContent")
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode(err), "status should be preserved")
}

func TestIssue(t *testing.T) {
	repo, _, tracker, ctx := newTestRepo(t)

	issue, err := repo.Issue(ctx, "ABC-1")
	require.NoError(t, err, "Issue should succeed")
	assert.Equal(t, "Fix it", issue.Summary, "summary should match")

	_, err = repo.Issue(ctx, "ABC-1")
	require.NoError(t, err, "Issue should succeed")
	assert.Equal(t, 1, tracker.Calls("issue:ABC-1"), "issue should be fetched once")

	noTracker, err := New(remotetest.NewSource(), nil, config.Default().Cache)
	require.NoError(t, err, "creating repository should succeed")
	_, err = noTracker.Issue(ctx, "ABC-1")
	assert.True(t, errors.Is(err, ErrNoTracker), "missing tracker should be reported")
}

func TestGlobalSpacesPrimeCache(t *testing.T) {
	repo, src, _, ctx := newTestRepo(t)
	src.Spaces["ENG"] = remotetest.Space("ENG", "Engineering", "5")

	spaces, err := repo.GlobalSpaces(ctx)
	require.NoError(t, err, "GlobalSpaces should succeed")
	require.Len(t, spaces, 2, "two spaces expected")
	assert.Equal(t, "DOC", spaces[0].Key, "spaces should be sorted by the fake")

	sp, err := repo.Space(ctx, "ENG")
	require.NoError(t, err, "Space should succeed")
	assert.Equal(t, "5", sp.HomepageID, "homepage should match")
	assert.Equal(t, 0, src.Calls("space:ENG"), "space should come from the primed cache")
}
