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

package pathtmpl

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/model"
	"github.com/walteh/confexport/pkg/remote"
	"gitlab.com/tozd/go/errors"
)

type fakeTitles struct {
	titles map[string]string
	errs   map[string]error
}

func (f fakeTitles) PageTitle(ctx context.Context, id string) (string, error) {
	if err, ok := f.errs[id]; ok {
		return "", err
	}
	if t, ok := f.titles[id]; ok {
		return t, nil
	}
	return "", &remote.HTTPError{StatusCode: http.StatusNotFound, URL: id}
}

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func testPage() *model.Page {
	return &model.Page{
		Document: model.Document{
			Title:     "Deploy: How/To?",
			Space:     model.Space{Key: "DOC", Name: "Team Docs", HomepageID: "1"},
			Ancestors: []string{"10", "20"},
		},
		ID: "42",
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     Vars
		want     string
	}{
		{name: "all_known", template: "{a}/{b}.md", vars: Vars{"a": "x", "b": "y"}, want: "x/y.md"},
		{name: "unknown_left_verbatim", template: "{a}/{nope}.md", vars: Vars{"a": "x"}, want: "x/{nope}.md"},
		{name: "literal_text", template: "export/{a}-final", vars: Vars{"a": "x"}, want: "export/x-final"},
		{name: "empty_value", template: "{a}/{b}", vars: Vars{"a": "", "b": "y"}, want: "/y"},
		{name: "unbalanced_brace", template: "{a", vars: Vars{"a": "x"}, want: "{a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.template, tt.vars), "expansion should match")
		})
	}
}

func TestPagePath(t *testing.T) {
	ctx := testContext(t)
	titles := fakeTitles{titles: map[string]string{"1": "Home", "10": "Guides", "20": "Ops"}}

	r := New(titles, config.DefaultPagePath, config.DefaultAttachmentPath)
	got, err := r.PagePath(ctx, testPage())
	require.NoError(t, err, "PagePath should succeed")
	assert.Equal(t, "Team Docs/Home/Guides/Ops/Deploy_ How_To_.md", got, "path should match")

	again, err := r.PagePath(ctx, testPage())
	require.NoError(t, err, "PagePath should succeed")
	assert.Equal(t, got, again, "recomputing the path should be idempotent")
}

func TestPagePathRootPage(t *testing.T) {
	ctx := testContext(t)
	titles := fakeTitles{titles: map[string]string{"1": "Home"}}

	p := testPage()
	p.Ancestors = []string{}
	p.Title = "Home"

	got, err := New(titles, config.DefaultPagePath, "").PagePath(ctx, p)
	require.NoError(t, err, "PagePath should succeed")
	assert.Equal(t, "Team Docs/Home/Home.md", got, "empty ancestor segment should collapse")
}

func TestPagePathAllVariables(t *testing.T) {
	ctx := testContext(t)
	titles := fakeTitles{titles: map[string]string{"1": "Home", "10": "Guides", "20": "Ops"}}

	r := New(titles, "{space_key}/{homepage_id}/{ancestor_ids}/{page_id}-{page_title}/{unknown}.md", "")
	got, err := r.PagePath(ctx, testPage())
	require.NoError(t, err, "PagePath should succeed")
	assert.Equal(t, "DOC/1/10/20/42-Deploy_ How_To_/{unknown}.md", got, "path should match")
}

func TestAncestorTitle(t *testing.T) {
	ctx := testContext(t)
	boom := errors.New("connection reset")
	titles := fakeTitles{
		titles: map[string]string{"1": "Home"},
		errs: map[string]error{
			"10": errors.Errorf("getting page: %w", &remote.HTTPError{StatusCode: http.StatusForbidden}),
			"20": boom,
			"30": &remote.HTTPError{StatusCode: http.StatusInternalServerError},
		},
	}
	r := New(titles, config.DefaultPagePath, config.DefaultAttachmentPath)

	title, err := r.AncestorTitle(ctx, "10")
	require.NoError(t, err, "forbidden should not fail")
	assert.Equal(t, Forbidden, title, "forbidden should map to N/A")

	_, err = r.AncestorTitle(ctx, "20")
	require.Error(t, err, "other errors should propagate")
	assert.True(t, errors.Is(err, boom), "original error should be wrapped")

	_, err = r.AncestorTitle(ctx, "30")
	require.Error(t, err, "server errors should propagate")
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode(err), "status should be preserved")

	p := testPage()
	p.Ancestors = []string{"10"}
	got, err := r.PagePath(ctx, p)
	require.NoError(t, err, "PagePath should succeed")
	assert.Equal(t, "Team Docs/Home/N_A/Deploy_ How_To_.md", got, "forbidden ancestor should be sanitized N/A")

	p.Ancestors = []string{"20"}
	_, err = r.PagePath(ctx, p)
	assert.Error(t, err, "PagePath should fail on other errors")
}

func TestAttachmentPath(t *testing.T) {
	ctx := testContext(t)
	titles := fakeTitles{titles: map[string]string{"1": "Home", "42": "Page"}}

	a := &model.Attachment{
		Document: model.Document{
			Title:     "diagram v2.png",
			Space:     model.Space{Key: "DOC", Name: "Team Docs", HomepageID: "1"},
			Ancestors: []string{"42"},
		},
		ID:        "att9",
		FileID:    "file-9",
		MediaType: "image/png",
	}

	r := New(titles, config.DefaultPagePath, config.DefaultAttachmentPath)
	got, err := r.AttachmentPath(ctx, a)
	require.NoError(t, err, "AttachmentPath should succeed")
	assert.Equal(t, "Team Docs/attachments/att9-diagram v2.png", got, "path should match")

	r = New(titles, "", "{ancestor_titles}/{attachment_file_id}{attachment_extension}")
	got, err = r.AttachmentPath(ctx, a)
	require.NoError(t, err, "AttachmentPath should succeed")
	assert.Equal(t, "Page/file-9.png", got, "path should match")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: `a<b>c:d"e/f\g|h?i*j`, want: "a_b_c_d_e_f_g_h_i_j"},
		{in: "tab\there", want: "tab_here"},
		{in: "trailing dots...", want: "trailing dots"},
		{in: "  spaced  ", want: "spaced"},
		{in: "Ünïcödé ok", want: "Ünïcödé ok"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in), "sanitized name should match")
		})
	}
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "owner_team", SanitizeKey("Owner / Team", "_"), "runs should collapse")
	assert.Equal(t, "release-notes-2024", SanitizeKey("Release Notes (2024)!", "-"), "edges should be trimmed")
	assert.Equal(t, "tags", SanitizeKey("tags", "_"), "simple key should pass")
}
