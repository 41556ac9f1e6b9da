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

package reference

import (
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// RenderFunc renders a matched link. An error keeps the original target.
type RenderFunc func(ctx context.Context, r *Resolver, pc Context, l Link) (string, error)

// 🎯 Matcher is one entry of the ordered link dispatch
type Matcher struct {
	Name   string
	Match  func(l Link) bool
	Render RenderFunc
}

// DefaultMatchers returns the link matchers in evaluation order
func DefaultMatchers() []Matcher {
	return []Matcher{
		{Name: "user-mention", Match: isUserMention, Render: renderUserMention},
		{Name: "create-page", Match: isCreatePage, Render: renderCreatePage},
		{Name: "linked-page", Match: isLinkedPage, Render: renderLinkedPage},
		{Name: "linked-attachment", Match: isLinkedAttachment, Render: renderLinkedAttachment},
		{Name: "page-url", Match: isPageURL, Render: renderPageURL},
		{Name: "display-url", Match: isDisplayURL, Render: renderDisplayURL},
		{Name: "heading-anchor", Match: isHeadingAnchor, Render: renderHeadingAnchor},
	}
}

func isUserMention(l Link) bool {
	return l.HasClass("user-mention")
}

func renderUserMention(_ context.Context, _ *Resolver, _ Context, l Link) (string, error) {
	return UserName(l.Text), nil
}

func isCreatePage(l Link) bool {
	return strings.Contains(l.Href, "createpage.action") || l.HasClass("createlink")
}

func renderCreatePage(ctx context.Context, r *Resolver, pc Context, l Link) (string, error) {
	fallback, ok := editorFallback(pc.Page, l.Text)
	if !ok || isCreatePage(fallback) {
		return "[[" + l.Text + "]]", nil
	}
	fallback.Text = l.Text
	return r.Resolve(ctx, pc, fallback), nil
}

func isLinkedPage(l Link) bool {
	return l.ResourceType == "page" && l.ResourceID != "" && l.ResourceID != "null"
}

func renderLinkedPage(ctx context.Context, r *Resolver, pc Context, l Link) (string, error) {
	return r.PageLink(ctx, pc, l.ResourceID, l.Label)
}

func isLinkedAttachment(l Link) bool {
	return l.ResourceType == "attachment"
}

func renderLinkedAttachment(ctx context.Context, r *Resolver, pc Context, l Link) (string, error) {
	return r.AttachmentLink(ctx, pc, l)
}

func isPageURL(l Link) bool {
	_, ok := PageIDFromURL(l.Href)
	return ok
}

func renderPageURL(ctx context.Context, r *Resolver, pc Context, l Link) (string, error) {
	id, _ := PageIDFromURL(l.Href)
	return r.PageLink(ctx, pc, id, l.Label)
}

func isDisplayURL(l Link) bool {
	return displayPagePattern.MatchString(l.Href)
}

func renderDisplayURL(ctx context.Context, r *Resolver, pc Context, l Link) (string, error) {
	m := displayPagePattern.FindStringSubmatch(l.Href)
	space, title := m[1], DisplayTitle(m[2])

	id, ok := r.pages.PageIDByTitle(ctx, space, title)
	if !ok {
		return "", errors.Errorf("%s/%s: %w", space, title, errNoPageForDisplay)
	}
	return r.PageLink(ctx, pc, id, l.Label)
}

func isHeadingAnchor(l Link) bool {
	return strings.HasPrefix(l.Href, "#")
}

func renderHeadingAnchor(_ context.Context, _ *Resolver, _ Context, l Link) (string, error) {
	return "[" + l.Text + "](#" + Anchor(l.Text) + ")", nil
}
