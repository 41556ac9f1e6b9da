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

package remotetest

import (
	"sort"

	"github.com/walteh/confexport/pkg/remote"
)

// Space builds a SpaceJSON with an optional homepage id
func Space(key, name, homepageID string) *remote.SpaceJSON {
	sp := &remote.SpaceJSON{Key: key, Name: name}
	if homepageID != "" {
		sp.Homepage = &remote.ContentJSON{ID: homepageID}
	}
	return sp
}

// Page builds a ContentJSON page in space with the given view body and ancestor ids (root first)
func Page(id, title, space, body string, ancestors ...string) *remote.ContentJSON {
	p := &remote.ContentJSON{ID: id, Type: "page", Title: title}
	p.Expandable.Space = "/rest/api/space/" + space
	p.Body.View.Value = body
	for _, a := range ancestors {
		p.Ancestors = append(p.Ancestors, remote.ContentJSON{ID: a})
	}
	return p
}

// Attachment builds a ContentJSON attachment whose container is containerID
// with the container's own ancestors
func Attachment(id, title, space, fileID, mediaType, containerID string, containerAncestors ...string) remote.ContentJSON {
	a := remote.ContentJSON{ID: id, Type: "attachment", Title: title}
	a.Expandable.Space = "/rest/api/space/" + space
	a.Extensions.FileID = fileID
	a.Extensions.MediaType = mediaType
	a.Links.Download = "/download/attachments/" + containerID + "/" + title
	container := &remote.ContentJSON{ID: containerID}
	for _, anc := range containerAncestors {
		container.Ancestors = append(container.Ancestors, remote.ContentJSON{ID: anc})
	}
	a.Container = container
	return a
}

// Hit builds a search result pointing at a content id
func Hit(id string) remote.SearchResultJSON {
	return remote.SearchResultJSON{Content: remote.ContentJSON{ID: id}}
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
