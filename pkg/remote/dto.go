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
	"encoding/json"
	"strings"
)

// SpaceJSON is a space as returned by /rest/api/space
type SpaceJSON struct {
	ID          json.Number  `json:"id,omitempty"`
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	Description *Description `json:"description,omitempty"`
	Homepage    *ContentJSON `json:"homepage,omitempty"`
}

// Description holds the plain representation of a space description
type Description struct {
	Plain struct {
		Value string `json:"value"`
	} `json:"plain"`
}

// BodyValue is one rendered representation of a page body
type BodyValue struct {
	Value          string `json:"value"`
	Representation string `json:"representation,omitempty"`
}

// LabelJSON is a content label
type LabelJSON struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// ContentJSON is a page or attachment as returned by /rest/api/content
type ContentJSON struct {
	ID     string `json:"id"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	Title  string `json:"title"`

	Space *SpaceJSON `json:"space,omitempty"`

	Body struct {
		View       BodyValue `json:"view"`
		ExportView BodyValue `json:"export_view"`
		Editor2    BodyValue `json:"editor2"`
	} `json:"body"`

	Metadata struct {
		Labels struct {
			Results []LabelJSON `json:"results"`
		} `json:"labels"`
	} `json:"metadata"`

	Ancestors []ContentJSON `json:"ancestors,omitempty"`
	Container *ContentJSON  `json:"container,omitempty"`

	Extensions struct {
		MediaType            string `json:"mediaType"`
		MediaTypeDescription string `json:"mediaTypeDescription"`
		FileSize             int64  `json:"fileSize"`
		FileID               string `json:"fileId"`
		CollectionName       string `json:"collectionName"`
		Comment              string `json:"comment"`
	} `json:"extensions"`

	Links struct {
		WebUI    string `json:"webui,omitempty"`
		Download string `json:"download,omitempty"`
	} `json:"_links"`

	Expandable struct {
		Space string `json:"space,omitempty"`
	} `json:"_expandable"`
}

// SpaceKey returns the owning space key, from the expanded space or the
// trailing segment of the _expandable space link
func (c *ContentJSON) SpaceKey() string {
	if c.Space != nil && c.Space.Key != "" {
		return c.Space.Key
	}
	link := strings.TrimRight(c.Expandable.Space, "/")
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}

// AncestorIDs returns the ids of the ancestor chain, root first
func (c *ContentJSON) AncestorIDs() []string {
	ids := make([]string, 0, len(c.Ancestors))
	for _, a := range c.Ancestors {
		ids = append(ids, a.ID)
	}
	return ids
}

// SearchResultJSON is one /rest/api/search hit
type SearchResultJSON struct {
	Content ContentJSON `json:"content"`
	Title   string      `json:"title,omitempty"`
	URL     string      `json:"url,omitempty"`
}

// IssueJSON is an issue as returned by /rest/api/2/issue
type IssueJSON struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string  `json:"summary"`
		Description *string `json:"description"`
		Status      struct {
			Name string `json:"name"`
		} `json:"status"`
	} `json:"fields"`
}
