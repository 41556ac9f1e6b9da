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

package model

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/walteh/confexport/pkg/remote"
)

// 🏠 Space is a wiki space
type Space struct {
	Key         string
	Name        string
	Description string
	HomepageID  string
}

// NewSpace builds a Space from its API shape
func NewSpace(s *remote.SpaceJSON) Space {
	space := Space{Key: s.Key, Name: s.Name}
	if s.Description != nil {
		space.Description = s.Description.Plain.Value
	}
	if s.Homepage != nil {
		space.HomepageID = s.Homepage.ID
	}
	return space
}

// 🏷️ Label is a tag attached to a page
type Label struct {
	ID     string
	Name   string
	Prefix string
}

// 📄 Document is the part shared by pages and attachments: what path
// templates need to place them
type Document struct {
	Title string
	Space Space
	// Ancestors are page ids from just below the space root down to the parent
	Ancestors []string
}

// Doc returns the shared document fields
func (d *Document) Doc() *Document {
	return d
}

// Templated is implemented by everything that has an export path
type Templated interface {
	Doc() *Document
}

// 📎 Attachment is a file attached to a page
type Attachment struct {
	Document

	ID                   string
	FileSize             int64
	MediaType            string
	MediaTypeDescription string
	FileID               string
	CollectionName       string
	DownloadLink         string
	Comment              string
	// ContainerID is the page the attachment belongs to
	ContainerID string
}

const (
	drawioComment        = "draw.io diagram"
	drawioPreviewComment = "draw.io preview"
	drawioMediaType      = "application/vnd.jgraph.mxfile"
)

// Extension returns the file extension including the leading dot, or ""
func (a *Attachment) Extension() string {
	if a.Comment == drawioComment && a.MediaType == drawioMediaType {
		return ".drawio"
	}
	if a.Comment == drawioPreviewComment && a.MediaType == "image/png" {
		return ".drawio.png"
	}
	return ExtensionForMediaType(a.MediaType)
}

// Filename is the canonical file name: file id plus extension
func (a *Attachment) Filename() string {
	return a.FileID + a.Extension()
}

// ExtensionForMediaType maps a media type (parameters allowed) to an extension, or ""
func ExtensionForMediaType(mediaType string) string {
	mediaType, _, _ = strings.Cut(mediaType, ";")
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	m := mimetype.Lookup(mediaType)
	if m == nil {
		return ""
	}
	return m.Extension()
}

// NewAttachment builds an Attachment. Its ancestors are the container's
// ancestors plus the container itself, without the space root.
func NewAttachment(c remote.ContentJSON, space Space) Attachment {
	var chain []string
	containerID := ""
	if c.Container != nil {
		chain = append(chain, c.Container.AncestorIDs()...)
		containerID = c.Container.ID
		chain = append(chain, containerID)
	}

	return Attachment{
		Document: Document{
			Title:     c.Title,
			Space:     space,
			Ancestors: dropRoot(chain),
		},
		ID:                   c.ID,
		FileSize:             c.Extensions.FileSize,
		MediaType:            c.Extensions.MediaType,
		MediaTypeDescription: c.Extensions.MediaTypeDescription,
		FileID:               c.Extensions.FileID,
		CollectionName:       c.Extensions.CollectionName,
		DownloadLink:         c.Links.Download,
		Comment:              c.Extensions.Comment,
		ContainerID:          containerID,
	}
}

// 📃 Page is a wiki page with its rendered bodies
type Page struct {
	Document

	ID string
	// Body is the interactive view rendering
	Body string
	// BodyExport is the export view rendering, used for TOCs and issue tables
	BodyExport string
	// Editor2 is the legacy editor markup
	Editor2     string
	Labels      []Label
	Attachments []Attachment
}

// NewPage builds a Page. Its ancestors exclude the space root.
func NewPage(c *remote.ContentJSON, space Space, attachments []Attachment) *Page {
	labels := make([]Label, 0, len(c.Metadata.Labels.Results))
	for _, l := range c.Metadata.Labels.Results {
		labels = append(labels, Label{ID: l.ID, Name: l.Name, Prefix: l.Prefix})
	}

	return &Page{
		Document: Document{
			Title:     c.Title,
			Space:     space,
			Ancestors: dropRoot(c.AncestorIDs()),
		},
		ID:          c.ID,
		Body:        c.Body.View.Value,
		BodyExport:  c.Body.ExportView.Value,
		Editor2:     c.Body.Editor2.Value,
		Labels:      labels,
		Attachments: attachments,
	}
}

// AttachmentByID finds an attachment by its content id
func (p *Page) AttachmentByID(id string) (*Attachment, bool) {
	for i := range p.Attachments {
		if p.Attachments[i].ID == id {
			return &p.Attachments[i], true
		}
	}
	return nil, false
}

// AttachmentByFileID finds an attachment by its opaque file id
func (p *Page) AttachmentByFileID(fileID string) (*Attachment, bool) {
	for i := range p.Attachments {
		if p.Attachments[i].FileID == fileID {
			return &p.Attachments[i], true
		}
	}
	return nil, false
}

// AttachmentsByTitle returns every attachment with exactly this title
func (p *Page) AttachmentsByTitle(title string) []*Attachment {
	var out []*Attachment
	for i := range p.Attachments {
		if p.Attachments[i].Title == title {
			out = append(out, &p.Attachments[i])
		}
	}
	return out
}

// 🎫 Issue is a tracker issue referenced from a page
type Issue struct {
	Key         string
	Summary     string
	Description string
	Status      string
}

// NewIssue builds an Issue from its API shape
func NewIssue(i *remote.IssueJSON) *Issue {
	issue := &Issue{
		Key:     i.Key,
		Summary: i.Fields.Summary,
		Status:  i.Fields.Status.Name,
	}
	if i.Fields.Description != nil {
		issue.Description = *i.Fields.Description
	}
	return issue
}

func dropRoot(ids []string) []string {
	if len(ids) <= 1 {
		return []string{}
	}
	return append([]string{}, ids[1:]...)
}
