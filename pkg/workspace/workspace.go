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

// Package workspace is the export context threaded through every call that
// resolves output paths or writes files.
package workspace

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/walteh/confexport/pkg/status"
)

const (
	// CacheDir holds the page-id cache and the progress log
	CacheDir = ".cache"
)

// 📁 Workspace is one export root
type Workspace struct {
	root   string
	assets string
	files  *status.Manager
}

// New creates a workspace rooted at root with content-hash assets under assetsPath
func New(root, assetsPath string) *Workspace {
	if assetsPath == "" {
		assetsPath = "assets"
	}
	return &Workspace{
		root:   filepath.Clean(root),
		assets: path.Clean(filepath.ToSlash(assetsPath)),
		files:  status.New(root),
	}
}

// Root returns the output root
func (w *Workspace) Root() string {
	return w.root
}

// Files returns the file manager rooted at the output root
func (w *Workspace) Files() *status.Manager {
	return w.files
}

// AssetsDir returns the assets directory relative to the root
func (w *Workspace) AssetsDir() string {
	return w.assets
}

// AssetPath returns the root-relative path of an asset file
func (w *Workspace) AssetPath(name string) string {
	return path.Join(w.assets, name)
}

// CachePath returns the root-relative path of a cache file
func (w *Workspace) CachePath(name string) string {
	return path.Join(CacheDir, name)
}

// Link returns target relative to the directory of from, both root-relative,
// slash-separated and with spaces encoded as %20
func Link(from, target string) string {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(from)), filepath.FromSlash(target))
	if err != nil {
		rel = target
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), " ", "%20")
}
