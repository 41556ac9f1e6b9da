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

package export

import (
	"context"

	"github.com/walteh/confexport/pkg/asset"
	"github.com/walteh/confexport/pkg/config"
	"github.com/walteh/confexport/pkg/convert"
	"github.com/walteh/confexport/pkg/lookup"
	"github.com/walteh/confexport/pkg/pathtmpl"
	"github.com/walteh/confexport/pkg/reference"
	"github.com/walteh/confexport/pkg/remote"
	"github.com/walteh/confexport/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Backends are the remote collaborators an export reads from
type Backends struct {
	Source  remote.ContentSource
	Tracker remote.IssueTracker
	// TrackerFetcher downloads images hosted on the tracker; nil uses Source
	TrackerFetcher remote.Fetcher
}

// 🧩 Stack is a fully wired export pipeline
type Stack struct {
	Repository *lookup.Repository
	Paths      *pathtmpl.Resolver
	Assets     *asset.Resolver
	References *reference.Resolver
	Converter  *convert.Converter
	Exporter   *Exporter
}

// 🏭 Build wires the lookup, path, asset, reference and conversion layers
// for cfg and returns the exporter on top of them
func Build(ctx context.Context, cfg *config.Config, backends Backends, reporter Reporter) (*Stack, error) {
	if cfg == nil {
		return nil, errors.Errorf("config is required")
	}
	if backends.Source == nil {
		return nil, errors.Errorf("content source is required")
	}
	if backends.Tracker == nil {
		return nil, errors.Errorf("issue tracker is required")
	}
	if err := cfg.Export.MarkdownStyle.Validate(); err != nil {
		return nil, err
	}

	repo, err := lookup.New(backends.Source, backends.Tracker, cfg.Cache)
	if err != nil {
		return nil, errors.Errorf("creating repository: %w", err)
	}

	ws := workspace.New(cfg.Export.OutputRoot, cfg.Export.AssetsPath)
	paths := pathtmpl.New(repo, cfg.Export.PagePath, cfg.Export.AttachmentPath)

	trackerFetcher := backends.TrackerFetcher
	if trackerFetcher == nil {
		trackerFetcher = backends.Source
	}

	assets := asset.New(asset.Options{
		Workspace:         ws,
		Pages:             repo,
		Paths:             paths,
		Source:            backends.Source,
		BaseURL:           backends.Source.BaseURL(),
		Tracker:           trackerFetcher,
		TrackerHostPrefix: cfg.Jira.HostPrefix,
	})
	refs := reference.New(repo, paths, assets)
	conv := convert.New(convert.OptionsFromConfig(cfg.Export), refs, assets, repo)

	exp, err := New(Options{
		Workspace:   ws,
		Repository:  repo,
		Paths:       paths,
		Converter:   conv,
		Attachments: assets,
		Reporter:    reporter,
		SkipPaths:   cfg.Export.SkipPaths,
		DebugBodies: cfg.Export.DebugBodies,
	})
	if err != nil {
		return nil, err
	}

	return &Stack{
		Repository: repo,
		Paths:      paths,
		Assets:     assets,
		References: refs,
		Converter:  conv,
		Exporter:   exp,
	}, nil
}
