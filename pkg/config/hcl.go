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

package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL.
// Expressions may reference the process environment as env.NAME.
func (p *HCLParser) Parse(ctx context.Context, data []byte, base *Config) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(),
		},
	}

	type hclConfig struct {
		Confluence *struct {
			URL      *string `hcl:"url,optional"`
			Username *string `hcl:"username,optional"`
			APIToken *string `hcl:"api_token,optional"`
			PAT      *string `hcl:"pat,optional"`
		} `hcl:"confluence,block"`
		Jira *struct {
			URL        *string `hcl:"url,optional"`
			PAT        *string `hcl:"pat,optional"`
			Cookie     *string `hcl:"cookie,optional"`
			HostPrefix *string `hcl:"host_prefix,optional"`
		} `hcl:"jira,block"`
		Export *struct {
			MarkdownStyle     *string  `hcl:"markdown_style,optional"`
			PagePath          *string  `hcl:"page_path,optional"`
			AttachmentPath    *string  `hcl:"attachment_path,optional"`
			AssetsPath        *string  `hcl:"assets_path,optional"`
			OutputRoot        *string  `hcl:"output_root,optional"`
			FrontMatterIndent *int     `hcl:"front_matter_indent,optional"`
			MacrosToIgnore    []string `hcl:"macros_to_ignore,optional"`
			SkipPaths         []string `hcl:"skip_paths,optional"`
			DebugBodies       *bool    `hcl:"debug_bodies,optional"`
		} `hcl:"export,block"`
		Cache *struct {
			Spaces *int `hcl:"spaces,optional"`
			Pages  *int `hcl:"pages,optional"`
			Issues *int `hcl:"issues,optional"`
			Titles *int `hcl:"titles,optional"`
		} `hcl:"cache,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := Default()
	if base != nil {
		c := *base
		cfg = &c
	}

	if b := hclCfg.Confluence; b != nil {
		setString(&cfg.Confluence.URL, b.URL)
		setString(&cfg.Confluence.Username, b.Username)
		setString(&cfg.Confluence.APIToken, b.APIToken)
		setString(&cfg.Confluence.PAT, b.PAT)
	}

	if b := hclCfg.Jira; b != nil {
		setString(&cfg.Jira.URL, b.URL)
		setString(&cfg.Jira.PAT, b.PAT)
		setString(&cfg.Jira.Cookie, b.Cookie)
		setString(&cfg.Jira.HostPrefix, b.HostPrefix)
	}

	if b := hclCfg.Export; b != nil {
		if b.MarkdownStyle != nil {
			cfg.Export.MarkdownStyle = MarkdownStyle(*b.MarkdownStyle)
		}
		setString(&cfg.Export.PagePath, b.PagePath)
		setString(&cfg.Export.AttachmentPath, b.AttachmentPath)
		setString(&cfg.Export.AssetsPath, b.AssetsPath)
		setString(&cfg.Export.OutputRoot, b.OutputRoot)
		setInt(&cfg.Export.FrontMatterIndent, b.FrontMatterIndent)
		if b.MacrosToIgnore != nil {
			cfg.Export.MacrosToIgnore = b.MacrosToIgnore
		}
		if b.SkipPaths != nil {
			cfg.Export.SkipPaths = b.SkipPaths
		}
		if b.DebugBodies != nil {
			cfg.Export.DebugBodies = *b.DebugBodies
		}
	}

	if b := hclCfg.Cache; b != nil {
		setInt(&cfg.Cache.Spaces, b.Spaces)
		setInt(&cfg.Cache.Pages, b.Pages)
		setInt(&cfg.Cache.Issues, b.Issues)
		setInt(&cfg.Cache.Titles, b.Titles)
	}

	return cfg, nil
}

func envObject() cty.Value {
	vals := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vals[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vals)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
