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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidMarkdownStyle is returned for any markdown style other than GFM or Obsidian.
// It is fatal: an export run cannot recover from it page by page.
var ErrInvalidMarkdownStyle = errors.New("invalid markdown style")

// 🎨 MarkdownStyle selects how page documents are composed
type MarkdownStyle string

const (
	StyleGFM      MarkdownStyle = "GFM"
	StyleObsidian MarkdownStyle = "Obsidian"
)

// Validate reports ErrInvalidMarkdownStyle for unknown styles
func (s MarkdownStyle) Validate() error {
	switch s {
	case StyleGFM, StyleObsidian:
		return nil
	default:
		return errors.Errorf("%w: %q (expected GFM or Obsidian)", ErrInvalidMarkdownStyle, string(s))
	}
}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes, starting from the given defaults
	Parse(ctx context.Context, data []byte, base *Config) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🌐 ConfluenceConfig holds the content-source connection settings
type ConfluenceConfig struct {
	URL      string `json:"url" yaml:"url"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty"`
	PAT      string `json:"pat,omitempty" yaml:"pat,omitempty"`
}

// 🎫 JiraConfig holds the issue-tracker connection settings.
// Empty fields fall back to the Confluence values.
type JiraConfig struct {
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	PAT        string `json:"pat,omitempty" yaml:"pat,omitempty"`
	Cookie     string `json:"cookie,omitempty" yaml:"cookie,omitempty"`
	HostPrefix string `json:"host_prefix,omitempty" yaml:"host_prefix,omitempty"`
}

// 📦 CacheConfig sets the capacity of each memoized lookup
type CacheConfig struct {
	Spaces int `json:"spaces,omitempty" yaml:"spaces,omitempty"`
	Pages  int `json:"pages,omitempty" yaml:"pages,omitempty"`
	Issues int `json:"issues,omitempty" yaml:"issues,omitempty"`
	Titles int `json:"titles,omitempty" yaml:"titles,omitempty"`
}

// 🔧 ExportConfig controls paths and Markdown output
type ExportConfig struct {
	MarkdownStyle     MarkdownStyle `json:"markdown_style" yaml:"markdown_style"`
	PagePath          string        `json:"page_path" yaml:"page_path"`
	AttachmentPath    string        `json:"attachment_path" yaml:"attachment_path"`
	AssetsPath        string        `json:"assets_path" yaml:"assets_path"`
	OutputRoot        string        `json:"output_root,omitempty" yaml:"output_root,omitempty"`
	FrontMatterIndent int           `json:"front_matter_indent" yaml:"front_matter_indent"`
	MacrosToIgnore    []string      `json:"macros_to_ignore" yaml:"macros_to_ignore"`
	SkipPaths         []string      `json:"skip_paths,omitempty" yaml:"skip_paths,omitempty"`
	DebugBodies       bool          `json:"debug_bodies,omitempty" yaml:"debug_bodies,omitempty"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Confluence ConfluenceConfig `json:"confluence" yaml:"confluence"`
	Jira       JiraConfig       `json:"jira" yaml:"jira"`
	Export     ExportConfig     `json:"export" yaml:"export"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`

	location string
}

const (
	DefaultPagePath       = "{space_name}/{homepage_title}/{ancestor_titles}/{page_title}.md"
	DefaultAttachmentPath = "{space_name}/attachments/{attachment_id}-{attachment_title}"
	DefaultAssetsPath     = "assets"
)

// 🏭 Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Jira: JiraConfig{
			HostPrefix: "jira",
		},
		Export: ExportConfig{
			MarkdownStyle:     StyleGFM,
			PagePath:          DefaultPagePath,
			AttachmentPath:    DefaultAttachmentPath,
			AssetsPath:        DefaultAssetsPath,
			OutputRoot:        ".",
			FrontMatterIndent: 2,
			MacrosToIgnore:    []string{"qc-read-and-understood-signature-box"},
		},
		Cache: CacheConfig{
			Spaces: 100,
			Pages:  1000,
			Issues: 100,
			Titles: 10000,
		},
	}
}

// 🎯 Load loads the configuration from a file, then applies the .env file
// next to it and the process environment. An empty path loads defaults.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	cfg := Default()
	if path != "" {
		logger.Debug().Str("path", path).Msg("loading configuration")

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Errorf("reading config file: %w", err)
		}

		p := GetParser(path)
		if p == nil {
			return nil, errors.Errorf("no parser found for file: %s", path)
		}

		cfg, err = p.Parse(ctx, data, cfg)
		if err != nil {
			return nil, errors.Errorf("parsing config: %w", err)
		}
		cfg.location = path
	}

	envPath := ".env"
	if path != "" {
		envPath = filepath.Join(filepath.Dir(path), ".env")
	}
	if err := LoadEnvFile(envPath); err != nil {
		return nil, errors.Errorf("loading env file: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and fills derived defaults
func (cfg *Config) Validate() error {
	if err := cfg.Export.MarkdownStyle.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Export.PagePath) == "" {
		return errors.Errorf("export.page_path is required")
	}
	if strings.TrimSpace(cfg.Export.AttachmentPath) == "" {
		return errors.Errorf("export.attachment_path is required")
	}
	if cfg.Export.AssetsPath == "" {
		cfg.Export.AssetsPath = DefaultAssetsPath
	}
	if cfg.Export.FrontMatterIndent <= 0 {
		cfg.Export.FrontMatterIndent = 2
	}
	if cfg.Export.OutputRoot == "" {
		cfg.Export.OutputRoot = "."
	}
	if cfg.Jira.HostPrefix == "" {
		cfg.Jira.HostPrefix = "jira"
	}

	defaults := Default().Cache
	if cfg.Cache.Spaces <= 0 {
		cfg.Cache.Spaces = defaults.Spaces
	}
	if cfg.Cache.Pages <= 0 {
		cfg.Cache.Pages = defaults.Pages
	}
	if cfg.Cache.Issues <= 0 {
		cfg.Cache.Issues = defaults.Issues
	}
	if cfg.Cache.Titles <= 0 {
		cfg.Cache.Titles = defaults.Titles
	}

	cfg.Confluence.URL = strings.TrimRight(cfg.Confluence.URL, "/")
	cfg.Jira.URL = strings.TrimRight(cfg.Jira.URL, "/")

	return nil
}

// 🔐 ValidateAuth checks that the remote connection can be authenticated.
// Only commands that reach the network call it.
func (cfg *Config) ValidateAuth() error {
	if cfg.Confluence.URL == "" {
		return errors.Errorf("confluence.url (ATLASSIAN_URL) is required")
	}
	if cfg.Confluence.PAT != "" {
		return nil
	}
	if cfg.Confluence.Username != "" && cfg.Confluence.APIToken != "" {
		return nil
	}
	return errors.Errorf("either ATLASSIAN_PAT or both ATLASSIAN_USERNAME and ATLASSIAN_API_TOKEN must be set")
}

// JiraURL returns the issue-tracker base URL, defaulting to the Confluence URL
func (cfg *Config) JiraURL() string {
	if cfg.Jira.URL != "" {
		return cfg.Jira.URL
	}
	return cfg.Confluence.URL
}

// Location returns the file the config was loaded from, if any
func (cfg *Config) Location() string {
	return cfg.location
}

// 🙈 Masked returns a copy with secrets replaced, for printing
func (cfg *Config) Masked() *Config {
	out := *cfg
	out.Export.MacrosToIgnore = append([]string(nil), cfg.Export.MacrosToIgnore...)
	out.Export.SkipPaths = append([]string(nil), cfg.Export.SkipPaths...)
	out.Confluence.APIToken = mask(cfg.Confluence.APIToken)
	out.Confluence.PAT = mask(cfg.Confluence.PAT)
	out.Jira.PAT = mask(cfg.Jira.PAT)
	out.Jira.Cookie = mask(cfg.Jira.Cookie)
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "****"
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s [%s] pages=%q attachments=%q", cfg.Confluence.URL, cfg.Export.MarkdownStyle, cfg.Export.PagePath, cfg.Export.AttachmentPath)
}
