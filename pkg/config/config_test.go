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
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

var envKeys = []string{
	"ATLASSIAN_URL", "ATLASSIAN_USERNAME", "ATLASSIAN_API_TOKEN", "ATLASSIAN_PAT",
	"JIRA_URL", "JIRA_PAT_TOKEN", "JIRA_COOKIE",
	"MARKDOWN_STYLE", "PAGE_PATH", "ATTACHMENT_PATH", "OUTPUT_ROOT_PATH", "DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		config      string
		wantErr     bool
		errIs       error
		errContains string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:     "yaml_full_config",
			filename: "confexport.yaml",
			config: `
confluence:
  url: https://example.atlassian.net/
  username: me@example.com
  api_token: secret
export:
  markdown_style: Obsidian
  page_path: "{space_key}/{page_title}.md"
  macros_to_ignore: [foo, bar]
  skip_paths: ["ARCHIVE/**"]
cache:
  pages: 5
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://example.atlassian.net", cfg.Confluence.URL, "url should have trailing slash trimmed")
				assert.Equal(t, "me@example.com", cfg.Confluence.Username, "username should match")
				assert.Equal(t, StyleObsidian, cfg.Export.MarkdownStyle, "style should match")
				assert.Equal(t, "{space_key}/{page_title}.md", cfg.Export.PagePath, "page path should match")
				assert.Equal(t, DefaultAttachmentPath, cfg.Export.AttachmentPath, "attachment path should keep default")
				assert.Equal(t, []string{"foo", "bar"}, cfg.Export.MacrosToIgnore, "macros should match")
				assert.Equal(t, []string{"ARCHIVE/**"}, cfg.Export.SkipPaths, "skip paths should match")
				assert.Equal(t, 5, cfg.Cache.Pages, "page cache should match")
				assert.Equal(t, 100, cfg.Cache.Spaces, "space cache should keep default")
			},
		},
		{
			name:     "yaml_minimal_config",
			filename: "confexport.yml",
			config: `
confluence:
  url: https://wiki.example.com
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StyleGFM, cfg.Export.MarkdownStyle, "style should default to GFM")
				assert.Equal(t, DefaultPagePath, cfg.Export.PagePath, "page path should keep default")
				assert.Equal(t, "assets", cfg.Export.AssetsPath, "assets path should keep default")
				assert.Equal(t, 2, cfg.Export.FrontMatterIndent, "indent should default to 2")
				assert.Equal(t, []string{"qc-read-and-understood-signature-box"}, cfg.Export.MacrosToIgnore, "macros should keep default")
				assert.Equal(t, "jira", cfg.Jira.HostPrefix, "host prefix should default")
			},
		},
		{
			name:     "yaml_unknown_field",
			filename: "confexport.yaml",
			config: `
confluence:
  url: https://wiki.example.com
  colour: blue
`,
			wantErr:     true,
			errContains: "parsing YAML",
		},
		{
			name:     "invalid_markdown_style",
			filename: "confexport.yaml",
			config: `
export:
  markdown_style: RST
`,
			wantErr: true,
			errIs:   ErrInvalidMarkdownStyle,
		},
		{
			name:     "empty_page_path",
			filename: "confexport.yaml",
			config: `
export:
  page_path: "  "
`,
			wantErr:     true,
			errContains: "export.page_path is required",
		},
		{
			name:     "hcl_config",
			filename: "confexport.hcl",
			config: `
confluence {
  url = "https://wiki.example.com"
  pat = "token"
}

jira {
  url = "https://jira.example.com"
}

export {
  markdown_style = "Obsidian"
  output_root    = "out"
  debug_bodies   = true
}
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://wiki.example.com", cfg.Confluence.URL, "url should match")
				assert.Equal(t, "token", cfg.Confluence.PAT, "pat should match")
				assert.Equal(t, "https://jira.example.com", cfg.JiraURL(), "jira url should match")
				assert.Equal(t, StyleObsidian, cfg.Export.MarkdownStyle, "style should match")
				assert.Equal(t, "out", cfg.Export.OutputRoot, "output root should match")
				assert.True(t, cfg.Export.DebugBodies, "debug bodies should be set")
				assert.Equal(t, DefaultPagePath, cfg.Export.PagePath, "page path should keep default")
			},
		},
		{
			name:        "hcl_syntax_error",
			filename:    "confexport.hcl",
			config:      `confluence {`,
			wantErr:     true,
			errContains: "parsing HCL",
		},
		{
			name:     "json_config",
			filename: "confexport.json",
			config:   `{"confluence": {"url": "https://wiki.example.com"}, "export": {"assets_path": "img"}}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "img", cfg.Export.AssetsPath, "assets path should match")
				assert.Equal(t, StyleGFM, cfg.Export.MarkdownStyle, "style should keep default")
			},
		},
		{
			name:        "json_unknown_field",
			filename:    "confexport.json",
			config:      `{"nope": true}`,
			wantErr:     true,
			errContains: "parsing JSON",
		},
		{
			name:        "unsupported_extension",
			filename:    "confexport.toml",
			config:      `x = 1`,
			wantErr:     true,
			errContains: "no parser found",
		},
	}

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, tt.filename)
			err := os.WriteFile(configPath, []byte(tt.config), 0644)
			require.NoError(t, err, "writing config file should succeed")

			cfg, err := Load(ctx, configPath)
			if tt.wantErr {
				require.Error(t, err, "Load should return error")
				if tt.errIs != nil {
					assert.True(t, errors.Is(err, tt.errIs), "error should wrap %v", tt.errIs)
				}
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains, "error should contain expected message")
				}
				return
			}

			require.NoError(t, err, "Load should succeed")
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "confexport.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("confluence:\n  url: https://file.example.com\n"), 0644), "writing config should succeed")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(`
# comment
export ATLASSIAN_PAT="from-dotenv"
MARKDOWN_STYLE=Obsidian
ATLASSIAN_URL=https://dotenv.example.com
`), 0644), "writing env file should succeed")

	t.Setenv("ATLASSIAN_URL", "https://process.example.com")
	t.Setenv("PAGE_PATH", "{page_id}.md")
	t.Setenv("DEBUG", "true")

	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	cfg, err := Load(ctx, configPath)
	require.NoError(t, err, "Load should succeed")

	assert.Equal(t, "https://process.example.com", cfg.Confluence.URL, "process env should win over .env and file")
	assert.Equal(t, "from-dotenv", cfg.Confluence.PAT, ".env should fill unset variables")
	assert.Equal(t, StyleObsidian, cfg.Export.MarkdownStyle, "style should come from .env")
	assert.Equal(t, "{page_id}.md", cfg.Export.PagePath, "page path should come from env")
	assert.True(t, cfg.Export.DebugBodies, "DEBUG should enable body dumps")
	assert.NoError(t, cfg.ValidateAuth(), "PAT should satisfy auth")
}

func TestValidateAuth(t *testing.T) {
	tests := []struct {
		name    string
		conf    ConfluenceConfig
		wantErr bool
	}{
		{name: "missing_url", conf: ConfluenceConfig{PAT: "x"}, wantErr: true},
		{name: "pat", conf: ConfluenceConfig{URL: "https://x", PAT: "x"}},
		{name: "basic", conf: ConfluenceConfig{URL: "https://x", Username: "u", APIToken: "t"}},
		{name: "username_without_token", conf: ConfluenceConfig{URL: "https://x", Username: "u"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Confluence = tt.conf
			err := cfg.ValidateAuth()
			if tt.wantErr {
				assert.Error(t, err, "ValidateAuth should fail")
				return
			}
			assert.NoError(t, err, "ValidateAuth should succeed")
		})
	}
}

func TestMasked(t *testing.T) {
	cfg := Default()
	cfg.Confluence.APIToken = "secret"
	cfg.Jira.Cookie = "session=abc"

	masked := cfg.Masked()
	assert.Equal(t, "****", masked.Confluence.APIToken, "token should be masked")
	assert.Equal(t, "****", masked.Jira.Cookie, "cookie should be masked")
	assert.Empty(t, masked.Confluence.PAT, "empty secrets should stay empty")
	assert.Equal(t, "secret", cfg.Confluence.APIToken, "original should be untouched")
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	t.Run("missing_file", func(t *testing.T) {
		err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"))
		assert.NoError(t, err, "missing .env should be ignored")
	})

	t.Run("quoted_and_commented_values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte(`# credentials
export JIRA_URL='https://jira.example.com'
JIRA_COOKIE="session=abc"
ATTACHMENT_PATH=assets/{attachment_file_id}
OUTPUT_ROOT_PATH=kept
`), 0644), "writing env file should succeed")

		t.Setenv("OUTPUT_ROOT_PATH", "from-process")

		require.NoError(t, LoadEnvFile(path), "LoadEnvFile should succeed")
		assert.Equal(t, "https://jira.example.com", os.Getenv("JIRA_URL"), "single quotes should be stripped")
		assert.Equal(t, "session=abc", os.Getenv("JIRA_COOKIE"), "equals sign inside quotes should survive")
		assert.Equal(t, "assets/{attachment_file_id}", os.Getenv("ATTACHMENT_PATH"), "unquoted values should load")
		assert.Equal(t, "from-process", os.Getenv("OUTPUT_ROOT_PATH"), "set variables should not be overridden")
	})
}

func TestApplyEnvDebug(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "", want: false},
		{value: "1", want: true},
		{value: "true", want: true},
		{value: "yes", want: true},
		{value: "on", want: true},
		{value: "false", want: false},
		{value: "0", want: false},
	}

	for _, tt := range tests {
		t.Run("debug_"+tt.value, func(t *testing.T) {
			cfg := Default()
			cfg.ApplyEnv(func(key string) (string, bool) {
				if key == "DEBUG" {
					return tt.value, true
				}
				return "", false
			})
			assert.Equal(t, tt.want, cfg.Export.DebugBodies, "DEBUG=%q", tt.value)
		})
	}
}
