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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/confexport/cmd/confexport/opts"
)

func resetFlags() {
	configFile, outputRoot, debug, noProgress = "", "", false, false
}

func execute(t *testing.T, args ...string) (string, *opts.RootOpts, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	for _, key := range []string{"ATLASSIAN_URL", "ATLASSIAN_USERNAME", "ATLASSIAN_API_TOKEN", "ATLASSIAN_PAT", "OUTPUT_ROOT_PATH", "MARKDOWN_STYLE"} {
		t.Setenv(key, "")
	}

	o := &opts.RootOpts{}
	cmd := newRootCmd(o)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), o, err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "confexport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing config file")
	return path
}

func TestConfigCmd(t *testing.T) {
	path := writeConfig(t, `
confluence:
  url: https://wiki.example.com/
  pat: secret-token
export:
  markdown_style: Obsidian
`)

	out, o, err := execute(t, "config", "--config", path, "--output", "out")
	require.NoError(t, err, "running config command")

	assert.Contains(t, out, "# "+path, "config location is printed")
	assert.Contains(t, out, "url: https://wiki.example.com\n", "trailing slash is trimmed")
	assert.Contains(t, out, "****", "pat is masked")
	assert.NotContains(t, out, "secret-token", "secret never printed")
	assert.Contains(t, out, "markdown_style: Obsidian", "style from file")

	require.NotNil(t, o.Config, "options loaded")
	assert.True(t, filepath.IsAbs(o.Config.Export.OutputRoot), "output root is absolute")
	assert.Equal(t, "out", filepath.Base(o.Config.Export.OutputRoot), "output flag wins")
	assert.True(t, o.Progress, "progress bar on by default")
}

func TestRootErrors(t *testing.T) {
	tests := []struct {
		name        string
		args        func(t *testing.T) []string
		errContains string
	}{
		{
			name: "invalid_config",
			args: func(t *testing.T) []string {
				return []string{"config", "--config", writeConfig(t, "invalid: yaml: :")}
			},
			errContains: "parsing config",
		},
		{
			name: "invalid_markdown_style",
			args: func(t *testing.T) []string {
				return []string{"config", "--config", writeConfig(t, "export:\n  markdown_style: Wiki\n")}
			},
			errContains: "invalid markdown style",
		},
		{
			name: "export_requires_credentials",
			args: func(t *testing.T) []string {
				return []string{"pages", "1", "--config", writeConfig(t, "confluence:\n  url: https://wiki.example.com\n"), "--no-progress"}
			},
			errContains: "validating credentials",
		},
		{
			name: "pages_requires_arguments",
			args: func(t *testing.T) []string {
				return []string{"pages"}
			},
			errContains: "requires at least 1 arg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args(t)...)
			require.Error(t, err, "command should fail")
			assert.Contains(t, err.Error(), tt.errContains, "error message")
		})
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err, "running version command")
	assert.True(t, strings.HasPrefix(out, "🚀 confexport "), "version header")

	out, _, err = execute(t, "version", "--short")
	require.NoError(t, err, "running version --short")
	assert.NotContains(t, out, "platform:", "short output should be one line")
}

func TestBuildVersion(t *testing.T) {
	tests := []struct {
		name      string
		v         buildVersion
		wantShort string
		wantLong  []string
		notLong   []string
	}{
		{
			name:      "modified_checkout",
			v:         buildVersion{Version: "v1.2.3", Revision: "abcdef0123456789", Modified: true, Time: "2025-01-02T03:04:05Z", GoVersion: "go1.24", Platform: "linux/amd64"},
			wantShort: "v1.2.3 (abcdef0*)",
			wantLong:  []string{"🚀 confexport v1.2.3", "revision: abcdef0123456789 (modified)", "built:    2025-01-02T03:04:05Z", "platform: linux/amd64"},
		},
		{
			name:      "no_vcs_info",
			v:         buildVersion{Version: "dev", GoVersion: "go1.24", Platform: "darwin/arm64"},
			wantShort: "dev",
			wantLong:  []string{"go:       go1.24"},
			notLong:   []string{"revision:", "built:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantShort, tt.v.Short(), "short version")
			long := tt.v.Long()
			for _, s := range tt.wantLong {
				assert.Contains(t, long, s, "long version")
			}
			for _, s := range tt.notLong {
				assert.NotContains(t, long, s, "long version")
			}
		})
	}
}
