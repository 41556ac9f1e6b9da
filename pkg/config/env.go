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
	"io/fs"
	"os"
	"strconv"

	"github.com/subosito/gotenv"
	"gitlab.com/tozd/go/errors"
)

// LookupFunc matches os.LookupEnv
type LookupFunc func(key string) (string, bool)

// 🌍 ApplyEnv overlays environment variables onto the config.
// Set variables win over file values.
func (cfg *Config) ApplyEnv(lookup LookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("ATLASSIAN_URL", &cfg.Confluence.URL)
	str("ATLASSIAN_USERNAME", &cfg.Confluence.Username)
	str("ATLASSIAN_API_TOKEN", &cfg.Confluence.APIToken)
	str("ATLASSIAN_PAT", &cfg.Confluence.PAT)

	str("JIRA_URL", &cfg.Jira.URL)
	str("JIRA_PAT_TOKEN", &cfg.Jira.PAT)
	str("JIRA_COOKIE", &cfg.Jira.Cookie)

	if v, ok := lookup("MARKDOWN_STYLE"); ok && v != "" {
		cfg.Export.MarkdownStyle = MarkdownStyle(v)
	}
	str("PAGE_PATH", &cfg.Export.PagePath)
	str("ATTACHMENT_PATH", &cfg.Export.AttachmentPath)
	str("OUTPUT_ROOT_PATH", &cfg.Export.OutputRoot)

	// any non-empty value other than an explicit false turns debugging on
	if v, ok := lookup("DEBUG"); ok && v != "" {
		on, err := strconv.ParseBool(v)
		cfg.Export.DebugBodies = err != nil || on
	}
}

// 📄 LoadEnvFile reads a .env file and sets the variables not already
// present in the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Errorf("checking env file %s: %w", path, err)
	}

	if err := gotenv.Load(path); err != nil {
		return errors.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}
