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

package convert

import (
	"bytes"
	"strings"

	"github.com/walteh/confexport/pkg/pathtmpl"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🏷️ Properties is the front-matter mapping collected during conversion
type Properties map[string]any

// Set stores value under the sanitized key. Empty values are ignored.
func (p Properties) Set(key string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		if v == "" {
			return
		}
	case []string:
		if len(v) == 0 {
			return
		}
	}
	p[pathtmpl.SanitizeKey(key, "_")] = value
}

// FrontMatter renders the mapping as a YAML block between --- lines, with
// keys sorted. An empty mapping renders nothing.
func (p Properties) FrontMatter(indent int) (string, error) {
	if len(p) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(map[string]any(p)); err != nil {
		return "", errors.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", errors.Errorf("encoding front matter: %w", err)
	}

	return "---\n" + strings.TrimSpace(buf.String()) + "\n---\n", nil
}
