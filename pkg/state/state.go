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

package state

import (
	"bufio"
	"bytes"
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

const (
	// ProgressFile lists every page id exported so far, one per line
	ProgressFile = "processed_pages.txt"
	// PageIDFile lists the page ids of a space, one per line
	PageIDFile = "pages.txt"
)

// readIDs reads one id per line, skipping blank lines. A missing file reads as nil.
func readIDs(ctx context.Context, ws *workspace.Workspace, path string) ([]string, bool, error) {
	exists, err := ws.Files().FileExists(ctx, path)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	data, err := ws.Files().ReadFile(ctx, path)
	if err != nil {
		return nil, false, errors.Errorf("reading %s: %w", path, err)
	}

	var ids []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := string(bytes.TrimSpace(scanner.Bytes())); line != "" {
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, errors.Errorf("scanning %s: %w", path, err)
	}
	return ids, true, nil
}

// 📒 ProgressLog is the append-only record of completed pages
type ProgressLog struct {
	ws   *workspace.Workspace
	path string
	done map[string]bool
}

// OpenProgressLog loads the completed page ids of a workspace
func OpenProgressLog(ctx context.Context, ws *workspace.Workspace) (*ProgressLog, error) {
	path := ws.CachePath(ProgressFile)

	ids, _, err := readIDs(ctx, ws, path)
	if err != nil {
		return nil, errors.Errorf("loading progress log: %w", err)
	}

	done := make(map[string]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("completed", len(done)).Msg("loaded progress log")

	return &ProgressLog{ws: ws, path: path, done: done}, nil
}

// Done reports whether id has been exported
func (l *ProgressLog) Done(id string) bool {
	return l.done[id]
}

// Len returns the number of completed pages
func (l *ProgressLog) Len() int {
	return len(l.done)
}

// Pending returns ids not yet completed, in input order
func (l *ProgressLog) Pending(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !l.done[id] {
			out = append(out, id)
		}
	}
	return out
}

// Append records id as completed
func (l *ProgressLog) Append(ctx context.Context, id string) error {
	if err := l.ws.Files().AppendLine(ctx, l.path, id); err != nil {
		return errors.Errorf("appending to progress log: %w", err)
	}
	l.done[id] = true
	return nil
}
