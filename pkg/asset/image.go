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

package asset

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/confexport/pkg/model"
	"github.com/walteh/confexport/pkg/remote"
	"github.com/walteh/confexport/pkg/workspace"
	"gitlab.com/tozd/go/errors"
)

const fallbackExtension = ".bin"

var (
	dataURI = regexp.MustCompile(`(?s)^data:([^;]+);base64,(.+)$`)

	knownImageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
		".webp": true, ".bmp": true, ".tiff": true, ".ico": true,
	}
)

func hashString(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Image materializes a direct image source (a data: URI or a URL) under the
// assets directory and returns its path relative to the page file at
// pagePath. Any failure is logged and yields "".
func (r *Resolver) Image(ctx context.Context, pagePath, src string) string {
	logger := zerolog.Ctx(ctx).With().Str("src", truncate(src, 120)).Logger()

	var (
		target string
		err    error
	)
	if strings.HasPrefix(src, "data:") {
		target, err = r.dataImage(ctx, src)
	} else {
		target, err = r.urlImage(ctx, src)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("dropping image")
		return ""
	}

	return workspace.Link(pagePath, target)
}

// dataImage writes a base64 data URI as md5(payload)+extension
func (r *Resolver) dataImage(ctx context.Context, src string) (string, error) {
	m := dataURI.FindStringSubmatch(src)
	if m == nil {
		return "", errors.New("unsupported data URI")
	}
	mediaType, payload := m[1], m[2]

	ext := model.ExtensionForMediaType(mediaType)
	if ext == "" {
		ext = fallbackExtension
	}
	target := r.ws.AssetPath(hashString(payload) + ext)

	exists, err := r.ws.Files().FileExists(ctx, target)
	if err != nil {
		return "", err
	}
	if exists {
		return target, nil
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return "", errors.Errorf("decoding base64 image: %w", err)
	}
	if _, err := r.ws.Files().WriteFile(ctx, target, data); err != nil {
		return "", err
	}
	return target, nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)

	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

// urlImage downloads src once, keyed by md5(src) regardless of extension
func (r *Resolver) urlImage(ctx context.Context, src string) (string, error) {
	hash := hashString(src)

	existing, err := r.ws.Files().Glob(ctx, r.ws.AssetPath(hash+".*"))
	if err != nil {
		return "", err
	}
	for _, match := range existing {
		// leftovers of an interrupted atomic write
		if strings.HasSuffix(match, ".tmp") {
			continue
		}
		return match, nil
	}

	target := src
	if strings.HasPrefix(src, "/") {
		target = r.baseURL + src
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", errors.Errorf("parsing image url: %w", err)
	}

	fetcher := r.source
	if r.tracker != nil && r.trackerPrefix != "" && strings.HasPrefix(parsed.Hostname(), r.trackerPrefix) {
		fetcher = r.tracker
	}

	dl, err := fetcher.Fetch(ctx, target)
	if err != nil {
		return "", err
	}
	if isHTML(dl.ContentType) {
		return "", errors.Errorf("%s returned HTML instead of an image", target)
	}

	ext := extensionFor(ctx, dl, parsed)
	path := r.ws.AssetPath(hash + ext)
	if _, err := r.ws.Files().WriteFile(ctx, path, dl.Body); err != nil {
		return "", err
	}
	return path, nil
}

func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

// extensionFor prefers the response content type, then a known image
// extension in the URL path, then .bin
func extensionFor(ctx context.Context, dl *remote.Download, u *url.URL) string {
	if ext := model.ExtensionForMediaType(dl.ContentType); ext != "" {
		return ext
	}

	if ext := strings.ToLower(path.Ext(u.Path)); knownImageExtensions[ext] {
		return ext
	}

	zerolog.Ctx(ctx).Warn().Str("url", u.String()).Msg("could not determine file extension, using .bin")
	return fallbackExtension
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
