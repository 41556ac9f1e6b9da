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

package lookup

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/singleflight"
)

// memo is a bounded LRU in front of a loader. Concurrent misses for one key
// share a single load; failed loads are not cached.
type memo[V any] struct {
	cache *lru.Cache[string, V]
	group singleflight.Group
	load  func(ctx context.Context, key string) (V, error)
}

func newMemo[V any](size int, load func(ctx context.Context, key string) (V, error)) (*memo[V], error) {
	cache, err := lru.New[string, V](size)
	if err != nil {
		return nil, errors.Errorf("creating cache: %w", err)
	}
	return &memo[V]{cache: cache, load: load}, nil
}

func (m *memo[V]) Get(ctx context.Context, key string) (V, error) {
	if v, ok := m.cache.Get(key); ok {
		return v, nil
	}

	res, err, _ := m.group.Do(key, func() (any, error) {
		if v, ok := m.cache.Get(key); ok {
			return v, nil
		}
		v, err := m.load(ctx, key)
		if err != nil {
			return v, err
		}
		m.cache.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (m *memo[V]) Len() int {
	return m.cache.Len()
}
