/*
 * Copyright 2025 Graphyte Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache

import (
	"container/list"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/dgraph-io/gqlparser/v2/ast"
)

// lruEntry links the cache key and the document to the list element.
type lruEntry struct {
	key  uint64
	size int64
	doc  *ast.QueryDocument
}

// LRU implements Store with a hard byte limit and least-recently-used
// eviction.  Capacity is enforced in bytes, not entry count: each entry is
// charged the byte length of its document's JSON serialization, computed
// once at insertion.
type LRU struct {
	mu sync.Mutex
	// Doubly linked list, front is most recently used.
	order   *list.List
	entries map[uint64]*list.Element

	maxBytes     int64
	currentBytes int64
}

// NewLRU creates an LRU with the given capacity in bytes.  A non-positive
// maxBytes falls back to DefaultMaxBytes.
func NewLRU(maxBytes int64) *LRU {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &LRU{
		order:    list.New(),
		entries:  make(map[uint64]*list.Element),
		maxBytes: maxBytes,
	}
}

// Get retrieves the document under key and marks it most recently used.
func (c *LRU) Get(key uint64) (*ast.QueryDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(element)
	return element.Value.(*lruEntry).doc, true
}

// Set stores doc under key, evicting least-recently-used entries until the
// byte limit holds again.  Setting a present key refreshes recency and
// re-charges the new size in place of the old one.
func (c *LRU) Set(key uint64, doc *ast.QueryDocument) error {
	size, err := documentSize(doc)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		entry := element.Value.(*lruEntry)
		c.currentBytes += size - entry.size
		entry.size = size
		entry.doc = doc
		c.order.MoveToFront(element)
	} else {
		element := c.order.PushFront(&lruEntry{key: key, size: size, doc: doc})
		c.entries[key] = element
		c.currentBytes += size
	}

	for c.currentBytes > c.maxBytes {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		evicted := c.order.Remove(oldest).(*lruEntry)
		delete(c.entries, evicted.key)
		c.currentBytes -= evicted.size
	}
	return nil
}

// Clear drops every entry.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[uint64]*list.Element)
	c.currentBytes = 0
}

// TotalSize returns the summed byte size of all live entries.
func (c *LRU) TotalSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentBytes
}

// documentSize charges an entry the byte length of the document's canonical
// JSON serialization.
func documentSize(doc *ast.QueryDocument) (int64, error) {
	js, err := json.Marshal(doc)
	if err != nil {
		return 0, errors.Wrap(err, "couldn't compute document cache entry size")
	}
	return int64(len(js)), nil
}
