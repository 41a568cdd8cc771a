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

// Package cache holds parsed query documents keyed by a fingerprint of the
// query text, so that repeated requests skip the parse step.  The store is
// shared by every in-flight request and lives for the whole server process.
package cache

import (
	"github.com/dgryski/go-farm"

	"github.com/dgraph-io/gqlparser/v2/ast"
)

// DefaultMaxBytes is the default capacity of the document store.
const DefaultMaxBytes = 30 << 20 // 30 MiB

// Key fingerprints a query string.  Equal query text always produces an
// equal key.
func Key(query string) uint64 {
	return farm.Fingerprint64([]byte(query))
}

// A Store is a bounded key to parsed-document map.  Implementations must be
// safe for concurrent Get/Set from multiple in-flight requests.  Redundant
// parses under a Get/Set race are fine; corruption is not.
type Store interface {
	// Get returns the document stored under key, if any.  A hit counts as
	// an access for eviction ordering.
	Get(key uint64) (*ast.QueryDocument, bool)

	// Set stores doc under key.  Re-setting a present key refreshes its
	// recency without double-counting its size.  The returned error means
	// the document could not be sized and was not stored; the store itself
	// is unaffected.
	Set(key uint64, doc *ast.QueryDocument) error

	// Clear drops every entry.
	Clear()

	// TotalSize returns the summed byte size of all live entries.
	TotalSize() int64
}
