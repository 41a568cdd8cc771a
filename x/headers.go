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

package x

import (
	"net/http"
	"strings"
)

// Headers is an ordered, case-insensitive header map.  Keys compare
// case-insensitively but remember their insertion order, so iterating with
// Range is deterministic.  Setting an existing key overwrites its value and
// keeps the key's original position - last writer wins on the value.
type Headers struct {
	keys   []string
	values map[string]string
}

// NewHeaders returns an empty Headers.
func NewHeaders() *Headers {
	return &Headers{values: make(map[string]string)}
}

func canonical(key string) string {
	return strings.ToLower(key)
}

// Set records value under key, replacing any previous value for a
// case-insensitive match of key.
func (h *Headers) Set(key, value string) {
	if h == nil {
		return
	}
	if h.values == nil {
		h.values = make(map[string]string)
	}
	ck := canonical(key)
	if _, ok := h.values[ck]; !ok {
		h.keys = append(h.keys, ck)
	}
	h.values[ck] = value
}

// Get returns the value for key, or "" if the key is absent.
func (h *Headers) Get(key string) string {
	if h == nil || h.values == nil {
		return ""
	}
	return h.values[canonical(key)]
}

// Has reports whether key is present.
func (h *Headers) Has(key string) bool {
	if h == nil || h.values == nil {
		return false
	}
	_, ok := h.values[canonical(key)]
	return ok
}

// Len returns the number of distinct keys.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// Range calls fn for every key/value pair in insertion order.
func (h *Headers) Range(fn func(key, value string)) {
	if h == nil {
		return
	}
	for _, k := range h.keys {
		fn(k, h.values[k])
	}
}

// Merge copies every entry of other into h.  On key collision other's value
// overwrites h's - the documented last-writer-wins rule for merging the
// header sets of batched operations.
func (h *Headers) Merge(other *Headers) {
	if other == nil {
		return
	}
	other.Range(func(k, v string) {
		h.Set(k, v)
	})
}

// WriteTo copies h into a net/http header map.
func (h *Headers) WriteTo(dst http.Header) {
	h.Range(func(k, v string) {
		dst.Set(k, v)
	})
}
