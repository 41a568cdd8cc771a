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

package resolve

import (
	"fmt"
	"time"
)

// CacheScope says who may cache a response.
type CacheScope int

const (
	// ScopePublic responses may be stored by shared caches.
	ScopePublic CacheScope = iota
	// ScopePrivate responses are for a single user only.
	ScopePrivate
)

// A CachePolicy accumulates how cacheable one execution's result is.  It
// starts permissive and resolvers may only tighten it: max-age goes down,
// public may become private, never the other way.  One CachePolicy belongs
// to one execution, so no locking.
type CachePolicy struct {
	MaxAge time.Duration
	Scope  CacheScope

	restricted bool
}

// NewCachePolicy returns the permissive starting policy for one execution.
func NewCachePolicy() *CachePolicy {
	return &CachePolicy{}
}

// Restrict tightens the policy.  A smaller maxAge wins; private wins over
// public.
func (p *CachePolicy) Restrict(maxAge time.Duration, scope CacheScope) {
	if p == nil {
		return
	}
	if !p.restricted || maxAge < p.MaxAge {
		p.MaxAge = maxAge
	}
	if scope == ScopePrivate {
		p.Scope = ScopePrivate
	}
	p.restricted = true
}

// Restricted reports whether any resolver tightened the policy.
func (p *CachePolicy) Restricted() bool {
	return p != nil && p.restricted
}

// CacheControl renders the policy as a Cache-Control header value.
func (p *CachePolicy) CacheControl() string {
	scope := "public"
	if p.Scope == ScopePrivate {
		scope = "private"
	}
	return fmt.Sprintf("max-age=%d, %s", int(p.MaxAge.Seconds()), scope)
}
