// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package queue

import (
	"time"
)

// defaults
const (
	DefaultMaxRetries = 3
	DefaultBackoff    = 250 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second
)

// RetryPolicy - retry limits for failed transmissions
type RetryPolicy struct {
	MaxRetries int           // retries after the first attempt
	Backoff    time.Duration // delay before the first retry
	MaxBackoff time.Duration // upper bound on any delay
}

// DefaultRetryPolicy - policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultBackoff,
		MaxBackoff: DefaultMaxBackoff,
	}
}

// Delay - backoff before retry number n (1 based): Backoff × 2^(n-1)
//
// never more than MaxBackoff; a zero MaxBackoff selects DefaultMaxBackoff
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 || p.Backoff <= 0 {
		return 0
	}
	limit := p.MaxBackoff
	if limit <= 0 {
		limit = DefaultMaxBackoff
	}
	d := p.Backoff
	for i := 1; i < n; i += 1 {
		if d > limit/2 {
			return limit
		}
		d *= 2
	}
	if d > limit {
		return limit
	}
	return d
}
