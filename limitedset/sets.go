// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package limitedset - bounded set of recently seen identifiers
//
// used to drop duplicate inbound frames; the oldest entry is evicted
// when the set is full and a repeated entry becomes the newest
package limitedset

import (
	"container/ring"
	"sync"
)

// LimitedSet - a set holding at most size items
type LimitedSet struct {
	sync.Mutex
	size int
	ring *ring.Ring
	hash map[string]*ring.Ring
}

// New - create a new limited set that holds up to 'n' items
func New(n int) *LimitedSet {
	if n < 1 {
		n = 1
	}
	return &LimitedSet{
		size: n,
		ring: ring.New(n),
		hash: make(map[string]*ring.Ring, n),
	}
}

// Add - add an item to the set
func (ls *LimitedSet) Add(item string) {
	ls.Lock()
	defer ls.Unlock()
	ls.add(item)
}

// Seen - add an item and report whether it was already present
func (ls *LimitedSet) Seen(item string) bool {
	ls.Lock()
	defer ls.Unlock()
	_, ok := ls.hash[item]
	ls.add(item)
	return ok
}

// Exists - check to see if item is in the set
func (ls *LimitedSet) Exists(item string) bool {
	ls.Lock()
	defer ls.Unlock()
	_, ok := ls.hash[item]
	return ok
}

// Len - number of items held
func (ls *LimitedSet) Len() int {
	ls.Lock()
	defer ls.Unlock()
	return len(ls.hash)
}

func (ls *LimitedSet) add(item string) {

	// move an existing item to the newest position
	if r, ok := ls.hash[item]; ok {
		if r == ls.ring.Prev() {
			return
		}
		if r == ls.ring {
			ls.ring = ls.ring.Next()
			return
		}
		r = r.Prev().Unlink(1)
		ls.ring.Prev().Link(r)
		return
	}

	// overwrite the oldest
	if oldItem, ok := ls.ring.Value.(string); ok {
		delete(ls.hash, oldItem)
	}
	ls.ring.Value = item
	ls.hash[item] = ls.ring
	ls.ring = ls.ring.Next()
}
