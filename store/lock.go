// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sync"
)

// a set of mutexes created on demand for each key
type keyedLock struct {
	sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{
		locks: make(map[string]*refLock),
	}
}

// lock a key, returning the function to unlock it
func (k *keyedLock) lock(key string) func() {
	k.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs += 1
	k.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		k.Lock()
		l.refs -= 1
		if 0 == l.refs {
			delete(k.locks, key)
		}
		k.Unlock()
	}
}

// number of keys currently held or waited on
func (k *keyedLock) size() int {
	k.Lock()
	defer k.Unlock()
	return len(k.locks)
}
