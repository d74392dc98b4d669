// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package limitedset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cyclemesh/limitedset"
)

func TestAddition(t *testing.T) {
	items := []string{
		"msg-00", "msg-01", "msg-02", "msg-02", "msg-02",
		"msg-03", "msg-04", "msg-05", "msg-06", "msg-07",
	}
	expected := []string{"msg-03", "msg-04", "msg-05", "msg-06", "msg-07"}

	check(t, items, expected)
}

func TestPullToFront(t *testing.T) {
	items := []string{
		"msg-00", "msg-01", "msg-02",
		"msg-03", "msg-02", "msg-04",
		"msg-02", "msg-05", "msg-02",
		"msg-06", "msg-07", "msg-02",
		"msg-08",
	}
	expected := []string{"msg-05", "msg-06", "msg-07", "msg-02", "msg-08"}

	check(t, items, expected)
}

func TestRefreshOldest(t *testing.T) {
	s := limitedset.New(3)
	s.Add("a")
	s.Add("b")
	s.Add("c")
	s.Add("a") // oldest becomes newest
	s.Add("d") // evicts b

	assert.True(t, s.Exists("a"))
	assert.False(t, s.Exists("b"))
	assert.True(t, s.Exists("c"))
	assert.True(t, s.Exists("d"))
	assert.Equal(t, 3, s.Len())
}

func TestSeen(t *testing.T) {
	s := limitedset.New(2)
	assert.False(t, s.Seen("x"))
	assert.True(t, s.Seen("x"))
	assert.False(t, s.Seen("y"))
	assert.False(t, s.Seen("z"))
	assert.False(t, s.Seen("x"), "evicted")
}

// add a list of items and check that exactly the expected ones are present
func check(t *testing.T, items []string, expected []string) {
	s := limitedset.New(len(expected))
	for _, d := range items {
		s.Add(d)
	}

	present := make(map[string]struct{})
	for i, d := range expected {
		present[d] = struct{}{}
		assert.True(t, s.Exists(d), "item[%d] missing: %q", i, d)
	}

	for i, d := range items {
		if _, ok := present[d]; ok {
			continue
		}
		assert.False(t, s.Exists(d), "item[%d] present: %q", i, d)
	}
	assert.Equal(t, len(expected), s.Len())
}
