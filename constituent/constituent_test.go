// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package constituent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
)

func TestFromString(t *testing.T) {
	items := []struct {
		name     string
		expected constituent.Constituent
	}{
		{"path", constituent.Path},
		{"atlas", constituent.Path},
		{"Content", constituent.Content},
		{" coordinate ", constituent.Coordinate},
	}
	for i, item := range items {
		c, err := constituent.FromString(item.name)
		assert.Nil(t, err, "%d: unexpected error", i)
		assert.Equal(t, item.expected, c, "%d: wrong constituent", i)
	}

	_, err := constituent.FromString("nostr")
	assert.True(t, fault.IsErrInvalid(err), "wrong error: %v", err)
}

func TestValidatePath(t *testing.T) {
	valid := []string{
		"/a",
		"/a/b",
		"/lora/transmissions/0f1e2d",
		"/1/2/3/4/5/6/7/8/9/10/11",
	}
	for _, p := range valid {
		assert.Nil(t, constituent.ValidatePath(p), "path: %q", p)
	}

	invalid := []string{
		"",
		"/",
		"a/b",
		"/a/",
		"//a",
		"/a//b",
		"/a/./b",
		"/a/../b",
		"/a/b\x00",
		"/1/2/3/4/5/6/7/8/9/10/11/12",
	}
	for _, p := range invalid {
		err := constituent.ValidatePath(p)
		assert.Equal(t, fault.ErrInvalidPath, err, "path: %q", p)
	}
}

func TestUnderPrefix(t *testing.T) {
	assert.True(t, constituent.UnderPrefix("/a/b", "/a"))
	assert.True(t, constituent.UnderPrefix("/a", "/a"))
	assert.True(t, constituent.UnderPrefix("/a/b", "/"))
	assert.False(t, constituent.UnderPrefix("/ab", "/a"))
	assert.False(t, constituent.UnderPrefix("/b/a", "/a"))
}

func TestDigest(t *testing.T) {
	// SHA2-256("hello")
	const expected = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

	data := []byte("hello")
	assert.Equal(t, expected, constituent.Digest(data), "wrong digest")

	digest, err := constituent.ParseDigest(constituent.CID(data))
	assert.Nil(t, err, "cid parse error")
	assert.Equal(t, expected, digest, "cid digest differs")

	upper := "2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824"
	digest, err = constituent.ParseDigest(upper)
	assert.Nil(t, err, "upper case parse error")
	assert.Equal(t, expected, digest, "upper case not canonicalised")

	assert.Nil(t, constituent.VerifyDigest(data, expected))
	assert.Equal(t, fault.ErrHashMismatch, constituent.VerifyDigest([]byte("hellO"), expected))

	for _, bad := range []string{"", "xyz", expected[:62], expected + "00"} {
		_, err := constituent.ParseDigest(bad)
		assert.Equal(t, fault.ErrInvalidContentHash, err, "digest: %q", bad)
	}
}

func TestParseCoordinate(t *testing.T) {
	c, err := constituent.ParseCoordinate("40.71,-74.00,1")
	assert.Nil(t, err, "parse error")
	assert.Equal(t, 40.71, c.Latitude)
	assert.Equal(t, -74.0, c.Longitude)
	assert.Equal(t, 1, c.Precision)
	assert.Equal(t, "40.710000,-74.000000,1", c.String())
	assert.Equal(t, "40.7,-74.0,1", c.Cell().String())

	for _, bad := range []string{
		"",
		"40.71,-74.00",
		"40.71,-74.00,1,2",
		"north,-74.00,1",
		"40.71,west,1",
		"40.71,-74.00,x",
		"91,0,1",
		"0,181,1",
		"0,0,0",
		"0,0,13",
		"NaN,0,1",
	} {
		_, err := constituent.ParseCoordinate(bad)
		assert.Equal(t, fault.ErrInvalidCoordinate, err, "reference: %q", bad)
	}
}

func TestFinePrecisionKeepsDecimals(t *testing.T) {
	a, err := constituent.ParseCoordinate("0.1234561,0,7")
	assert.Nil(t, err)
	b, err := constituent.ParseCoordinate("0.1234564,0,7")
	assert.Nil(t, err)

	assert.Equal(t, "0.1234561,0.0000000,7", a.String())
	assert.NotEqual(t, a.String(), b.String(), "exact forms collapsed")
	assert.NotEqual(t, a.Cell(), b.Cell())

	// the canonical form parses back to the same cell
	again, err := constituent.ParseCoordinate(b.String())
	assert.Nil(t, err)
	assert.Equal(t, b.Cell(), again.Cell())

	fine, err := constituent.ParseCoordinate("-33.123456789012,151.2,12")
	assert.Nil(t, err)
	assert.Equal(t, "-33.123456789012,151.200000000000,12", fine.String())
}

func TestNearbyCoordinatesShareCell(t *testing.T) {
	references := []string{
		"40.70,-74.00,1",
		"40.74,-74.04,1",
		"40.66,-74.02,1",
	}

	var first constituent.Cell
	for i, r := range references {
		c, err := constituent.ParseCoordinate(r)
		assert.Nil(t, err, "%d: parse error", i)
		if 0 == i {
			first = c.Cell()
			continue
		}
		assert.Equal(t, first, c.Cell(), "%d: %q in a different cell", i, r)
	}

	// a finer precision separates them
	a, _ := constituent.ParseCoordinate("40.70,-74.00,2")
	b, _ := constituent.ParseCoordinate("40.74,-74.04,2")
	assert.NotEqual(t, a.Cell(), b.Cell(), "precision 2 should separate")
}

func TestCellKeyOrdering(t *testing.T) {
	cells := []constituent.Cell{
		{Precision: 1, Latitude: -900, Longitude: 5},
		{Precision: 1, Latitude: -1, Longitude: -1800},
		{Precision: 1, Latitude: 0, Longitude: 0},
		{Precision: 1, Latitude: 407, Longitude: -740},
		{Precision: 1, Latitude: 407, Longitude: -739},
	}
	for i := 1; i < len(cells); i += 1 {
		previous := string(cells[i-1].Key())
		current := string(cells[i].Key())
		assert.True(t, previous < current, "%d: key order broken", i)

		back, err := constituent.CellFromKey(cells[i].Key())
		assert.Nil(t, err)
		assert.Equal(t, cells[i], back, "%d: key round trip", i)
	}
}

func TestParseAlias(t *testing.T) {
	a, err := constituent.Parse(constituent.Coordinate, "40.71, -74.00, 1")
	assert.Nil(t, err)
	assert.Equal(t, "40.710000,-74.000000,1", a.Reference)

	back, err := constituent.AliasFromKey(a.Key())
	assert.Nil(t, err)
	assert.Equal(t, a, back, "alias key round trip")

	_, err = constituent.Parse(constituent.Invalid, "/a")
	assert.Equal(t, fault.ErrInvalidConstituent, err)

	_, err = constituent.Parse(constituent.Path, "a")
	assert.True(t, fault.IsErrInvalid(err))
}

func TestBox(t *testing.T) {
	box := constituent.Box{
		South:     40.6,
		West:      -74.1,
		North:     40.8,
		East:      -73.9,
		Precision: 1,
	}
	assert.True(t, box.Contains(constituent.Cell{Precision: 1, Latitude: 407, Longitude: -740}))
	assert.False(t, box.Contains(constituent.Cell{Precision: 1, Latitude: 409, Longitude: -740}))
	assert.False(t, box.Contains(constituent.Cell{Precision: 2, Latitude: 4070, Longitude: -7400}))

	inverted := box
	inverted.South, inverted.North = box.North, box.South
	_, _, err := inverted.Corners()
	assert.Equal(t, fault.ErrInvalidCoordinate, err)
}
