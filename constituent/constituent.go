// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package constituent

import (
	"strings"

	"github.com/bitmark-inc/cyclemesh/fault"
)

// Constituent - addressing scheme tag
//
// values are persisted, do not renumber
type Constituent uint8

// the addressing schemes
const (
	Invalid    Constituent = 0
	Path       Constituent = 1
	Content    Constituent = 2
	Coordinate Constituent = 3
)

// All - every valid constituent in persisted order
var All = []Constituent{Path, Content, Coordinate}

// String - name of constituent
func (c Constituent) String() string {
	switch c {
	case Path:
		return "path"
	case Content:
		return "content"
	case Coordinate:
		return "coordinate"
	default:
		return "invalid"
	}
}

// Valid - check the tag is one of the known schemes
func (c Constituent) Valid() bool {
	switch c {
	case Path, Content, Coordinate:
		return true
	default:
		return false
	}
}

// FromString - convert a name to a constituent
//
// "atlas" is accepted as an older name for the path scheme
func FromString(name string) (Constituent, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "path", "atlas":
		return Path, nil
	case "content", "hash":
		return Content, nil
	case "coordinate", "coord", "geo":
		return Coordinate, nil
	default:
		return Invalid, fault.ErrInvalidConstituent
	}
}

// Alias - a validated (constituent, canonical reference) pair
type Alias struct {
	Constituent Constituent
	Reference   string
}

// Parse - validate a reference for a constituent and canonicalise it
func Parse(c Constituent, reference string) (Alias, error) {
	switch c {
	case Path:
		if err := ValidatePath(reference); nil != err {
			return Alias{}, err
		}
		return Alias{Constituent: Path, Reference: reference}, nil

	case Content:
		digest, err := ParseDigest(reference)
		if nil != err {
			return Alias{}, err
		}
		return Alias{Constituent: Content, Reference: digest}, nil

	case Coordinate:
		coordinate, err := ParseCoordinate(reference)
		if nil != err {
			return Alias{}, err
		}
		return Alias{Constituent: Coordinate, Reference: coordinate.String()}, nil

	default:
		return Alias{}, fault.ErrInvalidConstituent
	}
}

// Key - index key: constituent byte ++ reference
func (a Alias) Key() []byte {
	key := make([]byte, 1, 1+len(a.Reference))
	key[0] = byte(a.Constituent)
	return append(key, a.Reference...)
}

// AliasFromKey - reverse of Key
func AliasFromKey(key []byte) (Alias, error) {
	if len(key) < 2 {
		return Alias{}, fault.ErrInvalidConstituent
	}
	c := Constituent(key[0])
	if !c.Valid() {
		return Alias{}, fault.ErrInvalidConstituent
	}
	return Alias{Constituent: c, Reference: string(key[1:])}, nil
}

// String - printable form
func (a Alias) String() string {
	return a.Constituent.String() + ":" + a.Reference
}
