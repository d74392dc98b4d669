// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/util"
)

// limits on the packed fields
const (
	maximumReferenceLength = 8192
	maximumAliases         = 1024
)

// Pack - turn a record into its byte form
func (r *Record) Pack() (Packed, error) {
	if !r.Canonical.Constituent.Valid() {
		return nil, fault.ErrInvalidConstituent
	}

	buffer := Packed(util.ToVarint64(r.ID))
	buffer = appendAlias(buffer, r.Canonical)

	flags := byte(0)
	if r.Compressed {
		flags |= flagCompressed
	}
	buffer = append(buffer, flags)
	buffer = util.AppendBytes(buffer, r.Stored)

	buffer = append(buffer, util.ToVarint64(uint64(len(r.Aliases)))...)
	for _, a := range r.Aliases {
		if !a.Constituent.Valid() {
			return nil, fault.ErrInvalidConstituent
		}
		buffer = appendAlias(buffer, a)
	}
	return buffer, nil
}

// Unpack - turn a byte slice into a record
func (packed Packed) Unpack() (r *Record, e error) {

	defer func() {
		if x := recover(); nil != x {
			r = nil
			e = fault.ErrInvalidRecord
		}
	}()

	id, n := util.FromVarint64(packed)
	if 0 == n {
		return nil, fault.ErrInvalidRecord
	}

	canonical, count, err := unpackAlias(packed[n:])
	if nil != err {
		return nil, err
	}
	n += count

	if n >= len(packed) {
		return nil, fault.ErrInvalidRecord
	}
	flags := packed[n]
	n += 1

	payloadLength, count := util.FromVarint64(packed[n:])
	if 0 == count {
		return nil, fault.ErrInvalidRecord
	}
	n += count
	if payloadLength > uint64(len(packed)-n) {
		return nil, fault.ErrInvalidRecord
	}
	stored := make([]byte, payloadLength)
	copy(stored, packed[n:n+int(payloadLength)])
	n += int(payloadLength)

	aliasCount, count := util.ClippedVarint64(packed[n:], 0, maximumAliases)
	if 0 == count {
		return nil, fault.ErrInvalidRecord
	}
	n += count

	aliases := make([]constituent.Alias, 0, aliasCount)
	for i := 0; i < aliasCount; i += 1 {
		a, count, err := unpackAlias(packed[n:])
		if nil != err {
			return nil, err
		}
		n += count
		aliases = append(aliases, a)
	}

	if n != len(packed) {
		return nil, fault.ErrInvalidRecord
	}

	return &Record{
		ID:         id,
		Canonical:  canonical,
		Compressed: 0 != flags&flagCompressed,
		Stored:     stored,
		Aliases:    aliases,
	}, nil
}

func appendAlias(buffer Packed, a constituent.Alias) Packed {
	buffer = append(buffer, byte(a.Constituent))
	return appendString(buffer, a.Reference)
}

func appendString(buffer Packed, s string) Packed {
	return util.AppendBytes(buffer, []byte(s))
}

// returns alias and bytes consumed
func unpackAlias(buffer []byte) (constituent.Alias, int, error) {
	if len(buffer) < 2 {
		return constituent.Alias{}, 0, fault.ErrInvalidRecord
	}
	c := constituent.Constituent(buffer[0])
	if !c.Valid() {
		return constituent.Alias{}, 0, fault.ErrInvalidConstituent
	}
	n := 1

	length, count := util.ClippedVarint64(buffer[n:], 1, maximumReferenceLength)
	if 0 == count {
		return constituent.Alias{}, 0, fault.ErrInvalidRecord
	}
	n += count
	reference := string(buffer[n : n+length])
	n += length

	return constituent.Alias{Constituent: c, Reference: reference}, n, nil
}
