// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"encoding/binary"

	"github.com/golang/snappy"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
)

// Packed - packed records are just a byte slice
type Packed []byte

// flag bits
const (
	flagCompressed = 0x01
)

// Record - an immutable payload with its canonical and extra aliases
type Record struct {
	ID         uint64
	Canonical  constituent.Alias
	Compressed bool
	Stored     []byte // payload as held on disk
	Aliases    []constituent.Alias
}

// New - create a record, compressing data that exceeds threshold
//
// compression is only kept when it actually saves space; a threshold
// of zero or less disables it
func New(id uint64, canonical constituent.Alias, data []byte, threshold int) *Record {
	r := &Record{
		ID:        id,
		Canonical: canonical,
		Stored:    data,
	}

	if threshold > 0 && len(data) > threshold {
		compressed := snappy.Encode(nil, data)
		if len(compressed) < len(data) {
			r.Stored = compressed
			r.Compressed = true
		}
	}
	return r
}

// Data - the original uncompressed payload
func (r *Record) Data() ([]byte, error) {
	if !r.Compressed {
		return r.Stored, nil
	}
	data, err := snappy.Decode(nil, r.Stored)
	if nil != err {
		return nil, fault.ErrInvalidRecord
	}
	return data, nil
}

// AllAliases - canonical alias followed by the linked aliases
func (r *Record) AllAliases() []constituent.Alias {
	all := make([]constituent.Alias, 0, 1+len(r.Aliases))
	all = append(all, r.Canonical)
	return append(all, r.Aliases...)
}

// HasAlias - check if a record already carries the alias
func (r *Record) HasAlias(a constituent.Alias) bool {
	for _, existing := range r.AllAliases() {
		if existing == a {
			return true
		}
	}
	return false
}

// ContentAlias - the content digest bound to the record, if any
func (r *Record) ContentAlias() (constituent.Alias, bool) {
	for _, a := range r.AllAliases() {
		if constituent.Content == a.Constituent {
			return a, true
		}
	}
	return constituent.Alias{}, false
}

// WithAlias - copy of the record with one more alias
//
// the stored payload is shared as it is never modified
func (r *Record) WithAlias(a constituent.Alias) *Record {
	aliases := make([]constituent.Alias, len(r.Aliases), len(r.Aliases)+1)
	copy(aliases, r.Aliases)
	return &Record{
		ID:         r.ID,
		Canonical:  r.Canonical,
		Compressed: r.Compressed,
		Stored:     r.Stored,
		Aliases:    append(aliases, a),
	}
}

// Key - storage key for a record id, big endian so keys sort by id
func Key(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// IDFromKey - reverse of Key
func IDFromKey(key []byte) (uint64, error) {
	if 8 != len(key) {
		return 0, fault.ErrInvalidRecord
	}
	return binary.BigEndian.Uint64(key), nil
}
