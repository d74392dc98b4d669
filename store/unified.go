// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/record"
)

// StoreDataUnified - Store with the scheme given by name
//
// names: path (or atlas), content, coordinate
func (s *Store) StoreDataUnified(data []byte, name string, reference string) (uint64, error) {
	c, err := constituent.FromString(name)
	if nil != err {
		return 0, err
	}
	return s.Store(data, c, reference)
}

// RetrieveDataUnified - Retrieve with the scheme given by name
func (s *Store) RetrieveDataUnified(name string, reference string) ([]byte, error) {
	c, err := constituent.FromString(name)
	if nil != err {
		return nil, err
	}
	return s.Retrieve(c, reference)
}

// Stats - store totals
type Stats struct {
	Records     int    `json:"records"`
	Aliases     int    `json:"aliases"`
	Compressed  int    `json:"compressed"`
	StoredBytes uint64 `json:"storedBytes"`
	Watermark   uint64 `json:"watermark"`
	Pending     int    `json:"pending"`
}

// Stats - scan the records and index for totals
func (s *Store) Stats() (Stats, error) {
	stats := Stats{
		Watermark: s.index.Watermark(),
	}

	err := s.db.Pool.Records.NewFetchCursor().Map(func(key []byte, value []byte) error {
		r, err := record.Packed(value).Unpack()
		if nil != err {
			return err
		}
		stats.Records += 1
		stats.StoredBytes += uint64(len(r.Stored))
		if r.Compressed {
			stats.Compressed += 1
		}
		return nil
	})
	if nil != err {
		return Stats{}, err
	}

	stats.Aliases, err = s.index.Count()
	if nil != err {
		return Stats{}, err
	}

	pending, err := s.index.Pending()
	if nil != err {
		return Stats{}, err
	}
	stats.Pending = len(pending)
	return stats, nil
}
