// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package xref

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/storage"
)

// number of alias lock stripes
const lockStripes = 64

// meta pool keys
var (
	watermarkKey  = []byte("watermark")
	pendingPrefix = []byte("pending:")
)

// Index - alias to record id mapping
type Index struct {
	db  *storage.DB
	log *logger.L

	stripes [lockStripes]sync.Mutex

	watermarkLock sync.Mutex
	watermark     uint64
}

// New - create an index over the index pools of db
func New(db *storage.DB) (*Index, error) {
	watermark, _, err := db.Pool.Meta.GetN(watermarkKey)
	if nil != err {
		return nil, err
	}
	return &Index{
		db:        db,
		log:       logger.New("xref"),
		watermark: watermark,
	}, nil
}

func (ix *Index) stripe(key []byte) *sync.Mutex {
	h := fnv.New32a()
	h.Write(key)
	return &ix.stripes[h.Sum32()%lockStripes]
}

// Bind - bind alias to record id
//
// binding the same alias to the same id again is a no-op, binding
// it to a different id is a conflict
func (ix *Index) Bind(alias constituent.Alias, id uint64) error {
	if !alias.Constituent.Valid() {
		return fault.ErrInvalidConstituent
	}

	key := alias.Key()

	lock := ix.stripe(key)
	lock.Lock()
	defer lock.Unlock()

	existing, found, err := ix.db.Pool.Aliases.GetN(key)
	if nil != err {
		return err
	}
	if found {
		if existing == id {
			return nil
		}
		ix.log.Debugf("alias: %s bound to: %d  rejected: %d", alias, existing, id)
		return fault.ErrAliasConflict
	}

	tx := ix.db.Begin()
	tx.PutN(ix.db.Pool.Aliases, key, id)

	if constituent.Coordinate == alias.Constituent {
		coordinate, err := constituent.ParseCoordinate(alias.Reference)
		if nil != err {
			tx.Abort()
			return err
		}
		tx.Put(ix.db.Pool.Buckets, bucketKey(coordinate.Cell(), id), []byte{})
	}

	return tx.Commit()
}

// Resolve - find the record id bound to alias
func (ix *Index) Resolve(alias constituent.Alias) (uint64, error) {
	id, found, err := ix.db.Pool.Aliases.GetN(alias.Key())
	if nil != err {
		return 0, err
	}
	if !found {
		return 0, fault.ErrAliasNotFound
	}
	return id, nil
}

// PathPrefix - ids of every record with a path alias equal to or below prefix
func (ix *Index) PathPrefix(prefix string) ([]uint64, error) {
	if "/" != prefix {
		if err := constituent.ValidatePath(prefix); nil != err {
			return nil, err
		}
	}

	start := constituent.Alias{Constituent: constituent.Path, Reference: prefix}.Key()
	cursor := ix.db.Pool.Aliases.NewFetchCursor().Prefix(start)

	ids := make(idSet)
	err := cursor.Map(func(key []byte, value []byte) error {
		alias, err := constituent.AliasFromKey(key)
		if nil != err {
			return err
		}
		if !constituent.UnderPrefix(alias.Reference, prefix) || len(value) < 8 {
			return nil
		}
		ids.add(binary.BigEndian.Uint64(value))
		return nil
	})
	if nil != err {
		return nil, err
	}
	return ids.sorted(), nil
}

// Bucket - ids of every record whose coordinate falls in cell, oldest first
func (ix *Index) Bucket(cell constituent.Cell) ([]uint64, error) {
	cursor := ix.db.Pool.Buckets.NewFetchCursor().Prefix(cell.Key())

	ids := make(idSet)
	err := cursor.Map(func(key []byte, value []byte) error {
		id, err := bucketID(key)
		if nil != err {
			return err
		}
		ids.add(id)
		return nil
	})
	if nil != err {
		return nil, err
	}
	return ids.sorted(), nil
}

// BoundingBox - ids of every record in any cell inside box
func (ix *Index) BoundingBox(box constituent.Box) ([]uint64, error) {
	low, high, err := box.Corners()
	if nil != err {
		return nil, err
	}

	// scan whole latitude rows then filter on longitude
	start := constituent.Cell{Precision: box.Precision, Latitude: low.Latitude, Longitude: math.MinInt64}
	limit := constituent.Cell{Precision: box.Precision, Latitude: high.Latitude + 1, Longitude: math.MinInt64}
	cursor := ix.db.Pool.Buckets.NewFetchCursor().Range(start.Key(), limit.Key())

	ids := make(idSet)
	err = cursor.Map(func(key []byte, value []byte) error {
		cell, err := constituent.CellFromKey(key)
		if nil != err {
			return err
		}
		if !box.Contains(cell) {
			return nil
		}
		id, err := bucketID(key)
		if nil != err {
			return err
		}
		ids.add(id)
		return nil
	})
	if nil != err {
		return nil, err
	}
	return ids.sorted(), nil
}

// Count - number of aliases bound
func (ix *Index) Count() (int, error) {
	n := 0
	err := ix.db.Pool.Aliases.NewFetchCursor().Map(func(key []byte, value []byte) error {
		n += 1
		return nil
	})
	return n, err
}

// Watermark - highest record id whose aliases are all indexed
func (ix *Index) Watermark() uint64 {
	ix.watermarkLock.Lock()
	defer ix.watermarkLock.Unlock()
	return ix.watermark
}

// Advance - raise the watermark to id
func (ix *Index) Advance(id uint64) error {
	ix.watermarkLock.Lock()
	defer ix.watermarkLock.Unlock()

	if id <= ix.watermark {
		return nil
	}
	tx := ix.db.Begin()
	tx.PutN(ix.db.Pool.Meta, watermarkKey, id)
	if err := tx.Commit(); nil != err {
		return err
	}
	ix.watermark = id
	return nil
}

// MarkPending - note that record id is about to gain an alias
//
// pending ids are replayed by CatchUp in case the binding never happened
func (ix *Index) MarkPending(id uint64) error {
	tx := ix.db.Begin()
	tx.Put(ix.db.Pool.Meta, pendingKey(id), []byte{})
	return tx.Commit()
}

// ClearPending - the aliases of record id are fully indexed
func (ix *Index) ClearPending(id uint64) error {
	tx := ix.db.Begin()
	tx.Delete(ix.db.Pool.Meta, pendingKey(id))
	return tx.Commit()
}

// Pending - record ids whose aliases may not all be indexed
func (ix *Index) Pending() ([]uint64, error) {
	pending := []uint64{}
	cursor := ix.db.Pool.Meta.NewFetchCursor().Prefix(pendingPrefix)
	err := cursor.Map(func(key []byte, value []byte) error {
		if len(key) != len(pendingPrefix)+8 {
			return fmt.Errorf("xref: malformed pending key: %x", key)
		}
		pending = append(pending, binary.BigEndian.Uint64(key[len(pendingPrefix):]))
		return nil
	})
	if nil != err {
		return nil, err
	}
	return pending, nil
}

func pendingKey(id uint64) []byte {
	key := make([]byte, len(pendingPrefix)+8)
	copy(key, pendingPrefix)
	binary.BigEndian.PutUint64(key[len(pendingPrefix):], id)
	return key
}

func bucketKey(cell constituent.Cell, id uint64) []byte {
	key := make([]byte, constituent.CellKeyLength+8)
	copy(key, cell.Key())
	binary.BigEndian.PutUint64(key[constituent.CellKeyLength:], id)
	return key
}

func bucketID(key []byte) (uint64, error) {
	if constituent.CellKeyLength+8 != len(key) {
		return 0, fault.ErrInvalidCoordinate
	}
	return binary.BigEndian.Uint64(key[constituent.CellKeyLength:]), nil
}

type idSet map[uint64]struct{}

func (s idSet) add(id uint64) {
	s[id] = struct{}{}
}

func (s idSet) sorted() []uint64 {
	ids := make([]uint64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
