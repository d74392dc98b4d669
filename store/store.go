// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/record"
	"github.com/bitmark-inc/cyclemesh/storage"
	"github.com/bitmark-inc/cyclemesh/xref"
)

// defaults
const (
	DefaultCompressionThreshold = 256
	DefaultCacheExpiry          = 10 * time.Minute
	cacheCleanupInterval        = 15 * time.Minute
)

// counter name in the counters pool
var recordCounterKey = []byte("record")

// Options - store tuning
type Options struct {
	CompressionThreshold int           // bytes, zero selects the default, negative disables
	CacheExpiry          time.Duration // zero selects the default
}

// Store - the addressable store
type Store struct {
	log       *logger.L
	db        *storage.DB
	index     *xref.Index
	cache     *cache.Cache
	threshold int

	recordLocks *keyedLock
	aliasLocks  *keyedLock

	lastID uint64 // atomic
}

// Open - attach a store to an open database
//
// the index is rebuilt if it is missing or of another version,
// otherwise it is brought up to date with the records
func Open(db *storage.DB, options Options) (*Store, error) {
	log := logger.New("store")

	threshold := options.CompressionThreshold
	if 0 == threshold {
		threshold = DefaultCompressionThreshold
	}
	expiry := options.CacheExpiry
	if 0 == expiry {
		expiry = DefaultCacheExpiry
	}

	index, err := xref.New(db)
	if nil != err {
		return nil, err
	}

	if db.MustReindex() {
		err = index.Rebuild()
	} else {
		err = index.CatchUp()
	}
	if nil != err {
		log.Criticalf("index recovery error: %s", err)
		return nil, err
	}

	// ids are never reused even if the counter write was lost
	lastID, _, err := db.Pool.Counters.GetN(recordCounterKey)
	if nil != err {
		return nil, err
	}
	last, found, err := db.Pool.Records.LastElement()
	if nil != err {
		return nil, err
	}
	if found {
		id, err := record.IDFromKey(last.Key)
		if nil != err {
			return nil, err
		}
		if id > lastID {
			lastID = id
		}
	}

	log.Infof("opened  last record: %d  watermark: %d", lastID, index.Watermark())

	return &Store{
		log:         log,
		db:          db,
		index:       index,
		cache:       cache.New(expiry, cacheCleanupInterval),
		threshold:   threshold,
		recordLocks: newKeyedLock(),
		aliasLocks:  newKeyedLock(),
		lastID:      lastID,
	}, nil
}

// Index - the cross reference index for range queries
func (s *Store) Index() *xref.Index {
	return s.index
}

// Store - save data under a canonical reference and return its record id
//
// identical data stored again under the same reference returns the
// existing id
func (s *Store) Store(data []byte, c constituent.Constituent, reference string) (uint64, error) {
	alias, err := constituent.Parse(c, reference)
	if nil != err {
		return 0, err
	}

	if constituent.Content == c {
		if err := constituent.VerifyDigest(data, alias.Reference); nil != err {
			s.log.Warnf("store: %s  digest of data: %s", alias, constituent.Digest(data))
			return 0, err
		}
	}

	unlock := s.aliasLocks.lock(string(alias.Key()))
	defer unlock()

	existingID, err := s.index.Resolve(alias)
	if nil == err {
		if constituent.Content == c {
			return existingID, nil
		}
		existing, err := s.Retrieve(c, reference)
		if nil == err && bytes.Equal(existing, data) {
			return existingID, nil
		}
		return 0, fault.ErrAliasConflict
	} else if !fault.IsErrNotFound(err) {
		return 0, err
	}

	id := atomic.AddUint64(&s.lastID, 1)

	unlockRecord := s.recordLocks.lock(strconv.FormatUint(id, 10))
	defer unlockRecord()

	// a lower id may still be unbound when the watermark passes it
	if err := s.index.MarkPending(id); nil != err {
		return 0, err
	}

	r := record.New(id, alias, data, s.threshold)
	if err := s.commit(r); nil != err {
		return 0, err
	}

	if err := s.index.Bind(alias, id); nil != err {
		s.log.Errorf("record: %d  bind: %s  error: %s", id, alias, err)
		return 0, err
	}
	if err := s.index.Advance(id); nil != err {
		return 0, err
	}
	if err := s.index.ClearPending(id); nil != err {
		return 0, err
	}

	s.log.Debugf("stored record: %d  alias: %s  bytes: %d  compressed: %t", id, alias, len(data), r.Compressed)
	return id, nil
}

// Retrieve - fetch the original bytes for a reference
//
// a coordinate with no exact match resolves to the oldest record in
// its grid cell
func (s *Store) Retrieve(c constituent.Constituent, reference string) ([]byte, error) {
	alias, err := constituent.Parse(c, reference)
	if nil != err {
		return nil, err
	}

	id, err := s.resolve(alias)
	if nil != err {
		return nil, err
	}

	r, err := s.Record(id)
	if nil != err {
		return nil, err
	}
	return s.data(r)
}

func (s *Store) resolve(alias constituent.Alias) (uint64, error) {
	id, err := s.index.Resolve(alias)
	if nil == err {
		return id, nil
	}
	if !fault.IsErrNotFound(err) {
		return 0, err
	}
	if constituent.Coordinate != alias.Constituent {
		return 0, fault.ErrRecordNotFound
	}

	coordinate, err := constituent.ParseCoordinate(alias.Reference)
	if nil != err {
		return 0, err
	}
	ids, err := s.index.Bucket(coordinate.Cell())
	if nil != err {
		return 0, err
	}
	if 0 == len(ids) {
		return 0, fault.ErrRecordNotFound
	}
	return ids[0], nil
}

// payload of a record, verified against any content alias it carries
func (s *Store) data(r *record.Record) ([]byte, error) {
	data, err := r.Data()
	if nil != err {
		return nil, err
	}
	if a, ok := r.ContentAlias(); ok {
		if err := constituent.VerifyDigest(data, a.Reference); nil != err {
			s.log.Criticalf("record: %d  content does not match: %s", r.ID, a.Reference)
			return nil, err
		}
	}
	return data, nil
}

// Link - add an alias to an existing record
func (s *Store) Link(id uint64, c constituent.Constituent, reference string) error {
	alias, err := constituent.Parse(c, reference)
	if nil != err {
		return err
	}

	// lock order: alias then record
	unlock := s.aliasLocks.lock(string(alias.Key()))
	defer unlock()
	unlockRecord := s.recordLocks.lock(strconv.FormatUint(id, 10))
	defer unlockRecord()

	r, err := s.Record(id)
	if nil != err {
		return err
	}

	if constituent.Content == c {
		data, err := r.Data()
		if nil != err {
			return err
		}
		if err := constituent.VerifyDigest(data, alias.Reference); nil != err {
			return err
		}
	}

	existingID, err := s.index.Resolve(alias)
	if nil == err && existingID != id {
		return fault.ErrAliasConflict
	} else if nil != err && !fault.IsErrNotFound(err) {
		return err
	}

	if r.HasAlias(alias) {
		if nil == err {
			return nil // already linked
		}
		// record has the alias but the index lost it
		return s.index.Bind(alias, id)
	}

	if err := s.index.MarkPending(id); nil != err {
		return err
	}
	if err := s.commit(r.WithAlias(alias)); nil != err {
		return err
	}
	if err := s.index.Bind(alias, id); nil != err {
		s.log.Errorf("record: %d  bind: %s  error: %s", id, alias, err)
		return err
	}
	if err := s.index.ClearPending(id); nil != err {
		return err
	}

	s.log.Debugf("linked record: %d  alias: %s", id, alias)
	return nil
}

// Record - fetch a stored record by id
//
// records are cached for CacheExpiry after they are read or written, so
// a change made to the database behind the store is not seen until the
// entry expires; content digests are still checked on every Retrieve
func (s *Store) Record(id uint64) (*record.Record, error) {
	cacheKey := strconv.FormatUint(id, 10)
	if r, found := s.cache.Get(cacheKey); found {
		return r.(*record.Record), nil
	}

	packed, err := s.db.Pool.Records.Get(record.Key(id))
	if nil != err {
		return nil, err
	}
	if nil == packed {
		return nil, fault.ErrRecordNotFound
	}

	r, err := record.Packed(packed).Unpack()
	if nil != err {
		s.log.Errorf("record: %d  unpack error: %s", id, err)
		return nil, err
	}

	s.cache.Set(cacheKey, r, cache.DefaultExpiration)
	return r, nil
}

// write a record and then refresh the cache
func (s *Store) commit(r *record.Record) error {
	packed, err := r.Pack()
	if nil != err {
		return err
	}

	tx := s.db.Begin()
	tx.Put(s.db.Pool.Records, record.Key(r.ID), packed)
	tx.PutN(s.db.Pool.Counters, recordCounterKey, atomic.LoadUint64(&s.lastID))
	if err := tx.Commit(); nil != err {
		return err
	}

	s.cache.Set(strconv.FormatUint(r.ID, 10), r, cache.DefaultExpiration)
	return nil
}
