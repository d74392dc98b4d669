// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/cyclemesh/fault"
)

// Transaction - batched writes across pools
//
// records batches are written before index batches so that an index
// entry can never refer to a record that was not committed
type Transaction interface {
	Put(*PoolHandle, []byte, []byte)
	PutN(*PoolHandle, []byte, uint64)
	Delete(*PoolHandle, []byte)
	Commit() error
	Abort()
}

type transactionData struct {
	sync.Mutex
	db      *DB
	batches [databaseCount]*leveldb.Batch
	done    bool
}

// Begin - start a new transaction
func (db *DB) Begin() Transaction {
	t := &transactionData{
		db: db,
	}
	for i := range t.batches {
		t.batches[i] = new(leveldb.Batch)
	}
	return t
}

// Put - queue a key/value bytes pair
func (t *transactionData) Put(p *PoolHandle, key []byte, value []byte) {
	t.Lock()
	defer t.Unlock()
	t.batches[p.database].Put(p.prefixKey(key), value)
}

// PutN - queue a key with a big endian uint64 value
func (t *transactionData) PutN(p *PoolHandle, key []byte, value uint64) {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)
	t.Put(p, key, buffer)
}

// Delete - queue removal of a key
func (t *transactionData) Delete(p *PoolHandle, key []byte) {
	t.Lock()
	defer t.Unlock()
	t.batches[p.database].Delete(p.prefixKey(key))
}

// Commit - write all batches, records first
func (t *transactionData) Commit() error {
	t.Lock()
	defer t.Unlock()

	if t.done {
		return fault.ErrInvalidTransition
	}
	t.done = true

	for database, batch := range t.batches {
		if 0 == batch.Len() {
			continue
		}
		h := t.db.handle(database)
		if nil == h {
			return fault.ErrNotInitialised
		}
		if err := h.Write(batch, nil); nil != err {
			return err
		}
	}
	return nil
}

// Abort - discard all queued writes
func (t *transactionData) Abort() {
	t.Lock()
	defer t.Unlock()
	t.done = true
	for _, batch := range t.batches {
		batch.Reset()
	}
}
