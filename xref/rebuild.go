// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package xref

import (
	"fmt"

	"github.com/bitmark-inc/cyclemesh/record"
	"github.com/bitmark-inc/cyclemesh/storage"
)

// Rebuild - drop the whole index and replay every record in id order
func (ix *Index) Rebuild() error {
	ix.log.Info("rebuilding index")

	if err := ix.db.InvalidateIndex(); nil != err {
		return err
	}
	if err := ix.db.DropIndex(); nil != err {
		return err
	}

	ix.watermarkLock.Lock()
	ix.watermark = 0
	ix.watermarkLock.Unlock()

	n, err := ix.replay(ix.db.Pool.Records.NewFetchCursor())
	if nil != err {
		return err
	}

	if err := ix.db.ReindexDone(); nil != err {
		return err
	}
	ix.log.Infof("index rebuilt from: %d records  watermark: %d", n, ix.Watermark())
	return nil
}

// CatchUp - index records committed after the watermark and any
// record left with a pending alias
func (ix *Index) CatchUp() error {
	start := ix.Watermark() + 1

	pending, err := ix.Pending()
	if nil != err {
		return err
	}

	for _, id := range pending {
		packed, err := ix.db.Pool.Records.Get(record.Key(id))
		if nil != err {
			return err
		}
		if nil != packed {
			r, err := record.Packed(packed).Unpack()
			if nil != err {
				return err
			}
			if err := ix.index(r); nil != err {
				return err
			}
		}
		if err := ix.ClearPending(id); nil != err {
			return err
		}
	}

	n, err := ix.replay(ix.db.Pool.Records.NewFetchCursor().Seek(record.Key(start)))
	if nil != err {
		return err
	}
	if n > 0 || len(pending) > 0 {
		ix.log.Infof("caught up: %d records  %d pending", n, len(pending))
	}
	return nil
}

// replay records from cursor, binding every alias
func (ix *Index) replay(cursor *storage.FetchCursor) (int, error) {
	n := 0
	err := cursor.Map(func(key []byte, value []byte) error {
		r, err := record.Packed(value).Unpack()
		if nil != err {
			return fmt.Errorf("record: %x: %w", key, err)
		}
		if err := ix.index(r); nil != err {
			return err
		}
		n += 1
		return nil
	})
	return n, err
}

// bind every alias of a record and advance the watermark
func (ix *Index) index(r *record.Record) error {
	for _, a := range r.AllAliases() {
		if err := ix.Bind(a, r.ID); nil != err {
			ix.log.Errorf("record: %d  alias: %s  error: %s", r.ID, a, err)
			return err
		}
	}
	return ix.Advance(r.ID)
}
