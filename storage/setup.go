// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/logger"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Records  *PoolHandle `prefix:"R" database:"records"`
	Counters *PoolHandle `prefix:"N" database:"records"`
	Aliases  *PoolHandle `prefix:"A" database:"index"`
	Buckets  *PoolHandle `prefix:"G" database:"index"`
	Meta     *PoolHandle `prefix:"M" database:"index"`
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentRecordsDBVersion = 0x100
	currentIndexDBVersion   = 0x100
)

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// database ordering, records are always committed first
const (
	recordsDB = iota
	indexDB
	databaseCount
)

// DB - holds the database handles
type DB struct {
	sync.RWMutex
	Pool pools

	databases   [databaseCount]*leveldb.DB
	indexFile   string
	readOnly    bool
	mustReindex bool
}

// Open - open up the database connection
//
// database is a path prefix; "-records.leveldb" and "-index.leveldb"
// are appended for the two databases
func Open(database string, readOnly bool) (*DB, error) {
	recordsDatabase := database + "-records.leveldb"
	indexDatabase := database + "-index.leveldb"

	records, err := openFile(recordsDatabase, readOnly)
	if nil != err {
		return nil, err
	}
	index, err := openFile(indexDatabase, readOnly)
	if nil != err {
		records.Close()
		return nil, err
	}

	db, err := setup(records, index, readOnly)
	if nil != err {
		return nil, err
	}
	db.indexFile = indexDatabase
	return db, nil
}

// OpenMemory - volatile databases for testing and simulation
func OpenMemory() (*DB, error) {
	records, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		return nil, err
	}
	index, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if nil != err {
		records.Close()
		return nil, err
	}
	return setup(records, index, ReadWrite)
}

func openFile(name string, readOnly bool) (*leveldb.DB, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}
	return leveldb.OpenFile(name, opt)
}

func setup(records *leveldb.DB, index *leveldb.DB, readOnly bool) (*DB, error) {
	db := &DB{
		readOnly: readOnly,
	}
	db.databases[recordsDB] = records
	db.databases[indexDB] = index

	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	recordsVersion, err := getVersion(records)
	if nil != err {
		return nil, err
	}

	// ensure no database downgrade
	if recordsVersion > currentRecordsDBVersion {
		logger.Criticalf("records database version: %d > current version: %d", recordsVersion, currentRecordsDBVersion)
		return nil, fmt.Errorf("%w: records: %d > %d", fault.ErrDatabaseVersion, recordsVersion, currentRecordsDBVersion)
	}
	if 0 == recordsVersion && !readOnly {
		// database was empty so tag as current version
		if err := putVersion(records, currentRecordsDBVersion); nil != err {
			return nil, err
		}
	}

	indexVersion, err := getVersion(index)
	if nil != err {
		return nil, err
	}

	// anything other than the current version is rebuilt from records
	if indexVersion != currentIndexDBVersion {
		db.mustReindex = true
	}

	// this will be a struct type
	poolType := reflect.TypeOf(db.Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&db.Pool).Elem()

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return nil, fmt.Errorf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		var database int
		switch dbName := fieldInfo.Tag.Get("database"); dbName {
		case "records":
			database = recordsDB
		case "index":
			database = indexDB
		default:
			return nil, fmt.Errorf("pool: %v  has invalid database: %q", fieldInfo, dbName)
		}

		p := &PoolHandle{
			prefix:   prefix,
			limit:    limit,
			db:       db,
			database: database,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	ok = true // prevent db close
	return db, nil
}

// Close - close the database connections
func (db *DB) Close() {
	db.Lock()
	defer db.Unlock()
	for i, d := range db.databases {
		if nil != d {
			d.Close()
			db.databases[i] = nil
		}
	}
}

// MustReindex - true if the index database is absent or of another version
func (db *DB) MustReindex() bool {
	db.RLock()
	defer db.RUnlock()
	return db.mustReindex
}

// InvalidateIndex - remove the index version so that an interrupted
// rebuild is detected on the next open
func (db *DB) InvalidateIndex() error {
	db.Lock()
	defer db.Unlock()
	index := db.databases[indexDB]
	if nil == index {
		return fault.ErrNotInitialised
	}
	db.mustReindex = true
	return index.Delete(versionKey, nil)
}

// DropIndex - erase every key in the index database
func (db *DB) DropIndex() error {
	db.Lock()
	defer db.Unlock()
	index := db.databases[indexDB]
	if nil == index {
		return fault.ErrNotInitialised
	}

	batch := new(leveldb.Batch)
	iter := index.NewIterator(nil, nil)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return err
	}
	return index.Write(batch, nil)
}

// ReindexDone - called at the end of reindex
func (db *DB) ReindexDone() error {
	db.Lock()
	defer db.Unlock()
	index := db.databases[indexDB]
	if nil == index {
		return fault.ErrNotInitialised
	}
	if err := putVersion(index, currentIndexDBVersion); nil != err {
		return err
	}
	db.mustReindex = false
	return nil
}

// RemoveIndexFiles - delete an on-disk index so the next Open rebuilds it
func RemoveIndexFiles(database string) error {
	return os.RemoveAll(database + "-index.leveldb")
}

// return:
//   version number (zero if never set)
func getVersion(db *leveldb.DB) (int, error) {
	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return 0, nil
	} else if nil != err {
		return 0, err
	}

	if 4 != len(versionValue) {
		return 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	return int(binary.BigEndian.Uint32(versionValue)), nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}

// fetch the leveldb handle under read lock
func (db *DB) handle(database int) *leveldb.DB {
	db.RLock()
	defer db.RUnlock()
	return db.databases[database]
}
