// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"fmt"
	"testing"

	"github.com/bitmark-inc/cyclemesh/fault"
)

var (
	ErrConflictOne = fault.ConflictError("conflict one")
	ErrDriftOne    = fault.DriftError("drift one")
	ErrExistsOne   = fault.ExistsError("exists one")
	ErrHashOne     = fault.HashMismatchError("hash one")
	ErrInvalidOne  = fault.InvalidError("invalid one")
	ErrNotFoundOne = fault.NotFoundError("not found one")
	ErrProcessOne  = fault.ProcessError("process one")
	ErrTimeoutOne  = fault.TimeoutError("timeout one")
)

// test that the various error classes are distinct
func TestClasses(t *testing.T) {
	errorList := []struct {
		err      error
		conflict bool
		drift    bool
		exists   bool
		hash     bool
		invalid  bool
		notFound bool
		process  bool
		timeout  bool
	}{
		{ErrConflictOne, true, false, false, false, false, false, false, false},
		{ErrDriftOne, false, true, false, false, false, false, false, false},
		{ErrExistsOne, false, false, true, false, false, false, false, false},
		{ErrHashOne, false, false, false, true, false, false, false, false},
		{ErrInvalidOne, false, false, false, false, true, false, false, false},
		{ErrNotFoundOne, false, false, false, false, false, true, false, false},
		{ErrProcessOne, false, false, false, false, false, false, true, false},
		{ErrTimeoutOne, false, false, false, false, false, false, false, true},
		{fmt.Errorf("record 12: %w", fault.ErrRecordNotFound), false, false, false, false, false, true, false, false},
		{fmt.Errorf("bind: %w", fault.ErrAliasConflict), true, false, false, false, false, false, false, false},
	}

	for i, e := range errorList {
		err := e.err
		if fault.IsErrConflict(err) != e.conflict {
			t.Errorf("%d: expected 'conflict' == %v for err = %v", i, e.conflict, err)
		}
		if fault.IsErrDrift(err) != e.drift {
			t.Errorf("%d: expected 'drift' == %v for err = %v", i, e.drift, err)
		}
		if fault.IsErrExists(err) != e.exists {
			t.Errorf("%d: expected 'exists' == %v for err = %v", i, e.exists, err)
		}
		if fault.IsErrHashMismatch(err) != e.hash {
			t.Errorf("%d: expected 'hash mismatch' == %v for err = %v", i, e.hash, err)
		}
		if fault.IsErrInvalid(err) != e.invalid {
			t.Errorf("%d: expected 'invalid' == %v for err = %v", i, e.invalid, err)
		}
		if fault.IsErrNotFound(err) != e.notFound {
			t.Errorf("%d: expected 'not found' == %v for err = %v", i, e.notFound, err)
		}
		if fault.IsErrProcess(err) != e.process {
			t.Errorf("%d: expected 'process' == %v for err = %v", i, e.process, err)
		}
		if fault.IsErrTimeout(err) != e.timeout {
			t.Errorf("%d: expected 'timeout' == %v for err = %v", i, e.timeout, err)
		}
	}
}
