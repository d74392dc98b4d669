// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/cyclemesh/configuration"
)

func TestWatcherSeesWrites(t *testing.T) {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "cyclemeshd.conf")
	require.NoError(t, os.WriteFile(fileName, []byte(sampleConfiguration), 0600))

	w, err := configuration.NewWatcher(fileName)
	require.NoError(t, err)
	defer w.Stop()

	// a sibling file is ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0600))
	select {
	case <-w.Changes():
		t.Fatal("change reported for another file")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(fileName, []byte(sampleConfiguration+"\n"), 0600))
	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherMissingFile(t *testing.T) {
	_, err := configuration.NewWatcher(filepath.Join(t.TempDir(), "absent.conf"))
	assert.Error(t, err)
}
