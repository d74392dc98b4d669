// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/cyclemesh/background"
	"github.com/bitmark-inc/cyclemesh/queue"
)

func TestReloadAppliesRetryPolicy(t *testing.T) {
	dir := t.TempDir()
	fileName := writeConfiguration(t, dir, `
return {
    data_directory = ".",
    device_id = "d",
    max_retries = 1,
    retry_backoff_ms = 100,
}
`)

	q := queue.New(queue.DefaultRetryPolicy(), nil)
	changes := make(chan struct{})
	r := &reloader{
		fileName: fileName,
		changes:  changes,
		queue:    q,
	}
	bg := background.Start(background.Processes{r}, logger.New("reload"))
	defer bg.Stop()

	changes <- struct{}{}
	assert.Eventually(t, func() bool {
		return 1 == q.Policy().MaxRetries
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, q.Policy().Backoff)

	// a broken file keeps the current policy
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cyclemeshd.conf"), []byte("return 1"), 0600))
	changes <- struct{}{}
	changes <- struct{}{} // the second send waits for the first reload to finish
	assert.Equal(t, 1, q.Policy().MaxRetries)
}
