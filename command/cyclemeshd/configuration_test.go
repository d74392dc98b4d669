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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/queue"
	"github.com/bitmark-inc/cyclemesh/zmqutil"
)

func writeConfiguration(t *testing.T, dir string, content string) string {
	fileName := filepath.Join(dir, "cyclemeshd.conf")
	require.NoError(t, os.WriteFile(fileName, []byte(content), 0600))
	return fileName
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	fileName := writeConfiguration(t, dir, `
return {
    data_directory = ".",
    device_id = "device-" .. arg["version"],
}
`)

	c, err := getConfiguration(fileName, map[string]string{"version": "7"})
	require.NoError(t, err)

	assert.Equal(t, "device-7", c.DeviceID)
	assert.Equal(t, 3, c.ZoneCount)
	assert.Equal(t, 125, c.PhaseDurationMs)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, 256, c.CompressionThresholdBytes)
	assert.Equal(t, "", c.PidFile)

	assert.Equal(t, filepath.Join(dir, "data"), c.Database.Directory)
	assert.Equal(t, filepath.Join(dir, "data", "cyclemesh"), c.Database.Name)
	assert.Equal(t, filepath.Join(dir, "log"), c.Logging.Directory)
	assert.Equal(t, filepath.Join(dir, "cyclemesh.public"), c.Peering.PublicKey)

	assert.DirExists(t, c.Database.Directory)
	assert.DirExists(t, c.Logging.Directory)

	assert.Equal(t, queue.RetryPolicy{
		MaxRetries: 3,
		Backoff:    250 * time.Millisecond,
		MaxBackoff: queue.DefaultMaxBackoff,
	}, c.RetryPolicy())
}

func TestOverrides(t *testing.T) {
	dir := t.TempDir()
	fileName := writeConfiguration(t, dir, `
return {
    data_directory = ".",
    pidfile = "run.pid",
    device_id = "north-7",
    zone_count = 5,
    max_retries = 0,
    retry_backoff_ms = 40,
    database = {
        directory = "db",
        name = "mesh",
    },
    peering = {
        listen = { "127.0.0.1:2140" },
        connect = {
            { address = "10.0.0.2:2140" },
        },
    },
    metrics = {
        listen = "127.0.0.1:2150",
    },
}
`)

	c, err := getConfiguration(fileName, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, c.ZoneCount)
	assert.Equal(t, filepath.Join(dir, "run.pid"), c.PidFile)
	assert.Equal(t, filepath.Join(dir, "db", "mesh"), c.Database.Name)
	assert.Equal(t, "127.0.0.1:2150", c.Metrics.Listen)
	assert.Equal(t, 0, c.RetryPolicy().MaxRetries)
	assert.Equal(t, 40*time.Millisecond, c.RetryPolicy().Backoff)

	options, err := c.BroadcastOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:2140"}, options.Listen)
	require.Equal(t, 1, len(options.Peers))
	assert.Equal(t, "10.0.0.2:2140", options.Peers[0].Address)
	assert.Nil(t, options.Peers[0].PublicKey)
	assert.Nil(t, options.Keys)
}

func TestInvalidConfigurations(t *testing.T) {
	items := []struct {
		name    string
		content string
	}{
		{"no device", `return { data_directory = "." }`},
		{"no directory", `return { device_id = "d" }`},
		{"zero zones", `return { data_directory = ".", device_id = "d", zone_count = 0 }`},
		{"zero phase", `return { data_directory = ".", device_id = "d", phase_duration_ms = 0 }`},
		{"negative retries", `return { data_directory = ".", device_id = "d", max_retries = -1 }`},
		{"database path", `return { data_directory = ".", device_id = "d", database = { name = "a/b" } }`},
	}

	for _, item := range items {
		fileName := writeConfiguration(t, t.TempDir(), item.content)
		_, err := getConfiguration(fileName, nil)
		assert.Error(t, err, item.name)
		assert.True(t, fault.IsErrInvalid(err), "%s: %s", item.name, err)
	}
}

func TestEncryptedPeering(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, zmqutil.MakeKeyPair(filepath.Join(dir, publicKeyFilename), filepath.Join(dir, privateKeyFilename)))
	peerKey, err := os.ReadFile(filepath.Join(dir, publicKeyFilename))
	require.NoError(t, err)

	fileName := writeConfiguration(t, dir, `
local function read(name)
    local f = assert(io.open(arg["dir"] .. "/" .. name, "r"))
    local r = f:read("*a")
    f:close()
    return r
end

return {
    data_directory = ".",
    device_id = "secure",
    peering = {
        encrypt = true,
        connect = {
            { address = "10.0.0.2:2140", public_key = read("cyclemesh.public") },
        },
    },
}
`)

	c, err := getConfiguration(fileName, map[string]string{"dir": dir})
	require.NoError(t, err)

	options, err := c.BroadcastOptions()
	require.NoError(t, err)
	require.NotNil(t, options.Keys)

	expected, private, err := zmqutil.ParseKey(string(peerKey))
	require.NoError(t, err)
	assert.False(t, private)
	assert.Equal(t, expected, options.Peers[0].PublicKey)
	assert.Equal(t, expected, options.Keys.Public)
}

func TestEncryptedPeeringWithoutKeys(t *testing.T) {
	dir := t.TempDir()
	fileName := writeConfiguration(t, dir, `
return {
    data_directory = ".",
    device_id = "secure",
    peering = { encrypt = true },
}
`)

	c, err := getConfiguration(fileName, nil)
	require.NoError(t, err)

	_, err = c.BroadcastOptions()
	assert.Error(t, err)
}
