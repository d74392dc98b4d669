// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/cyclemesh/configuration"
	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/node"
	"github.com/bitmark-inc/cyclemesh/queue"
	"github.com/bitmark-inc/cyclemesh/store"
	"github.com/bitmark-inc/cyclemesh/util"
	"github.com/bitmark-inc/cyclemesh/worker"
	"github.com/bitmark-inc/cyclemesh/zmqutil"
	"github.com/bitmark-inc/cyclemesh/zone"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultPublicKeyFile  = "cyclemesh.public"
	defaultPrivateKeyFile = "cyclemesh.private"

	defaultLevelDBDirectory = "data"
	defaultDatabase         = "cyclemesh"

	defaultLogDirectory = "log"
	defaultLogFile      = "cyclemeshd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultZoneCount     = zone.DefaultZoneCount
	defaultPhaseDuration = 125 // ms
	defaultInboundQueue  = 1000
	maximumZoneCount     = 256
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

type MetricsType struct {
	Listen string `gluamapper:"listen" json:"listen"`
}

type PeerType struct {
	Address   string `gluamapper:"address" json:"address"`
	PublicKey string `gluamapper:"public_key" json:"public_key"`
}

type PeeringType struct {
	Listen     []string   `gluamapper:"listen" json:"listen"`
	Connect    []PeerType `gluamapper:"connect" json:"connect"`
	Encrypt    bool       `gluamapper:"encrypt" json:"encrypt"`
	PublicKey  string     `gluamapper:"public_key" json:"public_key"`
	PrivateKey string     `gluamapper:"private_key" json:"private_key"`
}

type Configuration struct {
	DataDirectory string `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string `gluamapper:"pidfile" json:"pidfile"`
	DeviceID      string `gluamapper:"device_id" json:"device_id"`

	ZoneCount                 int     `gluamapper:"zone_count" json:"zone_count"`
	PhaseDurationMs           int     `gluamapper:"phase_duration_ms" json:"phase_duration_ms"`
	MaxRetries                int     `gluamapper:"max_retries" json:"max_retries"`
	RetryBackoffMs            int     `gluamapper:"retry_backoff_ms" json:"retry_backoff_ms"`
	AckTimeoutMs              int     `gluamapper:"ack_timeout_ms" json:"ack_timeout_ms"`
	DriftToleranceMs          int     `gluamapper:"drift_tolerance_ms" json:"drift_tolerance_ms"`
	ResyncIntervalCycles      int     `gluamapper:"resync_interval_cycles" json:"resync_interval_cycles"`
	CompressionThresholdBytes int     `gluamapper:"compression_threshold_bytes" json:"compression_threshold_bytes"`
	Workers                   int     `gluamapper:"workers" json:"workers"`
	InboundRate               float64 `gluamapper:"inbound_rate" json:"inbound_rate"`
	InboundQueue              int     `gluamapper:"inbound_queue" json:"inbound_queue"`
	LogTransmissions          bool    `gluamapper:"log_transmissions" json:"log_transmissions"`

	Database DatabaseType         `gluamapper:"database" json:"database"`
	Metrics  MetricsType          `gluamapper:"metrics" json:"metrics"`
	Peering  PeeringType          `gluamapper:"peering" json:"peering"`
	Logging  logger.Configuration `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string, variables map[string]string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		ZoneCount:                 defaultZoneCount,
		PhaseDurationMs:           defaultPhaseDuration,
		MaxRetries:                queue.DefaultMaxRetries,
		RetryBackoffMs:            int(queue.DefaultBackoff / time.Millisecond),
		AckTimeoutMs:              int(node.DefaultAckTimeout / time.Millisecond),
		DriftToleranceMs:          int(cycle.DefaultDriftTolerance / time.Millisecond),
		ResyncIntervalCycles:      cycle.DefaultResyncInterval,
		CompressionThresholdBytes: store.DefaultCompressionThreshold,
		Workers:                   worker.DefaultWorkers,
		InboundQueue:              defaultInboundQueue,

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      defaultDatabase,
		},

		Peering: PeeringType{
			PublicKey:  defaultPublicKeyFile,
			PrivateKey: defaultPrivateKeyFile,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options, variables); err != nil {
		return nil, err
	}

	if err := options.check(); nil != err {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("%w: path: %q is not a valid directory", fault.ErrInvalidConfiguration, options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("%w: path: %q is not a directory", fault.ErrInvalidConfiguration, options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Database.Directory,
		&options.Peering.PublicKey,
		&options.Peering.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = util.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("%w: files: %q is not plain name", fault.ErrInvalidConfiguration, *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// range checks on the numeric items
func (c *Configuration) check() error {
	if "" == c.DeviceID {
		return fmt.Errorf("%w: device_id is required", fault.ErrInvalidConfiguration)
	}
	if c.ZoneCount < 1 || c.ZoneCount > maximumZoneCount {
		return fmt.Errorf("%w: zone_count: %d", fault.ErrInvalidZoneCount, c.ZoneCount)
	}

	positive := []struct {
		name  string
		value int
	}{
		{"phase_duration_ms", c.PhaseDurationMs},
		{"retry_backoff_ms", c.RetryBackoffMs},
		{"ack_timeout_ms", c.AckTimeoutMs},
		{"drift_tolerance_ms", c.DriftToleranceMs},
		{"workers", c.Workers},
		{"inbound_queue", c.InboundQueue},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s: %d must be positive", fault.ErrInvalidConfiguration, p.name, p.value)
		}
	}
	if c.MaxRetries < 0 || c.ResyncIntervalCycles < 0 || c.InboundRate < 0 {
		return fmt.Errorf("%w: negative retry, resync or rate value", fault.ErrInvalidConfiguration)
	}
	return nil
}

// RetryPolicy - queue policy from the configured values
func (c *Configuration) RetryPolicy() queue.RetryPolicy {
	return queue.RetryPolicy{
		MaxRetries: c.MaxRetries,
		Backoff:    milliseconds(c.RetryBackoffMs),
		MaxBackoff: queue.DefaultMaxBackoff,
	}
}

// BroadcastOptions - sockets for the zmq transport
func (c *Configuration) BroadcastOptions() (zmqutil.Options, error) {
	options := zmqutil.Options{
		Listen: c.Peering.Listen,
	}

	if c.Peering.Encrypt {
		keys, err := zmqutil.ReadKeys(c.Peering.PublicKey, c.Peering.PrivateKey)
		if nil != err {
			return options, err
		}
		options.Keys = keys
	}

	for _, p := range c.Peering.Connect {
		peer := zmqutil.Peer{
			Address: p.Address,
		}
		if "" != p.PublicKey {
			key, private, err := zmqutil.ParseKey(p.PublicKey)
			if nil != err {
				return options, err
			}
			if private {
				return options, fmt.Errorf("%w: peer: %q has a private key", fault.ErrInvalidPublicKeyFile, p.Address)
			}
			peer.PublicKey = key
		}
		options.Peers = append(options.Peers, peer)
	}
	return options, nil
}

func milliseconds(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
