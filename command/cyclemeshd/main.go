// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/bitmark-inc/cyclemesh/background"
	"github.com/bitmark-inc/cyclemesh/configuration"
	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/metrics"
	"github.com/bitmark-inc/cyclemesh/node"
	"github.com/bitmark-inc/cyclemesh/queue"
	"github.com/bitmark-inc/cyclemesh/storage"
	"github.com/bitmark-inc/cyclemesh/store"
	"github.com/bitmark-inc/cyclemesh/transport"
	"github.com/bitmark-inc/cyclemesh/worker"
	"github.com/bitmark-inc/cyclemesh/zmqutil"
	"github.com/bitmark-inc/cyclemesh/zone"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// all devices count phases from the same instant
var epochOrigin = time.Unix(0, 0).UTC()

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	variables := map[string]string{
		"version": version,
	}
	theConfiguration, err := getConfiguration(configurationFile, variables)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	if len(options["verbose"]) > 0 {
		theConfiguration.Logging.Console = true
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// a missing index is rebuilt by store.Open
	if len(arguments) > 0 && "reindex" == arguments[0] {
		log.Warn("removing index for rebuild")
		if err := storage.RemoveIndexFiles(theConfiguration.Database.Name); nil != err {
			log.Criticalf("remove index error: %s", err)
			exitwithstatus.Message("remove index error: %s", err)
		}
	}

	// start the data storage
	log.Infof("database: %q", theConfiguration.Database.Name)
	db, err := storage.Open(theConfiguration.Database.Name, storage.ReadWrite)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer db.Close()

	st, err := store.Open(db, store.Options{
		CompressionThreshold: theConfiguration.CompressionThresholdBytes,
	})
	if nil != err {
		log.Criticalf("store initialise error: %s", err)
		exitwithstatus.Message("store initialise error: %s", err)
	}

	// these commands are allowed to access the internal database
	if len(arguments) > 0 && processDataCommand(log, arguments, st) {
		return
	}

	coordinator, err := zone.NewCoordinator(theConfiguration.ZoneCount)
	if nil != err {
		log.Criticalf("zone initialise error: %s", err)
		exitwithstatus.Message("zone initialise error: %s", err)
	}

	pool := worker.New(theConfiguration.Workers, worker.DefaultBacklog)
	defer pool.Stop()

	// after a drift the epoch is pulled back onto the shared grid
	phaseDuration := milliseconds(theConfiguration.PhaseDurationMs)
	epoch := cycle.NewEpoch(epochOrigin)
	scheduler := cycle.New(epoch, cycle.Options{
		PhaseDuration:  phaseDuration,
		DriftTolerance: milliseconds(theConfiguration.DriftToleranceMs),
		ResyncInterval: uint64(theConfiguration.ResyncIntervalCycles),
		Synchroniser:   cycle.NewGridSynchroniser(epoch, epochOrigin, phaseDuration),
		Pool:           pool,
	})

	q := queue.New(theConfiguration.RetryPolicy(), nil)

	// network sockets
	broadcastOptions, err := theConfiguration.BroadcastOptions()
	if nil != err {
		log.Criticalf("peering configuration error: %s", err)
		exitwithstatus.Message("peering configuration error: %s", err)
	}
	broadcast, err := zmqutil.NewBroadcast(broadcastOptions)
	if nil != err {
		log.Criticalf("broadcast initialise error: %s", err)
		exitwithstatus.Message("broadcast initialise error: %s", err)
	}
	defer broadcast.Close()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	frameLog := logger.New("frames")
	device, err := node.New(coordinator, scheduler, q, st, broadcast, node.Options{
		DeviceID:         theConfiguration.DeviceID,
		AckTimeout:       milliseconds(theConfiguration.AckTimeoutMs),
		LogTransmissions: theConfiguration.LogTransmissions,
		InboundRate:      theConfiguration.InboundRate,
		InboundBurst:     int(theConfiguration.InboundRate) + 1,
		InboundQueue:     theConfiguration.InboundQueue,
		Recorder:         recorder,
		Deliver: func(f *transport.Frame) {
			frameLog.Debugf("%s from: %q  id: %s  bytes: %d", f.Kind, f.Source, f.ID, len(f.Payload))
		},
	})
	if nil != err {
		log.Criticalf("node initialise error: %s", err)
		exitwithstatus.Message("node initialise error: %s", err)
	}
	log.Infof("device: %q  zone: %s", device.DeviceID(), device.Zone())

	if err := device.Start(); nil != err {
		log.Criticalf("node start error: %s", err)
		exitwithstatus.Message("node start error: %s", err)
	}
	defer device.Stop()

	// optional metrics and health endpoint
	if "" != theConfiguration.Metrics.Listen {
		server := newStatusServer(theConfiguration.Metrics.Listen, registry, device)
		go func() {
			log.Infof("status listener on: %s", theConfiguration.Metrics.Listen)
			if err := server.ListenAndServe(); nil != err {
				log.Errorf("status listener: %s", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
		}()
	}

	// re-apply the parts of the configuration that can change
	watcher, err := configuration.NewWatcher(configurationFile)
	if nil != err {
		log.Warnf("configuration changes will not be seen: %s", err)
	} else {
		defer watcher.Stop()
		r := &reloader{
			fileName:  configurationFile,
			variables: variables,
			changes:   watcher.Changes(),
			queue:     q,
		}
		bg := background.Start(background.Processes{r}, logger.New("reload"))
		defer bg.Stop()
	}

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}
