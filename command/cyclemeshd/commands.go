// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/store"
	"github.com/bitmark-inc/cyclemesh/util"
	"github.com/bitmark-inc/cyclemesh/zmqutil"
	"github.com/bitmark-inc/cyclemesh/zone"
)

const (
	publicKeyFilename  = "cyclemesh.public"
	privateKeyFilename = "cyclemesh.private"
)

// setup command handler
//
// commands that run to create key files these commands cannot access
// any internal database or states or the configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-keys", "keys":
		publicKeyFile := getFilenameWithDirectory(arguments, publicKeyFilename)
		privateKeyFile := getFilenameWithDirectory(arguments, privateKeyFilename)

		if util.EnsureFileExists(privateKeyFile) {
			fmt.Printf("generate private key: %q error: %s\n", privateKeyFile, fault.ErrKeyFileAlreadyExists)
			exitwithstatus.Exit(1)
		}

		err := zmqutil.MakeKeyPair(publicKeyFile, privateKeyFile)
		if nil != err {
			fmt.Printf("generate private key: %q and public key: %q error: %s\n", privateKeyFile, publicKeyFile, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated private key: %q and public key: %q\n", privateKeyFile, publicKeyFile)

	case "start", "run":
		return false // continue processing

	case "store", "retrieve", "link", "query", "stats", "reindex":
		return false // database commands

	case "config-test", "cfg", "zone":
		return false // configuration commands

	case "version", "v":
		fmt.Printf("%s\n", version)

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}

		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  gen-keys [DIR]             (keys)   - create private key in: %q\n", "DIR/"+privateKeyFilename)
		fmt.Printf("                                        and the public key in: %q\n", "DIR/"+publicKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  zone                                - display the zone of the configured device\n")
		fmt.Printf("\n")

		fmt.Printf("  store TYPE REF [FILE]               - store FILE (or stdin) under a path, content or coordinate\n")
		fmt.Printf("                                        reference and print the record id\n")
		fmt.Printf("\n")

		fmt.Printf("  retrieve TYPE REF                   - write the payload for a reference to stdout\n")
		fmt.Printf("\n")

		fmt.Printf("  link ID TYPE REF                    - add an alias to an existing record\n")
		fmt.Printf("\n")

		fmt.Printf("  query path PREFIX                   - list records with a path at or below PREFIX\n")
		fmt.Printf("  query box S W N E PRECISION         - list records with a coordinate inside the box\n")
		fmt.Printf("                                        negative values need \"--\" before the command\n")
		fmt.Printf("\n")

		fmt.Printf("  stats                               - display record and index totals\n")
		fmt.Printf("\n")

		fmt.Printf("  reindex                             - rebuild the cross reference index\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "zone":
		coordinator, err := zone.NewCoordinator(options.ZoneCount)
		if nil != err {
			exitwithstatus.Message("error: %s", err)
		}
		z := coordinator.ZoneOf(options.DeviceID)
		fmt.Printf("device: %q  zone: %s of %d\n", options.DeviceID, z, coordinator.ZoneCount())

	case "config-test", "cfg":
		printJSON(options)

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
// the store is open so these commands can access and/or change the
// records and index
func processDataCommand(log *logger.L, arguments []string, st *store.Store) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "store":
		if len(arguments) < 2 {
			exitwithstatus.Message("missing TYPE REF arguments")
		}
		var data []byte
		var err error
		if len(arguments) >= 3 {
			data, err = os.ReadFile(arguments[2])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if nil != err {
			exitwithstatus.Message("read error: %s", err)
		}
		id, err := st.StoreDataUnified(data, arguments[0], arguments[1])
		if nil != err {
			exitwithstatus.Message("store error: %s", err)
		}
		log.Infof("stored record: %d  %s: %q", id, arguments[0], arguments[1])
		fmt.Printf("%d\n", id)

	case "retrieve":
		if len(arguments) < 2 {
			exitwithstatus.Message("missing TYPE REF arguments")
		}
		data, err := st.RetrieveDataUnified(arguments[0], arguments[1])
		if nil != err {
			exitwithstatus.Message("retrieve error: %s", err)
		}
		os.Stdout.Write(data)

	case "link":
		if len(arguments) < 3 {
			exitwithstatus.Message("missing ID TYPE REF arguments")
		}
		id, err := strconv.ParseUint(arguments[0], 10, 64)
		if nil != err {
			exitwithstatus.Message("record id: %q  error: %s", arguments[0], err)
		}
		c, err := constituent.FromString(arguments[1])
		if nil != err {
			exitwithstatus.Message("link error: %s", err)
		}
		if err := st.Link(id, c, arguments[2]); nil != err {
			exitwithstatus.Message("link error: %s", err)
		}
		log.Infof("linked record: %d  %s: %q", id, c, arguments[2])

	case "query":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing KIND arguments")
		}
		results, err := query(st, arguments[0], arguments[1:])
		if nil != err {
			exitwithstatus.Message("query error: %s", err)
		}
		printJSON(results)

	case "stats", "reindex":
		stats, err := st.Stats()
		if nil != err {
			exitwithstatus.Message("stats error: %s", err)
		}
		printJSON(stats)

	default:
		exitwithstatus.Message("error: no such command: %s", command)

	}

	// indicate processing complete and perform normal exit from main
	return true
}

func printJSON(item interface{}) {
	b, err := json.Marshal(item)
	if err != nil {
		exitwithstatus.Message("error: %s", err)
	}
	var out bytes.Buffer
	json.Indent(&out, b, "", "  ")
	out.WriteTo(os.Stdout)
	os.Stdout.WriteString("\n")
}

func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
