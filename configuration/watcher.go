// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"os"
	"path/filepath"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/cyclemesh/background"
)

// Watcher - reports changes to one file
//
// the containing directory is watched so editors that replace the
// file are also seen
type Watcher struct {
	log      *logger.L
	watcher  *fsnotify.Watcher
	filePath string
	changes  chan struct{}
	bg       *background.T
}

// NewWatcher - start watching a file
func NewWatcher(fileName string) (*Watcher, error) {
	filePath, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		return nil, err
	}
	if _, err := os.Stat(filePath); nil != err {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}
	err = watcher.Add(filepath.Dir(filePath))
	if nil != err {
		watcher.Close()
		return nil, err
	}

	w := &Watcher{
		log:      logger.New("config-watcher"),
		watcher:  watcher,
		filePath: filePath,
		changes:  make(chan struct{}, 1),
	}
	w.bg = background.Start(background.Processes{w}, w.log)
	return w, nil
}

// Changes - receives after each change, changes are merged
// while a receive is pending
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Stop - stop watching
func (w *Watcher) Stop() {
	w.bg.Stop()
	w.watcher.Close()
}

// Run - event loop
func (w *Watcher) Run(args interface{}, shutdown <-chan struct{}) {
	log := args.(*logger.L)
	log.Infof("watching: %q", w.filePath)

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-w.watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Clean(event.Name) != w.filePath {
				continue
			}
			if !changed(event) {
				continue
			}
			log.Infof("file event: %v", event)
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watch error: %s", err)
		}
	}
	log.Info("stopped")
}

func changed(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Rename == fsnotify.Rename
}
