// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/cyclemesh/queue"
)

// policyTarget - where a new retry policy is applied
type policyTarget interface {
	Policy() queue.RetryPolicy
	SetPolicy(policy queue.RetryPolicy)
}

// reloader - re-read the configuration on each change
//
// only the retry policy is applied, other items need a restart
type reloader struct {
	fileName  string
	variables map[string]string
	changes   <-chan struct{}
	queue     policyTarget
}

func (r *reloader) Run(args interface{}, shutdown <-chan struct{}) {
	log := args.(*logger.L)

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-r.changes:
			r.reload(log)
		}
	}
	log.Info("stopped")
}

func (r *reloader) reload(log *logger.L) {
	c, err := getConfiguration(r.fileName, r.variables)
	if nil != err {
		log.Errorf("configuration: %q  ignored, error: %s", r.fileName, err)
		return
	}

	policy := c.RetryPolicy()
	if policy == r.queue.Policy() {
		log.Debug("retry policy unchanged")
		return
	}
	r.queue.SetPolicy(policy)
	log.Infof("retry policy  max retries: %d  backoff: %s", policy.MaxRetries, policy.Backoff)
}
