// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cyclemesh/background"
)

// counts ticks until shutdown, then records that it finished
type ticker struct {
	name     string
	ticks    int64
	args     interface{}
	finished int32
}

func (p *ticker) Run(args interface{}, shutdown <-chan struct{}) {
	p.args = args
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-time.After(time.Millisecond):
			atomic.AddInt64(&p.ticks, 1)
		}
	}
	atomic.StoreInt32(&p.finished, 1)
}

// takes a while to notice shutdown
type slow struct {
	delay    time.Duration
	finished int32
}

func (p *slow) Run(args interface{}, shutdown <-chan struct{}) {
	<-shutdown
	time.Sleep(p.delay)
	atomic.StoreInt32(&p.finished, 1)
}

func TestStartStop(t *testing.T) {
	phases := &ticker{name: "phases"}
	inbound := &ticker{name: "inbound"}

	args := "shared"
	bg := background.Start(background.Processes{phases, inbound}, args)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&phases.ticks) > 0 && atomic.LoadInt64(&inbound.ticks) > 0
	}, 5*time.Second, time.Millisecond, "processes not running")

	bg.Stop()

	for _, p := range []*ticker{phases, inbound} {
		assert.Equal(t, int32(1), atomic.LoadInt32(&p.finished), "%s: not finished after Stop", p.name)
		assert.Equal(t, args, p.args, "%s: args", p.name)
	}

	// no more work after Stop returns
	n := atomic.LoadInt64(&phases.ticks)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, n, atomic.LoadInt64(&phases.ticks))
}

func TestStopWaitsForSlowProcess(t *testing.T) {
	p := &slow{delay: 20 * time.Millisecond}
	bg := background.Start(background.Processes{p}, nil)

	start := time.Now()
	bg.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&p.finished))
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(p.delay))
}

func TestStopIsIdempotent(t *testing.T) {
	p := &ticker{name: "repeat"}
	bg := background.Start(background.Processes{p}, nil)

	bg.Stop()
	assert.NotPanics(t, bg.Stop, "second stop")

	// concurrent stops of a fresh set all return
	p = &ticker{name: "concurrent"}
	bg = background.Start(background.Processes{p}, nil)

	wg := sync.WaitGroup{}
	for i := 0; i < 8; i += 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bg.Stop()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&p.finished))
}

func TestNilStop(t *testing.T) {
	var bg *background.T
	assert.NotPanics(t, bg.Stop)
}

func TestStartNothing(t *testing.T) {
	bg := background.Start(nil, nil)
	assert.NotPanics(t, bg.Stop)
}
