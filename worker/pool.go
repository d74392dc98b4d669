// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package worker

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/cyclemesh/background"
	"github.com/bitmark-inc/cyclemesh/counter"
	"github.com/bitmark-inc/cyclemesh/fault"
)

// defaults
const (
	DefaultWorkers = 4
	DefaultBacklog = 32
)

// Func - the work to do
type Func func(ctx context.Context) error

type job struct {
	name string
	ctx  context.Context
	f    Func
	done func(error)
}

// Stats - job totals
type Stats struct {
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
	Panicked  uint64 `json:"panicked"`
	Expired   uint64 `json:"expired"`
	Rejected  uint64 `json:"rejected"`
}

// Pool - fixed number of workers reading a bounded backlog
type Pool struct {
	log     *logger.L
	jobs    chan job
	workers int
	bg      *background.T

	completed counter.Counter
	failed    counter.Counter
	panicked  counter.Counter
	expired   counter.Counter
	rejected  counter.Counter
}

type worker struct {
	id   int
	pool *Pool
}

// New - create and start a pool
func New(workers int, backlog int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if backlog <= 0 {
		backlog = DefaultBacklog
	}

	p := &Pool{
		log:     logger.New("worker"),
		jobs:    make(chan job, backlog),
		workers: workers,
	}

	processes := make(background.Processes, 0, workers)
	for i := 0; i < workers; i += 1 {
		processes = append(processes, &worker{id: i, pool: p})
	}
	p.bg = background.Start(processes, p.log)

	p.log.Infof("started: %d workers  backlog: %d", workers, backlog)
	return p
}

// Submit - queue a job without blocking
//
// done, if not nil, is called with the job result, including
// fault.ErrWorkerPoolSaturated when the backlog is full
func (p *Pool) Submit(ctx context.Context, name string, f Func, done func(error)) error {
	j := job{
		name: name,
		ctx:  ctx,
		f:    f,
		done: done,
	}
	select {
	case p.jobs <- j:
		return nil
	default:
		p.rejected.Increment()
		p.log.Warnf("rejected job: %s", name)
		if nil != done {
			done(fault.ErrWorkerPoolSaturated)
		}
		return fault.ErrWorkerPoolSaturated
	}
}

// Stop - stop all workers; queued jobs not yet started are abandoned
func (p *Pool) Stop() {
	p.bg.Stop()
	p.log.Info("stopped")
}

// Backlog - number of jobs waiting for a worker
func (p *Pool) Backlog() int {
	return len(p.jobs)
}

// Stats - snapshot of the totals
func (p *Pool) Stats() Stats {
	return Stats{
		Completed: p.completed.Uint64(),
		Failed:    p.failed.Uint64(),
		Panicked:  p.panicked.Uint64(),
		Expired:   p.expired.Uint64(),
		Rejected:  p.rejected.Uint64(),
	}
}

// Run - worker loop
func (w *worker) Run(args interface{}, shutdown <-chan struct{}) {
	log := args.(*logger.L)

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case j := <-w.pool.jobs:
			w.pool.execute(j)
		}
	}
	log.Debugf("worker: %d  shutdown", w.id)
}

func (p *Pool) execute(j job) {
	select {
	case <-j.ctx.Done():
		err := j.ctx.Err()
		p.expired.Increment()
		p.log.Warnf("job: %s  expired before start: %s", j.name, err)
		if nil != j.done {
			j.done(err)
		}
		return
	default:
	}

	err := p.call(j)

	if nil != err {
		p.failed.Increment()
		p.log.Errorf("job: %s  error: %s", j.name, err)
	} else {
		p.completed.Increment()
	}
	if nil != j.done {
		j.done(err)
	}
}

// run a job converting a panic to an error
func (p *Pool) call(j job) (err error) {
	defer func() {
		if r := recover(); nil != r {
			p.panicked.Increment()
			p.log.Criticalf("job: %s  panic: %v", j.name, r)
			p.log.Debugf("stack: %s", debug.Stack())
			err = fmt.Errorf("%w: panic: %v", fault.ErrProcessPanic, r)
		}
	}()
	return j.f(j.ctx)
}
