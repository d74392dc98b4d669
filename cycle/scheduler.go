// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/jonboulle/clockwork"

	"github.com/bitmark-inc/cyclemesh/background"
	"github.com/bitmark-inc/cyclemesh/counter"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/worker"
)

// defaults
const (
	DefaultDriftTolerance = 20 * time.Millisecond
	DefaultResyncInterval = 60 // cycles
	resyncTimeout         = 2 * time.Second
)

// Handler - work for one phase; ctx expires at the end of the phase
type Handler func(ctx context.Context, slot Slot) error

//go:generate mockgen -destination=../mocks/synchroniser.go -package=mocks github.com/bitmark-inc/cyclemesh/cycle Synchroniser

// Synchroniser - source of the offset between the local epoch and peers
type Synchroniser interface {
	Offset(ctx context.Context) (time.Duration, error)
}

// Options - scheduler configuration
type Options struct {
	PhaseDuration  time.Duration
	DriftTolerance time.Duration
	ResyncInterval uint64 // cycles between peer resyncs, zero disables
	Clock          clockwork.Clock
	Synchroniser   Synchroniser
	Pool           *worker.Pool // created if nil
}

// Stats - scheduler totals
type Stats struct {
	Dispatched uint64 `json:"dispatched"`
	Forfeited  uint64 `json:"forfeited"`
	Drifts     uint64 `json:"drifts"`
	Resyncs    uint64 `json:"resyncs"`
}

// Scheduler - drives phase handlers at phase boundaries
type Scheduler struct {
	sync.RWMutex
	log      *logger.L
	epoch    *Epoch
	options  Options
	handlers [PhasesPerCycle][]Handler
	ownPool  bool
	bg       *background.T

	dispatched counter.Counter
	forfeited  counter.Counter
	drifts     counter.Counter
	resyncs    counter.Counter
}

// New - create a scheduler over an epoch
func New(epoch *Epoch, options Options) *Scheduler {
	if options.PhaseDuration <= 0 {
		options.PhaseDuration = DefaultPhaseDuration
	}
	if options.DriftTolerance <= 0 {
		options.DriftTolerance = DefaultDriftTolerance
	}
	if nil == options.Clock {
		options.Clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		log:     logger.New("scheduler"),
		epoch:   epoch,
		options: options,
	}
}

// RegisterPhaseHandler - run h at the start of every phase p
func (s *Scheduler) RegisterPhaseHandler(p Phase, h Handler) error {
	if !p.Valid() {
		return fault.ErrInvalidPhase
	}
	s.Lock()
	defer s.Unlock()
	s.handlers[p] = append(s.handlers[p], h)
	return nil
}

// Start - begin the phase loop
func (s *Scheduler) Start() error {
	s.Lock()
	defer s.Unlock()

	if nil != s.bg {
		return fault.ErrAlreadyInitialised
	}
	if nil == s.options.Pool {
		s.options.Pool = worker.New(worker.DefaultWorkers, worker.DefaultBacklog)
		s.ownPool = true
	}

	s.log.Infof("start  phase: %s  tolerance: %s  origin: %s",
		s.options.PhaseDuration, s.options.DriftTolerance, s.epoch.Origin().Format(time.RFC3339Nano))

	s.bg = background.Start(background.Processes{s}, s.log)
	return nil
}

// Stop - end the phase loop
func (s *Scheduler) Stop() {
	s.Lock()
	bg := s.bg
	s.bg = nil
	s.Unlock()

	if nil == bg {
		return
	}
	bg.Stop()

	s.Lock()
	pool := s.options.Pool
	if s.ownPool {
		s.options.Pool = nil
		s.ownPool = false
	} else {
		pool = nil
	}
	s.Unlock()

	if nil != pool {
		pool.Stop()
	}
	s.log.Info("stopped")
}

// Epoch - the epoch driving this scheduler
func (s *Scheduler) Epoch() *Epoch {
	return s.epoch
}

// PhaseDuration - length of one phase
func (s *Scheduler) PhaseDuration() time.Duration {
	return s.options.PhaseDuration
}

// CurrentPhase - phase containing now
func (s *Scheduler) CurrentPhase() Phase {
	return s.CurrentSlot().Phase
}

// CurrentSlot - cycle and phase containing now
func (s *Scheduler) CurrentSlot() Slot {
	return s.epoch.SlotAt(s.options.Clock.Now(), s.options.PhaseDuration)
}

// Stats - snapshot of the totals
func (s *Scheduler) Stats() Stats {
	return Stats{
		Dispatched: s.dispatched.Uint64(),
		Forfeited:  s.forfeited.Uint64(),
		Drifts:     s.drifts.Uint64(),
		Resyncs:    s.resyncs.Uint64(),
	}
}

// Run - the phase loop, a background process
func (s *Scheduler) Run(args interface{}, shutdown <-chan struct{}) {
	log := args.(*logger.L)

	clock := s.options.Clock
	pd := s.options.PhaseDuration
	tolerance := s.options.DriftTolerance

	var cancelPhase context.CancelFunc
	defer func() {
		if nil != cancelPhase {
			cancelPhase()
		}
	}()

	dispatch := func(index int64) {
		if nil != cancelPhase {
			cancelPhase()
			cancelPhase = nil
		}
		deadline := s.epoch.Boundary(index+1, pd)
		cancelPhase = s.dispatch(SlotOf(index), deadline)
	}

	now := clock.Now()
	generation := s.epoch.Generation()
	// a partly elapsed phase is skipped
	last := s.epoch.Index(now, pd)
	if s.epoch.Boundary(last, pd).Equal(now) {
		dispatch(last)
	}
	next := s.epoch.Boundary(last+1, pd)

loop:
	for {
		timer := clock.NewTimer(next.Sub(clock.Now()))
		select {
		case <-shutdown:
			timer.Stop()
			break loop
		case <-timer.Chan():
		}

		actual := clock.Now()
		jump := actual.Sub(next)
		if jump > tolerance || jump < -tolerance {
			s.drifts.Increment()
			log.Errorf("%s: expected: %s  actual: %s  offset: %s",
				fault.ErrSchedulerDrift, next.Format(time.RFC3339Nano), actual.Format(time.RFC3339Nano), jump)

			// re-enter phase zero now and ask peers for the real origin
			s.epoch.Resync(actual)
			generation = s.epoch.Generation()
			last = 0
			dispatch(last)
			next = s.epoch.Boundary(last+1, pd)
			s.Resync()
			continue loop
		}

		if g := s.epoch.Generation(); g != generation {
			generation = g
			last = s.epoch.NearestIndex(actual, pd) - 1
		}

		index := s.epoch.NearestIndex(actual, pd)
		if index > last {
			last = index
			dispatch(index)

			slot := SlotOf(index)
			interval := s.options.ResyncInterval
			if 0 == slot.Phase && interval > 0 && slot.Cycle > 0 && 0 == slot.Cycle%interval {
				s.Resync()
			}
		}
		next = s.epoch.Boundary(last+1, pd)
	}
	log.Info("phase loop shutdown")
}

// run the handlers for a slot, returning the cancel for the phase context
func (s *Scheduler) dispatch(slot Slot, deadline time.Time) context.CancelFunc {
	s.RLock()
	handlers := s.handlers[slot.Phase]
	pool := s.options.Pool
	s.RUnlock()

	if 0 == len(handlers) || nil == pool {
		return nil
	}

	ctx, cancel := clockwork.WithDeadline(context.Background(), s.options.Clock, deadline)

	for i, h := range handlers {
		h := h
		name := fmt.Sprintf("slot: %s  handler: %d", slot, i)
		s.dispatched.Increment()
		_ = pool.Submit(ctx, name, func(ctx context.Context) error {
			return h(ctx, slot)
		}, func(err error) {
			if nil != err {
				s.forfeited.Increment()
				s.log.Warnf("forfeit %s  error: %s", name, err)
			}
		})
	}
	return cancel
}

// Resync - ask the synchroniser for the peer offset without blocking
func (s *Scheduler) Resync() {
	s.RLock()
	synchroniser := s.options.Synchroniser
	pool := s.options.Pool
	s.RUnlock()

	if nil == synchroniser || nil == pool {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	err := pool.Submit(ctx, "resync", func(ctx context.Context) error {
		return s.synchronise(ctx, synchroniser)
	}, func(error) {
		cancel()
	})
	if nil != err {
		s.log.Warnf("resync: %s", err)
	}
}

// apply the peer offset to the epoch
func (s *Scheduler) synchronise(ctx context.Context, synchroniser Synchroniser) error {
	offset, err := synchroniser.Offset(ctx)
	if nil != err {
		s.log.Warnf("resync offset error: %s", err)
		return err
	}
	s.resyncs.Increment()

	if 0 == offset {
		return nil
	}

	tolerance := s.options.DriftTolerance
	if offset > tolerance || offset < -tolerance {
		s.drifts.Increment()
		s.log.Errorf("%s: peer offset: %s", fault.ErrSchedulerDrift, offset)
	} else {
		s.log.Debugf("slew offset: %s", offset)
	}
	s.epoch.Adjust(offset)
	return nil
}
