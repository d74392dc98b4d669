// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/cyclemesh/background"
	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/counter"
	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/limitedset"
	"github.com/bitmark-inc/cyclemesh/message"
	"github.com/bitmark-inc/cyclemesh/messagebus"
	"github.com/bitmark-inc/cyclemesh/metrics"
	"github.com/bitmark-inc/cyclemesh/queue"
	"github.com/bitmark-inc/cyclemesh/store"
	"github.com/bitmark-inc/cyclemesh/transport"
	"github.com/bitmark-inc/cyclemesh/zone"
)

// defaults
const (
	DefaultAckTimeout   = 50 * time.Millisecond
	DefaultRecentFrames = 1000
)

// TransmissionLogPrefix - path under which sent messages are logged
const TransmissionLogPrefix = "/transmissions"

// Options - node configuration
type Options struct {
	DeviceID         string
	AckTimeout       time.Duration
	LogTransmissions bool
	InboundRate      float64 // frames per second, zero is unlimited
	InboundBurst     int
	InboundQueue     int
	RecentFrames     int // size of the duplicate filter
	Clock            clockwork.Clock
	Recorder         metrics.Recorder
	Deliver          func(f *transport.Frame) // optional, called for every accepted frame
}

// Node - one device
type Node struct {
	sync.Mutex
	log     *logger.L
	options Options
	clock   clockwork.Clock
	zone    zone.Zone

	coordinator *zone.Coordinator
	scheduler   *cycle.Scheduler
	queue       *queue.Queue
	store       *store.Store
	transport   transport.Transport
	recorder    metrics.Recorder

	inbound *messagebus.Queue
	seen    *limitedset.LimitedSet
	limiter *rate.Limiter
	bg      *background.T

	// frame kind of queued control messages, absent means Data
	kinds map[string]transport.Kind

	transmitted   counter.Counter
	retried       counter.Counter
	dropped       counter.Counter
	received      counter.Counter
	stored        counter.Counter
	duplicates    counter.Counter
	invalid       counter.Counter
	rateLimited   counter.Counter
	rejected      counter.Counter
	storeFailures counter.Counter
}

// New - create a node and register its phase handlers
func New(
	coordinator *zone.Coordinator,
	scheduler *cycle.Scheduler,
	q *queue.Queue,
	st *store.Store,
	t transport.Transport,
	options Options,
) (*Node, error) {

	if "" == options.DeviceID || len(options.DeviceID) > transport.MaxSourceLength {
		return nil, fault.ErrInvalidMessage
	}
	if options.AckTimeout <= 0 {
		options.AckTimeout = DefaultAckTimeout
	}
	if options.RecentFrames <= 0 {
		options.RecentFrames = DefaultRecentFrames
	}
	if nil == options.Clock {
		options.Clock = clockwork.NewRealClock()
	}
	if nil == options.Recorder {
		options.Recorder = metrics.NoopRecorder{}
	}

	n := &Node{
		log:         logger.New("node"),
		options:     options,
		clock:       options.Clock,
		zone:        coordinator.ZoneOf(options.DeviceID),
		coordinator: coordinator,
		scheduler:   scheduler,
		queue:       q,
		store:       st,
		transport:   t,
		recorder:    options.Recorder,
		inbound:     messagebus.New(options.InboundQueue),
		seen:        limitedset.New(options.RecentFrames),
		kinds:       make(map[string]transport.Kind),
	}
	if options.InboundRate > 0 {
		burst := options.InboundBurst
		if burst <= 0 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(options.InboundRate), burst)
	}

	for p := cycle.Phase(0); p < cycle.PhasesPerCycle; p += 1 {
		if err := scheduler.RegisterPhaseHandler(p, n.HandlePhase); nil != err {
			return nil, err
		}
	}
	t.SetReceiver(n.receive)

	n.log.Infof("device: %q  zone: %s of %d", options.DeviceID, n.zone, coordinator.ZoneCount())
	return n, nil
}

// Start - begin receiving and start the scheduler
func (n *Node) Start() error {
	n.Lock()
	if nil != n.bg {
		n.Unlock()
		return fault.ErrAlreadyInitialised
	}
	n.bg = background.Start(background.Processes{&processor{node: n}}, n.log)
	n.Unlock()

	return n.scheduler.Start()
}

// Stop - stop the scheduler and the receiver
func (n *Node) Stop() {
	n.scheduler.Stop()

	n.Lock()
	bg := n.bg
	n.bg = nil
	n.Unlock()
	bg.Stop()

	n.log.Info("stopped")
}

// Zone - the zone this device belongs to
func (n *Node) Zone() zone.Zone {
	return n.zone
}

// DeviceID - this device
func (n *Node) DeviceID() string {
	return n.options.DeviceID
}

// Queue - outbound queue
func (n *Node) Queue() *queue.Queue {
	return n.queue
}

// Send - queue a payload for this device's zone
func (n *Node) Send(payload []byte, priority message.Priority) (*message.Message, error) {
	m := message.New(payload, n.zone, priority, n.clock.Now())
	m.MaxRetries = 0 // follow the queue policy
	if err := n.Enqueue(m); nil != err {
		return nil, err
	}
	return m, nil
}

// SendAddressed - queue a payload the receivers store under a reference
func (n *Node) SendAddressed(payload []byte, priority message.Priority, c constituent.Constituent, reference string) (*message.Message, error) {
	alias, err := constituent.Parse(c, reference)
	if nil != err {
		return nil, err
	}
	if constituent.Content == c {
		if err := constituent.VerifyDigest(payload, alias.Reference); nil != err {
			return nil, err
		}
	}

	m := message.New(payload, n.zone, priority, n.clock.Now()).WithAddress(c, alias.Reference)
	m.MaxRetries = 0
	if err := n.Enqueue(m); nil != err {
		return nil, err
	}
	return m, nil
}

// Enqueue - queue a message created elsewhere
//
// the message must belong to this device's zone and fit in a frame
func (n *Node) Enqueue(m *message.Message) error {
	if nil == m {
		return fault.ErrInvalidMessage
	}
	if m.Zone != n.zone {
		return fault.ErrInvalidZone
	}
	if _, err := n.frame(m).Pack(); nil != err {
		return err
	}
	if err := n.queue.Enqueue(m); nil != err {
		return err
	}
	n.recorder.SetQueueDepth(n.queue.Len())
	return nil
}

// Cancel - withdraw a message that has not started transmitting
func (n *Node) Cancel(id string) bool {
	if !n.queue.Cancel(id) {
		return false
	}
	n.forget(id)
	n.recorder.SetQueueDepth(n.queue.Len())
	return true
}

// RequestHealth - ask every listening device for its health
func (n *Node) RequestHealth() (*message.Message, error) {
	return n.control(transport.HealthRequest, nil)
}

// queue a control frame
func (n *Node) control(kind transport.Kind, payload []byte) (*message.Message, error) {
	m := message.New(payload, n.zone, message.High, n.clock.Now())
	m.MaxRetries = 0

	n.Lock()
	n.kinds[m.ID] = kind
	n.Unlock()

	if err := n.Enqueue(m); nil != err {
		n.forget(m.ID)
		return nil, err
	}
	return m, nil
}

// the frame that carries a message
func (n *Node) frame(m *message.Message) *transport.Frame {
	f := transport.FromMessage(n.options.DeviceID, m)

	n.Lock()
	if kind, ok := n.kinds[m.ID]; ok {
		f.Kind = kind
	}
	n.Unlock()

	return f
}

func (n *Node) forget(id string) {
	n.Lock()
	delete(n.kinds, id)
	n.Unlock()
}
