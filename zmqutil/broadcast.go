// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/cyclemesh/background"
	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/transport"
	"github.com/bitmark-inc/cyclemesh/util"
	"github.com/bitmark-inc/cyclemesh/zone"
)

const (
	topic        = "cyclemesh"
	signalFormat = "inproc://cyclemesh-broadcast-signal-%d"
)

var signalSequence uint64

// Peer - a remote PUB socket
type Peer struct {
	Address   string
	PublicKey []byte // empty for an unencrypted peer
}

// Options - broadcast configuration
type Options struct {
	Listen []string
	Peers  []Peer
	Keys   *Keys // nil disables encryption
}

// Broadcast - a transport.Transport over PUB/SUB sockets
//
// a send is acknowledged once the frame is queued on the PUB socket
type Broadcast struct {
	log *logger.L

	sendLock sync.Mutex
	pub      *zmq.Socket

	subscribers []*zmq.Socket
	push        *zmq.Socket
	pull        *zmq.Socket

	receiverLock sync.RWMutex
	receiver     transport.Receiver

	bg *background.T
}

// NewBroadcast - bind and connect all sockets and start receiving
func NewBroadcast(options Options) (*Broadcast, error) {
	log := logger.New("broadcast")

	b := &Broadcast{
		log: log,
	}

	err := error(nil)
	signal := fmt.Sprintf(signalFormat, atomic.AddUint64(&signalSequence, 1))
	b.push, b.pull, err = NewSignalPair(signal)
	if nil != err {
		return nil, err
	}

	b.pub, err = newPublisher(options.Listen, options.Keys)
	if nil != err {
		log.Errorf("bind: %q  error: %s", options.Listen, err)
		b.closeSockets()
		return nil, err
	}
	log.Infof("bind: %q  encrypted: %t", options.Listen, nil != options.Keys)

	for i, peer := range options.Peers {
		s, err := newSubscriber(peer, options.Keys)
		if nil != err {
			log.Errorf("connect[%d]: %q  error: %s", i, peer.Address, err)
			b.closeSockets()
			return nil, err
		}
		b.subscribers = append(b.subscribers, s)
		log.Infof("connect[%d]: %q  public key: %x", i, peer.Address, peer.PublicKey)
	}

	b.bg = background.Start(background.Processes{b}, log)
	return b, nil
}

// SetReceiver - register inbound callback
func (b *Broadcast) SetReceiver(r transport.Receiver) {
	b.receiverLock.Lock()
	b.receiver = r
	b.receiverLock.Unlock()
}

// Send - publish a payload tagged with zone and phase
func (b *Broadcast) Send(ctx context.Context, z zone.Zone, p cycle.Phase, payload []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	b.sendLock.Lock()
	defer b.sendLock.Unlock()

	if nil == b.pub {
		return fault.ErrNotInitialised
	}
	_, err := b.pub.SendMessage(topic, util.ToVarint64(uint64(z)), []byte{byte(p)}, payload)
	if nil != err {
		b.log.Errorf("send zone: %s  phase: %s  error: %s", z, p, err)
		return fmt.Errorf("%w: %s", fault.ErrTransmissionTimeout, err)
	}
	return nil
}

// Close - stop receiving and release all sockets
func (b *Broadcast) Close() {
	b.bg.Stop()

	b.sendLock.Lock()
	if nil != b.pub {
		b.pub.Close()
		b.pub = nil
	}
	b.sendLock.Unlock()
	b.log.Info("closed")
}

// Run - receive loop
func (b *Broadcast) Run(args interface{}, shutdown <-chan struct{}) {
	log := args.(*logger.L)
	log.Info("starting…")

	done := make(chan struct{})
	go func() {
		defer close(done)

		// subscribers are fixed at construction
		poller := zmq.NewPoller()
		for _, s := range b.subscribers {
			poller.Add(s, zmq.POLLIN)
		}
		poller.Add(b.pull, zmq.POLLIN)

	loop:
		for {
			sockets, err := poller.Poll(-1)
			if nil != err {
				if zmq.ETERM == zmq.AsErrno(err) {
					break loop
				}
				log.Errorf("poll error: %s", err)
				continue
			}
			for _, socket := range sockets {
				switch s := socket.Socket; s {
				case b.pull:
					s.Recv(0)
					break loop
				default:
					data, err := s.RecvMessageBytes(0)
					if nil != err {
						log.Errorf("receive error: %s", err)
						continue
					}
					b.process(data)
				}
			}
		}
		b.pull.Close()
		for _, s := range b.subscribers {
			s.Close()
		}
	}()

	<-shutdown
	b.push.SendMessage("stop")
	<-done
	b.push.Close()
	log.Info("stopped")
}

// expects: topic, zone, phase, payload
func (b *Broadcast) process(data [][]byte) {
	if 4 != len(data) || topic != string(data[0]) || 1 != len(data[2]) {
		b.log.Warnf("discard malformed message: %d parts", len(data))
		return
	}
	z, count := util.FromVarint64(data[1])
	if 0 == count {
		b.log.Warn("discard message with bad zone")
		return
	}

	b.log.Debugf("received zone: %d  phase: %d  bytes: %d", z, data[2][0], len(data[3]))

	b.receiverLock.RLock()
	r := b.receiver
	b.receiverLock.RUnlock()
	if nil != r {
		r(data[3])
	}
}

// only used before the receive loop is running
func (b *Broadcast) closeSockets() {
	for _, s := range b.subscribers {
		s.Close()
	}
	b.subscribers = nil
	if nil != b.pub {
		b.pub.Close()
		b.pub = nil
	}
	b.push.Close()
	b.pull.Close()
}
