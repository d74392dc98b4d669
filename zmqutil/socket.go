// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"fmt"
	"net"
	"strings"
	"time"

	ma "github.com/multiformats/go-multiaddr"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/cyclemesh/fault"
)

const (
	heartbeatInterval = 15 * time.Second
	heartbeatTimeout  = 60 * time.Second
	heartbeatTTL      = 120 * time.Second

	zapDomain = "cyclemesh"
)

// NewSignalPair - a connected push/pull pair for shutdown signalling
func NewSignalPair(signal string) (*zmq.Socket, *zmq.Socket, error) {

	push, err := zmq.NewSocket(zmq.PUSH)
	if nil != err {
		return nil, nil, err
	}
	push.SetLinger(0)
	err = push.Bind(signal)
	if nil != err {
		push.Close()
		return nil, nil, err
	}

	pull, err := zmq.NewSocket(zmq.PULL)
	if nil != err {
		push.Close()
		return nil, nil, err
	}
	pull.SetLinger(0)
	err = pull.Connect(signal)
	if nil != err {
		push.Close()
		pull.Close()
		return nil, nil, err
	}

	return push, pull, nil
}

// canonical endpoint and whether it needs IPv6
//
// accepts a zmq endpoint, a multiaddr such as /ip4/10.0.0.2/tcp/2140
// or a bare host:port which is taken as tcp
func endpoint(address string) (string, bool, error) {
	if strings.HasPrefix(address, "/") {
		return fromMultiaddr(address)
	}
	if "" == address {
		return "", false, fault.ErrInvalidAddress
	}
	if !strings.Contains(address, "://") {
		address = "tcp://" + address
	}
	return address, strings.Contains(address, "["), nil
}

func fromMultiaddr(address string) (string, bool, error) {
	m, err := ma.NewMultiaddr(address)
	if nil != err {
		return "", false, fmt.Errorf("%w: %s", fault.ErrInvalidAddress, err)
	}
	port, err := m.ValueForProtocol(ma.P_TCP)
	if nil != err {
		return "", false, fmt.Errorf("%w: %q has no tcp port", fault.ErrInvalidAddress, address)
	}

	hosts := []struct {
		code int
		v6   bool
	}{
		{ma.P_IP4, false},
		{ma.P_IP6, true},
		{ma.P_DNS4, false},
		{ma.P_DNS6, true},
		{ma.P_DNS, false},
	}
	for _, h := range hosts {
		host, err := m.ValueForProtocol(h.code)
		if nil == err {
			return "tcp://" + net.JoinHostPort(host, port), h.v6, nil
		}
	}
	return "", false, fmt.Errorf("%w: %q has no host", fault.ErrInvalidAddress, address)
}

// bind a PUB socket to every listen address
func newPublisher(listen []string, keys *Keys) (*zmq.Socket, error) {

	socket, err := zmq.NewSocket(zmq.PUB)
	if nil != err {
		return nil, err
	}
	socket.SetLinger(0)

	if nil != keys {
		err = startAuthentication()
		if nil != err {
			goto fail
		}

		// any device with a keypair may subscribe
		zmq.AuthCurveAdd(zapDomain, zmq.CURVE_ALLOW_ANY)

		err = socket.SetCurveServer(1)
		if nil != err {
			goto fail
		}
		err = socket.SetCurveSecretkey(string(keys.Private))
		if nil != err {
			goto fail
		}
		err = socket.SetZapDomain(zapDomain)
		if nil != err {
			goto fail
		}
		err = socket.SetIdentity(string(keys.Public))
		if nil != err {
			goto fail
		}
	}

	setHeartbeat(socket)

	for _, address := range listen {
		bindTo, v6, err := endpoint(address)
		if nil != err {
			socket.Close()
			return nil, err
		}
		if v6 {
			socket.SetIpv6(true)
		}
		if err := socket.Bind(bindTo); nil != err {
			socket.Close()
			return nil, err
		}
	}
	return socket, nil

fail:
	socket.Close()
	return nil, err
}

// connect a SUB socket to one peer
func newSubscriber(peer Peer, keys *Keys) (*zmq.Socket, error) {

	socket, err := zmq.NewSocket(zmq.SUB)
	if nil != err {
		return nil, err
	}
	socket.SetLinger(0)

	connectTo, v6, err := endpoint(peer.Address)
	if nil != err {
		socket.Close()
		return nil, err
	}

	if nil != keys && 0 != len(peer.PublicKey) {
		err = socket.SetCurveServer(0)
		if nil != err {
			goto fail
		}
		err = socket.SetCurvePublickey(string(keys.Public))
		if nil != err {
			goto fail
		}
		err = socket.SetCurveSecretkey(string(keys.Private))
		if nil != err {
			goto fail
		}
		err = socket.SetCurveServerkey(string(peer.PublicKey))
		if nil != err {
			goto fail
		}
	}

	setHeartbeat(socket)

	// empty prefix receives everything
	err = socket.SetSubscribe("")
	if nil != err {
		goto fail
	}
	err = socket.SetIpv6(v6)
	if nil != err {
		goto fail
	}
	err = socket.Connect(connectTo)
	if nil != err {
		goto fail
	}
	return socket, nil

fail:
	socket.Close()
	return nil, err
}

// heartbeats need zmq 4.2, older libraries just go without
func setHeartbeat(socket *zmq.Socket) {
	socket.SetHeartbeatIvl(heartbeatInterval)
	socket.SetHeartbeatTimeout(heartbeatTimeout)
	socket.SetHeartbeatTtl(heartbeatTTL)
}
