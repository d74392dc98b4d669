// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/message"
	"github.com/bitmark-inc/cyclemesh/transport"
	"github.com/bitmark-inc/cyclemesh/zone"
)

func TestFrameFromMessage(t *testing.T) {
	m := message.New([]byte("rescue at north ridge"), zone.C, message.Emergency, time.Now()).
		WithAddress(constituent.Coordinate, "40.7128,-74.0060,1")

	f := transport.FromMessage("device-7", m)
	packed, err := f.Pack()
	require.NoError(t, err, "pack")

	assert.Equal(t, byte(transport.FrameVersion), packed[0], "version")
	assert.Equal(t, byte(transport.Data), packed[1], "kind")

	u, err := transport.UnpackFrame(packed)
	require.NoError(t, err, "unpack")
	assert.Equal(t, f, u, "frame")
	assert.Equal(t, m.ID, u.ID, "id")
	assert.Equal(t, zone.C, u.Zone, "zone")
	assert.Equal(t, message.Emergency, u.Priority, "priority")
}

func TestFrameWithoutAddress(t *testing.T) {
	f := &transport.Frame{
		Kind:     transport.HealthRequest,
		ID:       "h-1",
		Zone:     zone.Zone(300),
		Priority: message.High,
	}
	packed, err := f.Pack()
	require.NoError(t, err, "pack")

	u, err := transport.UnpackFrame(packed)
	require.NoError(t, err, "unpack")
	assert.Equal(t, transport.HealthRequest, u.Kind, "kind")
	assert.Equal(t, zone.Zone(300), u.Zone, "zone")
	assert.Equal(t, constituent.Invalid, u.Constituent, "constituent")
	assert.Equal(t, "", u.Reference, "reference")
	assert.Equal(t, 0, len(u.Payload), "payload")
}

func TestFramePackRejects(t *testing.T) {
	valid := transport.Frame{
		Kind:     transport.Data,
		ID:       "m-1",
		Priority: message.Normal,
	}

	f := valid
	f.Kind = 0
	_, err := f.Pack()
	assert.Equal(t, fault.ErrInvalidFrame, err, "kind")

	f = valid
	f.ID = ""
	_, err = f.Pack()
	assert.Equal(t, fault.ErrInvalidFrame, err, "empty id")

	f = valid
	f.ID = strings.Repeat("x", transport.MaxIDLength+1)
	_, err = f.Pack()
	assert.Equal(t, fault.ErrInvalidFrame, err, "long id")

	f = valid
	f.Payload = make([]byte, transport.MaxPayloadLength+1)
	_, err = f.Pack()
	assert.Equal(t, fault.ErrInvalidFrame, err, "large payload")

	f = valid
	f.Priority = message.Priority(99)
	_, err = f.Pack()
	assert.Equal(t, fault.ErrInvalidPriority, err, "priority")

	f = valid
	f.Constituent = constituent.Constituent(9)
	_, err = f.Pack()
	assert.Equal(t, fault.ErrInvalidConstituent, err, "constituent")
}

func TestFrameUnpackRejects(t *testing.T) {
	f := &transport.Frame{
		Kind:     transport.Data,
		ID:       "m-2",
		Source:   "device-1",
		Priority: message.Low,
		Payload:  []byte("payload"),
	}
	packed, err := f.Pack()
	require.NoError(t, err, "pack")

	_, err = transport.UnpackFrame(nil)
	assert.Equal(t, fault.ErrInvalidFrame, err, "empty")

	bad := append([]byte(nil), packed...)
	bad[0] = 2
	_, err = transport.UnpackFrame(bad)
	assert.Equal(t, fault.ErrInvalidFrame, err, "version")

	bad = append([]byte(nil), packed...)
	bad[1] = 9
	_, err = transport.UnpackFrame(bad)
	assert.Equal(t, fault.ErrInvalidFrame, err, "kind")

	for i := 2; i < len(packed); i += 1 {
		_, err = transport.UnpackFrame(packed[:i])
		assert.Error(t, err, "truncated at %d", i)
	}

	_, err = transport.UnpackFrame(append(packed, 0))
	assert.Equal(t, fault.ErrInvalidFrame, err, "trailing byte")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "data", transport.Data.String())
	assert.Equal(t, "health-request", transport.HealthRequest.String())
	assert.Equal(t, "health-response", transport.HealthResponse.String())
	assert.Equal(t, "unknown", transport.Kind(0).String())
}
