// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/message"
	"github.com/bitmark-inc/cyclemesh/util"
	"github.com/bitmark-inc/cyclemesh/zone"
)

// FrameVersion - current frame version
const FrameVersion = 1

// field limits
const (
	MaxIDLength        = 64
	MaxSourceLength    = 256
	MaxReferenceLength = 1024
	MaxPayloadLength   = 65536
)

// Kind - frame type
type Kind uint8

// frame types
const (
	Data           Kind = 1
	HealthRequest  Kind = 2
	HealthResponse Kind = 3
)

// String - name of frame type
func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case HealthRequest:
		return "health-request"
	case HealthResponse:
		return "health-response"
	default:
		return "unknown"
	}
}

// Frame - one transmission
type Frame struct {
	Kind        Kind
	ID          string
	Source      string
	Zone        zone.Zone
	Priority    message.Priority
	Constituent constituent.Constituent
	Reference   string
	Payload     []byte
}

// FromMessage - data frame for a queued message
func FromMessage(source string, m *message.Message) *Frame {
	return &Frame{
		Kind:        Data,
		ID:          m.ID,
		Source:      source,
		Zone:        m.Zone,
		Priority:    m.Priority,
		Constituent: m.Constituent,
		Reference:   m.Reference,
		Payload:     m.Payload,
	}
}

// Pack - encode a frame
func (f *Frame) Pack() ([]byte, error) {
	switch f.Kind {
	case Data, HealthRequest, HealthResponse:
	default:
		return nil, fault.ErrInvalidFrame
	}
	if "" == f.ID || len(f.ID) > MaxIDLength ||
		len(f.Source) > MaxSourceLength ||
		len(f.Reference) > MaxReferenceLength ||
		len(f.Payload) > MaxPayloadLength {
		return nil, fault.ErrInvalidFrame
	}
	if !f.Priority.Valid() {
		return nil, fault.ErrInvalidPriority
	}
	if constituent.Invalid != f.Constituent && !f.Constituent.Valid() {
		return nil, fault.ErrInvalidConstituent
	}

	buffer := make([]byte, 0, 16+len(f.ID)+len(f.Source)+len(f.Reference)+len(f.Payload))
	buffer = append(buffer, FrameVersion, byte(f.Kind))
	buffer = util.AppendBytes(buffer, []byte(f.ID))
	buffer = util.AppendBytes(buffer, []byte(f.Source))
	buffer = append(buffer, util.ToVarint64(uint64(f.Zone))...)
	buffer = append(buffer, byte(f.Priority), byte(f.Constituent))
	buffer = util.AppendBytes(buffer, []byte(f.Reference))
	buffer = util.AppendBytes(buffer, f.Payload)
	return buffer, nil
}

// UnpackFrame - decode a frame
func UnpackFrame(buffer []byte) (*Frame, error) {
	if len(buffer) < 2 || FrameVersion != buffer[0] {
		return nil, fault.ErrInvalidFrame
	}
	f := &Frame{
		Kind: Kind(buffer[1]),
	}
	switch f.Kind {
	case Data, HealthRequest, HealthResponse:
	default:
		return nil, fault.ErrInvalidFrame
	}
	n := 2

	id, count := util.FetchBytes(buffer[n:], 1, MaxIDLength)
	if 0 == count {
		return nil, fault.ErrInvalidFrame
	}
	f.ID = string(id)
	n += count

	source, count := util.FetchBytes(buffer[n:], 0, MaxSourceLength)
	if 0 == count {
		return nil, fault.ErrInvalidFrame
	}
	f.Source = string(source)
	n += count

	z, count := util.FromVarint64(buffer[n:])
	if 0 == count || z > 0xffffffff {
		return nil, fault.ErrInvalidFrame
	}
	f.Zone = zone.Zone(z)
	n += count

	if len(buffer) < n+2 {
		return nil, fault.ErrInvalidFrame
	}
	f.Priority = message.Priority(buffer[n])
	f.Constituent = constituent.Constituent(buffer[n+1])
	n += 2
	if !f.Priority.Valid() {
		return nil, fault.ErrInvalidPriority
	}
	if constituent.Invalid != f.Constituent && !f.Constituent.Valid() {
		return nil, fault.ErrInvalidConstituent
	}

	reference, count := util.FetchBytes(buffer[n:], 0, MaxReferenceLength)
	if 0 == count {
		return nil, fault.ErrInvalidFrame
	}
	f.Reference = string(reference)
	n += count

	payload, count := util.FetchBytes(buffer[n:], 0, MaxPayloadLength)
	if 0 == count {
		return nil, fault.ErrInvalidFrame
	}
	f.Payload = payload
	n += count

	if n != len(buffer) {
		return nil, fault.ErrInvalidFrame
	}
	return f, nil
}
