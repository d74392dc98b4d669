// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ConflictError GenericError
type DriftError GenericError
type ExistsError GenericError
type HashMismatchError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type TimeoutError GenericError

// common errors - keep in alphabetic order
var (
	ErrAliasConflict         = ConflictError("alias is bound to a different record")
	ErrAliasNotFound         = NotFoundError("alias not found")
	ErrAlreadyInitialised    = ExistsError("already initialised")
	ErrCancelled             = ProcessError("message cancelled")
	ErrDatabaseVersion       = InvalidError("incompatible database version")
	ErrHashMismatch          = HashMismatchError("content hash does not match payload")
	ErrInvalidAddress        = InvalidError("invalid address")
	ErrInvalidConfiguration  = InvalidError("invalid configuration")
	ErrInvalidConstituent    = InvalidError("invalid constituent")
	ErrInvalidContentHash    = InvalidError("invalid content hash")
	ErrInvalidCoordinate     = InvalidError("invalid coordinate")
	ErrInvalidCount          = InvalidError("invalid count")
	ErrInvalidCursor         = InvalidError("invalid cursor")
	ErrInvalidFrame          = InvalidError("invalid frame")
	ErrInvalidMessage        = InvalidError("invalid message")
	ErrInvalidPath           = InvalidError("invalid hierarchical path")
	ErrInvalidPhase          = InvalidError("invalid phase")
	ErrInvalidPriority       = InvalidError("invalid priority")
	ErrInvalidPrivateKeyFile = InvalidError("invalid private key file")
	ErrInvalidPublicKeyFile  = InvalidError("invalid public key file")
	ErrInvalidQuery          = InvalidError("invalid query")
	ErrInvalidRecord         = InvalidError("invalid record")
	ErrInvalidTransition     = InvalidError("invalid message state transition")
	ErrInvalidZone           = InvalidError("invalid zone")
	ErrInvalidZoneCount      = InvalidError("invalid zone count")
	ErrKeyFileAlreadyExists  = ExistsError("key file already exists")
	ErrMessageExists         = ExistsError("message already queued")
	ErrNotInitialised        = NotFoundError("not initialised")
	ErrProcessPanic          = ProcessError("process panicked")
	ErrQueueFull             = ProcessError("queue is full")
	ErrRateLimiting          = ProcessError("rate limiting")
	ErrRecordNotFound        = NotFoundError("record not found")
	ErrRetriesExhausted      = ProcessError("retries exhausted")
	ErrSchedulerDrift        = DriftError("scheduler drift exceeds tolerance")
	ErrTransmissionTimeout   = TimeoutError("transmission timeout")
	ErrWorkerPoolSaturated   = ProcessError("worker pool saturated")
	ErrZoneNotTransmittable  = ProcessError("zone may not transmit in this phase")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ConflictError) Error() string     { return string(e) }
func (e DriftError) Error() string        { return string(e) }
func (e ExistsError) Error() string       { return string(e) }
func (e HashMismatchError) Error() string { return string(e) }
func (e InvalidError) Error() string      { return string(e) }
func (e NotFoundError) Error() string     { return string(e) }
func (e ProcessError) Error() string      { return string(e) }
func (e TimeoutError) Error() string      { return string(e) }

// determine the class of an error, looking through any wrapping
func IsErrConflict(e error) bool     { var x ConflictError; return errors.As(e, &x) }
func IsErrDrift(e error) bool        { var x DriftError; return errors.As(e, &x) }
func IsErrExists(e error) bool       { var x ExistsError; return errors.As(e, &x) }
func IsErrHashMismatch(e error) bool { var x HashMismatchError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool      { var x InvalidError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool     { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool      { var x ProcessError; return errors.As(e, &x) }
func IsErrTimeout(e error) bool      { var x TimeoutError; return errors.As(e, &x) }
