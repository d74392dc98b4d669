// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package messagebus

import (
	"github.com/bitmark-inc/cyclemesh/fault"
)

// DefaultQueueSize - capacity used when none is given
const DefaultQueueSize = 1000

// Message - an item with a note of where it came from
type Message struct {
	From string
	Item interface{}
}

// Queue - a bounded FIFO
type Queue struct {
	c chan Message
}

// New - create a queue holding up to size items
func New(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		c: make(chan Message, size),
	}
}

// Send - queue data without blocking
func (queue *Queue) Send(from string, item interface{}) error {
	select {
	case queue.c <- Message{From: from, Item: item}:
		return nil
	default:
		return fault.ErrQueueFull
	}
}

// Chan - channel to read from
func (queue *Queue) Chan() <-chan Message {
	return queue.c
}

// Len - number of items waiting
func (queue *Queue) Len() int {
	return len(queue.c)
}
