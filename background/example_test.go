// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background_test

import (
	"fmt"

	"github.com/bitmark-inc/cyclemesh/background"
)

// drains a channel of work until shutdown
type drain struct {
	work <-chan string
	done chan<- struct{}
}

func (d *drain) Run(args interface{}, shutdown <-chan struct{}) {
	prefix := args.(string)
	for {
		select {
		case <-shutdown:
			fmt.Printf("%s: shutdown\n", prefix)
			return
		case item := <-d.work:
			fmt.Printf("%s: %s\n", prefix, item)
			d.done <- struct{}{}
		}
	}
}

func Example() {
	work := make(chan string)
	done := make(chan struct{})

	bg := background.Start(background.Processes{&drain{work: work, done: done}}, "inbound")

	for _, item := range []string{"frame 1", "frame 2"} {
		work <- item
		<-done
	}

	bg.Stop()
	bg.Stop() // a second stop does nothing

	// Output:
	// inbound: frame 1
	// inbound: frame 2
	// inbound: shutdown
}
