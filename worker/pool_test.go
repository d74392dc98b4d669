// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/worker"
)

func TestRunsJobs(t *testing.T) {
	p := worker.New(3, 10)
	defer p.Stop()

	const n = 10
	wg := sync.WaitGroup{}
	wg.Add(n)
	results := make(chan error, n)

	for i := 0; i < n; i += 1 {
		i := i
		err := p.Submit(context.Background(), "job", func(ctx context.Context) error {
			if 0 == i%2 {
				return errors.New("odd job out")
			}
			return nil
		}, func(err error) {
			results <- err
			wg.Done()
		})
		require.NoError(t, err)
	}
	wg.Wait()
	close(results)

	failures := 0
	for err := range results {
		if nil != err {
			failures += 1
		}
	}
	assert.Equal(t, 5, failures)

	stats := p.Stats()
	assert.Equal(t, uint64(5), stats.Completed)
	assert.Equal(t, uint64(5), stats.Failed)
}

func TestPanicIsContained(t *testing.T) {
	p := worker.New(1, 1)
	defer p.Stop()

	done := make(chan error, 1)
	require.NoError(t, p.Submit(context.Background(), "panics", func(ctx context.Context) error {
		panic("handler blew up")
	}, func(err error) {
		done <- err
	}))

	err := <-done
	assert.True(t, errors.Is(err, fault.ErrProcessPanic))
	assert.Equal(t, uint64(1), p.Stats().Panicked)

	// the worker survives
	require.NoError(t, p.Submit(context.Background(), "after", func(ctx context.Context) error {
		return nil
	}, func(err error) {
		done <- err
	}))
	assert.NoError(t, <-done)
}

func TestSaturated(t *testing.T) {
	p := worker.New(1, 1)
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})

	// occupy the only worker
	require.NoError(t, p.Submit(context.Background(), "blocker", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}, nil))
	<-started

	// fill the backlog
	require.NoError(t, p.Submit(context.Background(), "waiting", func(ctx context.Context) error {
		return nil
	}, nil))

	rejected := make(chan error, 1)
	err := p.Submit(context.Background(), "rejected", func(ctx context.Context) error {
		return nil
	}, func(err error) {
		rejected <- err
	})
	assert.Equal(t, fault.ErrWorkerPoolSaturated, err)
	assert.Equal(t, fault.ErrWorkerPoolSaturated, <-rejected)
	assert.Equal(t, uint64(1), p.Stats().Rejected)

	close(release)
}

func TestExpiredBeforeStart(t *testing.T) {
	p := worker.New(1, 2)
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), "blocker", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}, nil))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	ran := false
	done := make(chan error, 1)
	require.NoError(t, p.Submit(ctx, "late", func(ctx context.Context) error {
		ran = true
		return nil
	}, func(err error) {
		done <- err
	}))

	<-ctx.Done()
	close(release)

	err := <-done
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.False(t, ran, "expired job skipped")
	assert.Equal(t, uint64(1), p.Stats().Expired)
}
