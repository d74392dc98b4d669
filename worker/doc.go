// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package worker - bounded pool of background workers
//
// jobs carry a context whose deadline bounds their useful life; a job
// whose context has expired before a worker picks it up is skipped
package worker
