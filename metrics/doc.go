// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metrics - counters for the node's transmit and receive paths
//
// Components hold a Recorder; NoopRecorder is the default so callers
// never check for nil. PrometheusRecorder registers the collectors with
// a registry and HTTPHandler serves that registry.
package metrics
