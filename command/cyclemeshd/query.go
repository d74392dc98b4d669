// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/store"
)

// one match of the query command
type queryResult struct {
	ID      uint64   `json:"id"`
	Aliases []string `json:"aliases"`
}

// run a range query over the index: "path PREFIX" or "box S W N E PRECISION"
func query(st *store.Store, kind string, arguments []string) ([]queryResult, error) {
	var ids []uint64
	var err error

	switch kind {
	case "path", "prefix":
		if 1 != len(arguments) {
			return nil, fmt.Errorf("%w: path needs PREFIX", fault.ErrInvalidQuery)
		}
		ids, err = st.Index().PathPrefix(arguments[0])

	case "box", "bbox":
		box, e := parseBox(arguments)
		if nil != e {
			return nil, e
		}
		ids, err = st.Index().BoundingBox(box)

	default:
		return nil, fmt.Errorf("%w: %q", fault.ErrInvalidQuery, kind)
	}
	if nil != err {
		return nil, err
	}

	results := make([]queryResult, 0, len(ids))
	for _, id := range ids {
		r, err := st.Record(id)
		if nil != err {
			return nil, err
		}
		aliases := []string{}
		for _, a := range r.AllAliases() {
			aliases = append(aliases, a.String())
		}
		results = append(results, queryResult{
			ID:      id,
			Aliases: aliases,
		})
	}
	return results, nil
}

func parseBox(arguments []string) (constituent.Box, error) {
	if 5 != len(arguments) {
		return constituent.Box{}, fmt.Errorf("%w: box needs SOUTH WEST NORTH EAST PRECISION", fault.ErrInvalidQuery)
	}

	edges := [4]float64{}
	for i := range edges {
		v, err := strconv.ParseFloat(arguments[i], 64)
		if nil != err {
			return constituent.Box{}, fault.ErrInvalidCoordinate
		}
		edges[i] = v
	}
	precision, err := strconv.Atoi(arguments[4])
	if nil != err {
		return constituent.Box{}, fault.ErrInvalidCoordinate
	}

	return constituent.Box{
		South:     edges[0],
		West:      edges[1],
		North:     edges[2],
		East:      edges[3],
		Precision: precision,
	}, nil
}
