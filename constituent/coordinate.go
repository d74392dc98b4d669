// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package constituent

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/bitmark-inc/cyclemesh/fault"
)

// precision limits (decimal places)
const (
	MinimumPrecision = 1
	MaximumPrecision = 12
)

// CellKeyLength - bytes in a packed cell key
const CellKeyLength = 1 + 8 + 8

// Location - a parsed coordinate reference
type Location struct {
	Latitude  float64
	Longitude float64
	Precision int
}

// Cell - a grid bucket: latitude and longitude scaled by 10^precision and rounded
type Cell struct {
	Precision int
	Latitude  int64
	Longitude int64
}

// Box - a bounding box evaluated at one precision
type Box struct {
	South     float64
	West      float64
	North     float64
	East      float64
	Precision int
}

// ParseCoordinate - parse "lat,lng,precision"
func ParseCoordinate(reference string) (Location, error) {
	parts := strings.Split(reference, ",")
	if 3 != len(parts) {
		return Location{}, fault.ErrInvalidCoordinate
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if nil != err {
		return Location{}, fault.ErrInvalidCoordinate
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if nil != err {
		return Location{}, fault.ErrInvalidCoordinate
	}
	precision, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if nil != err {
		return Location{}, fault.ErrInvalidCoordinate
	}

	c := Location{
		Latitude:  lat,
		Longitude: lng,
		Precision: precision,
	}
	if err := c.validate(); nil != err {
		return Location{}, err
	}
	return c, nil
}

func (c Location) validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return fault.ErrInvalidCoordinate
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fault.ErrInvalidCoordinate
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fault.ErrInvalidCoordinate
	}
	if c.Precision < MinimumPrecision || c.Precision > MaximumPrecision {
		return fault.ErrInvalidCoordinate
	}
	return nil
}

// minimum decimal places in the canonical exact form
const exactDecimals = 6

// String - canonical exact form used as the alias key
//
// at least six decimal places, more when the precision asks for them
func (c Location) String() string {
	decimals := exactDecimals
	if c.Precision > decimals {
		decimals = c.Precision
	}
	return strconv.FormatFloat(c.Latitude, 'f', decimals, 64) +
		"," + strconv.FormatFloat(c.Longitude, 'f', decimals, 64) +
		"," + strconv.Itoa(c.Precision)
}

// Cell - the bucket containing this coordinate at its own precision
func (c Location) Cell() Cell {
	scale := math.Pow10(c.Precision)
	return Cell{
		Precision: c.Precision,
		Latitude:  int64(math.Round(c.Latitude * scale)),
		Longitude: int64(math.Round(c.Longitude * scale)),
	}
}

// String - "lat,lng,precision" of the cell centre
func (c Cell) String() string {
	scale := math.Pow10(c.Precision)
	return strconv.FormatFloat(float64(c.Latitude)/scale, 'f', c.Precision, 64) +
		"," + strconv.FormatFloat(float64(c.Longitude)/scale, 'f', c.Precision, 64) +
		"," + strconv.Itoa(c.Precision)
}

// Key - order preserving packed form: precision ++ lat ++ lng
//
// signed values are offset by 2^63 so big endian bytes sort numerically
func (c Cell) Key() []byte {
	key := make([]byte, CellKeyLength)
	key[0] = byte(c.Precision)
	binary.BigEndian.PutUint64(key[1:9], uint64(c.Latitude)^(1<<63))
	binary.BigEndian.PutUint64(key[9:17], uint64(c.Longitude)^(1<<63))
	return key
}

// CellFromKey - reverse of Key
func CellFromKey(key []byte) (Cell, error) {
	if len(key) < CellKeyLength {
		return Cell{}, fault.ErrInvalidCoordinate
	}
	return Cell{
		Precision: int(key[0]),
		Latitude:  int64(binary.BigEndian.Uint64(key[1:9]) ^ (1 << 63)),
		Longitude: int64(binary.BigEndian.Uint64(key[9:17]) ^ (1 << 63)),
	}, nil
}

// Corners - the inclusive cell range covered by the box
func (b Box) Corners() (Cell, Cell, error) {
	south := Location{Latitude: b.South, Longitude: b.West, Precision: b.Precision}
	north := Location{Latitude: b.North, Longitude: b.East, Precision: b.Precision}
	if err := south.validate(); nil != err {
		return Cell{}, Cell{}, err
	}
	if err := north.validate(); nil != err {
		return Cell{}, Cell{}, err
	}
	if b.South > b.North || b.West > b.East {
		return Cell{}, Cell{}, fault.ErrInvalidCoordinate
	}
	return south.Cell(), north.Cell(), nil
}

// Contains - check a cell lies within the box at the box precision
func (b Box) Contains(c Cell) bool {
	low, high, err := b.Corners()
	if nil != err || c.Precision != b.Precision {
		return false
	}
	return c.Latitude >= low.Latitude && c.Latitude <= high.Latitude &&
		c.Longitude >= low.Longitude && c.Longitude <= high.Longitude
}
