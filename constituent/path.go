// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package constituent

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bitmark-inc/cyclemesh/fault"
)

// limits on hierarchical paths
const (
	MaximumPathDepth  = 11
	MaximumPathLength = 1024
)

// ValidatePath - check a hierarchical path is well formed
//
// must begin with "/", must not end with "/" and every segment must be
// non-empty, printable and neither "." nor ".."
func ValidatePath(path string) error {
	if len(path) < 2 || len(path) > MaximumPathLength || '/' != path[0] {
		return fault.ErrInvalidPath
	}
	if !utf8.ValidString(path) {
		return fault.ErrInvalidPath
	}

	segments := strings.Split(path[1:], "/")
	if len(segments) > MaximumPathDepth {
		return fault.ErrInvalidPath
	}
	for _, s := range segments {
		switch s {
		case "", ".", "..":
			return fault.ErrInvalidPath
		}
		for _, r := range s {
			if unicode.IsControl(r) {
				return fault.ErrInvalidPath
			}
		}
	}
	return nil
}

// PathDepth - number of segments in a valid path
func PathDepth(path string) int {
	return strings.Count(path, "/")
}

// UnderPrefix - true if path equals prefix or lies below it
func UnderPrefix(path string, prefix string) bool {
	if "/" == prefix {
		return strings.HasPrefix(path, "/")
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || '/' == path[len(prefix)]
}
