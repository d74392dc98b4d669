// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package constituent

import (
	"encoding/hex"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/bitmark-inc/cyclemesh/fault"
)

// DigestLength - bytes in a content digest
const DigestLength = 32

// Digest - canonical content reference for data: hex SHA2-256
func Digest(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if nil != err {
		// only possible for an unknown code or bad length
		return ""
	}
	decoded, err := multihash.Decode(sum)
	if nil != err {
		return ""
	}
	return hex.EncodeToString(decoded.Digest)
}

// CID - the same digest expressed as a CIDv1 with the raw codec
func CID(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if nil != err {
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// ParseDigest - accept a hex digest or a sha2-256 CID and return the hex form
func ParseDigest(reference string) (string, error) {
	reference = strings.TrimSpace(reference)

	if 2*DigestLength == len(reference) {
		b, err := hex.DecodeString(reference)
		if nil == err && DigestLength == len(b) {
			return hex.EncodeToString(b), nil
		}
	}

	c, err := cid.Decode(reference)
	if nil != err {
		return "", fault.ErrInvalidContentHash
	}
	decoded, err := multihash.Decode(c.Hash())
	if nil != err {
		return "", fault.ErrInvalidContentHash
	}
	if multihash.SHA2_256 != decoded.Code || DigestLength != len(decoded.Digest) {
		return "", fault.ErrInvalidContentHash
	}
	return hex.EncodeToString(decoded.Digest), nil
}

// VerifyDigest - check that data hashes to the canonical digest
func VerifyDigest(data []byte, digest string) error {
	if Digest(data) != digest {
		return fault.ErrHashMismatch
	}
	return nil
}
