// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"encoding/hex"
	"os"
	"strings"
	"sync"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/util"
)

const (
	taggedPublic  = "PUBLIC:"
	taggedPrivate = "PRIVATE:"
	keyLength     = 32
)

// Keys - a CURVE keypair, raw 32 byte values
type Keys struct {
	Public  []byte
	Private []byte
}

var oneTimeAuthStart sync.Once

// start the ZAP handler, only once per process
func startAuthentication() error {
	err := error(nil)
	oneTimeAuthStart.Do(func() {
		zmq.AuthSetVerbose(false)
		err = zmq.AuthStart()
	})
	return err
}

// MakeKeyPair - create a keypair and write each half to its own file
func MakeKeyPair(publicKeyFileName string, privateKeyFileName string) error {
	if util.EnsureFileExists(publicKeyFileName) || util.EnsureFileExists(privateKeyFileName) {
		return fault.ErrKeyFileAlreadyExists
	}

	// generated keys are Z85 encoded
	publicKey, privateKey, err := zmq.NewCurveKeypair()
	if nil != err {
		return err
	}

	public := taggedPublic + hex.EncodeToString([]byte(zmq.Z85decode(publicKey))) + "\n"
	private := taggedPrivate + hex.EncodeToString([]byte(zmq.Z85decode(privateKey))) + "\n"

	err = os.WriteFile(publicKeyFileName, []byte(public), 0666)
	if nil != err {
		return err
	}
	err = os.WriteFile(privateKeyFileName, []byte(private), 0600)
	if nil != err {
		_ = os.Remove(publicKeyFileName)
		return err
	}
	return nil
}

// ReadKeys - load a keypair from its two files
func ReadKeys(publicKeyFileName string, privateKeyFileName string) (*Keys, error) {
	data, err := os.ReadFile(publicKeyFileName)
	if nil != err {
		return nil, err
	}
	public, private, err := ParseKey(string(data))
	if nil != err {
		return nil, err
	}
	if private {
		return nil, fault.ErrInvalidPublicKeyFile
	}

	data, err = os.ReadFile(privateKeyFileName)
	if nil != err {
		return nil, err
	}
	secret, private, err := ParseKey(string(data))
	if nil != err {
		return nil, err
	}
	if !private {
		return nil, fault.ErrInvalidPrivateKeyFile
	}

	return &Keys{
		Public:  public,
		Private: secret,
	}, nil
}

// ParseKey - decode a tagged hex key, the flag is set for a private key
//
// an untagged value is taken as a public key
func ParseKey(data string) ([]byte, bool, error) {
	s := strings.TrimSpace(data)
	private := false
	switch {
	case strings.HasPrefix(s, taggedPrivate):
		s = s[len(taggedPrivate):]
		private = true
	case strings.HasPrefix(s, taggedPublic):
		s = s[len(taggedPublic):]
	}

	h, err := hex.DecodeString(s)
	if nil != err || keyLength != len(h) {
		if private {
			return nil, false, fault.ErrInvalidPrivateKeyFile
		}
		return nil, false, fault.ErrInvalidPublicKeyFile
	}
	return h, private, nil
}
