// Copyright 2022 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"crypto/ed25519"
	"errors"

	"github.com/multiformats/go-multibase"
)

// ed25519MulticodecPrefix is the two-byte multicodec header for an
// Ed25519 public key (0xed, varint-encoded, followed by a second byte
// because the codec value spills over the low 7 bits of the first
// varint byte per the multicodec table used by did:key-style methods).
var ed25519MulticodecPrefix = [2]byte{0xed, 0x01}

var (
	ErrInvalidEncoding = errors.New("fingerprint: invalid multibase encoding")
	ErrWrongCodec      = errors.New("fingerprint: wrong multicodec prefix")
	ErrWrongLength     = errors.New("fingerprint: wrong key length")
)

// Fingerprint encodes an Ed25519 public key as a z-prefixed, base58btc
// multibase string with a leading Ed25519 multicodec header.
func Fingerprint(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", ErrWrongLength
	}

	data := make([]byte, 0, len(ed25519MulticodecPrefix)+ed25519.PublicKeySize)
	data = append(data, ed25519MulticodecPrefix[:]...)
	data = append(data, pub...)

	return multibase.Encode(multibase.Base58BTC, data)
}

// DecodeFingerprint is the inverse of Fingerprint. It rejects any string
// whose multibase prefix, multicodec header, or decoded key length
// disagrees with the Ed25519 fingerprint format.
func DecodeFingerprint(fp string) (ed25519.PublicKey, error) {
	enc, data, err := multibase.Decode(fp)
	if err != nil {
		return nil, ErrInvalidEncoding
	}
	if enc != multibase.Base58BTC {
		return nil, ErrInvalidEncoding
	}
	if len(data) < len(ed25519MulticodecPrefix) {
		return nil, ErrWrongCodec
	}
	if data[0] != ed25519MulticodecPrefix[0] || data[1] != ed25519MulticodecPrefix[1] {
		return nil, ErrWrongCodec
	}

	pub := data[len(ed25519MulticodecPrefix):]
	if len(pub) != ed25519.PublicKeySize {
		return nil, ErrWrongLength
	}

	return ed25519.PublicKey(pub), nil
}
