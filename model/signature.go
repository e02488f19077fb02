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
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/piprate/veres-validator/utils/jsonw"
)

var (
	// Setting this flag to true will advise Hash() function to print out normalised documents - useful for debugging
	// This is a necessary hack because logging framework doesn't allow multi-line messages
	debugMode = false
)

// SignableDocument wraps an arbitrary JSON-LD document map so it can be
// canonicalized and hashed the same way regardless of whether the caller
// is signing a new proof or verifying one already attached. A single
// Hash implementation is shared by both paths, since signer and verifier
// must agree byte-for-byte on what was actually signed.
type SignableDocument struct {
	data map[string]any
}

func SetDebugMode(v bool) {
	debugMode = v
}

func NewSignableDocument(b []byte) (*SignableDocument, error) {
	p := &SignableDocument{}
	err := jsonw.Unmarshal(b, &p.data)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewSignableDocumentFromMap wraps an already-decoded document, as produced
// by a JSON patch application or by marshalling an Operation's Record.
func NewSignableDocumentFromMap(data map[string]any) *SignableDocument {
	return &SignableDocument{data: data}
}

func (dp *SignableDocument) Context() any {
	return dp.data["@context"]
}

func (dp *SignableDocument) SetContext(ctx any) {
	dp.data["@context"] = ctx
}

// Copy return a deep copy of the document
func (dp *SignableDocument) Copy() (*SignableDocument, error) {
	copyBytes, err := jsonw.Marshal(dp.data)
	if err != nil {
		return nil, err
	}
	return NewSignableDocument(copyBytes)
}

func (dp *SignableDocument) Hash() ([]byte, error) {
	normDoc, err := NormalizeDocument(dp.data)
	if err != nil {
		return nil, err
	}

	if debugMode {
		println("===== start normalised doc =====")
		print(normDoc)
		println("===== finish normalised doc =====")
	}

	hash32 := sha256.Sum256([]byte(normDoc))
	return hash32[:], nil
}

// VerifyDetachedSignature checks an Ed25519 signature over the document's
// canonical form with the given proof node (jws/signature-bearing fields
// already stripped from dp.data by the caller). It is the primitive C5
// uses to verify a capability-invocation proof: the document is the
// operation with the capabilityInvocation proof's jws field removed (the
// rest of the `proof` array stays in the signed form), and sigB58
// is the Ed25519Signature2018-style base58 signature value decoded from
// the proof's jws/proofValue field.
func (dp *SignableDocument) VerifyDetachedSignature(publicKey ed25519.PublicKey, sigB58 string) (bool, error) {
	sig := base58.Decode(sigB58)
	if len(sig) == 0 {
		return false, fmt.Errorf("empty or invalid base58 signature")
	}

	hash, err := dp.Hash()
	if err != nil {
		return false, err
	}

	return ed25519.Verify(publicKey, hash, sig), nil
}
