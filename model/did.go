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
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Environment selects which DID pattern a ledger node accepts, driven by
// the VALIDATOR_ENV environment variable. It is read once at startup into
// an immutable value — there is no other global validator state.
type Environment string

const (
	EnvProd Environment = "prod"
	EnvTest Environment = "test"
)

var (
	ErrInvalidDID       = errors.New("invalid DID identifier")
	ErrDidKeyIDMismatch = errors.New("DID fingerprint does not match capabilityInvocation key")
)

var (
	prodDIDPattern = regexp.MustCompile(`^did:v1:nym:([1-9A-HJ-NP-Za-km-z]+)$`)
	testDIDPattern = regexp.MustCompile(`^did:v1:test:nym:([1-9A-HJ-NP-Za-km-z]+)$`)
)

// ResolveEnvironment reads the VALIDATOR_ENV environment variable once,
// at startup, into an immutable Environment value. Any value other than
// "test" selects EnvProd; there is no other global validator state.
func ResolveEnvironment() Environment {
	if os.Getenv("VALIDATOR_ENV") == string(EnvTest) {
		return EnvTest
	}
	return EnvProd
}

// ParseDID matches a did:v1[:test]:nym:<fingerprint> identifier against
// the pattern selected by env, returning the fingerprint substring.
func ParseDID(did string, env Environment) (fingerprint string, err error) {
	pattern := prodDIDPattern
	if env == EnvTest {
		pattern = testDIDPattern
	}

	m := pattern.FindStringSubmatch(did)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDID, did)
	}

	return m[1], nil
}

// BindDID recomputes the fingerprint of the document's first
// capabilityInvocation verification method and checks that it matches
// both the verification method's own id fragment and the DID's
// cryptonym. A cryptonym DID uniquely determines its initial
// capability-invocation public key; this is the check that enforces it.
func BindDID(doc *DidDocument, env Environment) error {
	if len(doc.CapabilityInvocation) == 0 {
		return fmt.Errorf("%w: no capabilityInvocation key", ErrDidKeyIDMismatch)
	}

	invocationKey := doc.CapabilityInvocation[0]

	pub := base58.Decode(invocationKey.PublicKeyBase58)
	keyFingerprint, err := Fingerprint(pub)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDidKeyIDMismatch, err)
	}

	expectedID := doc.ID + "#" + keyFingerprint
	if invocationKey.ID != expectedID {
		return fmt.Errorf("%w: capabilityInvocation[0].id %q does not match expected %q",
			ErrDidKeyIDMismatch, invocationKey.ID, expectedID)
	}

	didFingerprint, err := ParseDID(doc.ID, env)
	if err != nil {
		return err
	}
	if didFingerprint != keyFingerprint {
		return fmt.Errorf("%w: DID fingerprint %q does not match key fingerprint %q",
			ErrDidKeyIDMismatch, didFingerprint, keyFingerprint)
	}

	return nil
}
