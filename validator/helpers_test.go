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

package validator

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/stretchr/testify/require"

	"github.com/piprate/veres-validator/contexts"
	"github.com/piprate/veres-validator/model"
)

func init() {
	if err := contexts.PreloadContextsIntoMemory(); err != nil {
		panic(err)
	}
}

// memLedger is an in-memory model.LedgerView used only by these tests; it
// has no notion of basisBlockHeight beyond echoing whatever is stored.
type memLedger struct {
	docs   map[string]*model.DidDocument
	params map[string]*model.ValidatorParameterSet
}

func newMemLedger() *memLedger {
	return &memLedger{
		docs:   make(map[string]*model.DidDocument),
		params: make(map[string]*model.ValidatorParameterSet),
	}
}

func (m *memLedger) GetRecord(_ context.Context, did string, _ uint64) (*model.DidDocument, error) {
	if d, ok := m.docs[did]; ok {
		return d, nil
	}
	return nil, model.ErrRecordNotFound
}

func (m *memLedger) GetParameterSet(_ context.Context, did string, _ uint64) (*model.ValidatorParameterSet, error) {
	if p, ok := m.params[did]; ok {
		return p, nil
	}
	return nil, model.ErrRecordNotFound
}

// testIdentity is a generated cryptonym DID plus its capability-invocation
// key pair, ready to sign operations targeting itself.
type testIdentity struct {
	Doc  *model.DidDocument
	Priv ed25519.PrivateKey
}

func newTestIdentity(t *testing.T, env model.Environment) *testIdentity {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	fp, err := model.Fingerprint(pub)
	require.NoError(t, err)

	prefix := "did:v1:nym:"
	if env == model.EnvTest {
		prefix = "did:v1:test:nym:"
	}
	did := prefix + fp

	vm := &model.VerificationMethod{
		ID:              did + "#" + fp,
		Type:            model.Ed25519VerificationKey2018Type,
		Controller:      did,
		PublicKeyBase58: base58.Encode(pub),
	}

	// authentication and capabilityDelegation get keys of their own: a
	// verification method id may appear in only one proof-purpose section.
	otherVM := func() *model.VerificationMethod {
		otherPub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		otherFP, err := model.Fingerprint(otherPub)
		require.NoError(t, err)
		return &model.VerificationMethod{
			ID:              did + "#" + otherFP,
			Type:            model.Ed25519VerificationKey2018Type,
			Controller:      did,
			PublicKeyBase58: base58.Encode(otherPub),
		}
	}

	doc := &model.DidDocument{
		Context:              []string{"https://w3id.org/did/v1", "https://w3id.org/security/v2"},
		ID:                   did,
		Authentication:       []*model.VerificationMethod{otherVM()},
		CapabilityInvocation: []*model.VerificationMethod{vm},
		CapabilityDelegation: []*model.VerificationMethod{otherVM()},
	}

	return &testIdentity{Doc: doc, Priv: priv}
}

// signOperation fills in op's capabilityInvocation proof jws field by
// hashing operationSigningDocument(op) and signing with priv. The proof
// node referenced by verificationMethod must already be present in op
// with every field except Jws populated.
func signOperation(t *testing.T, op *model.Operation, priv ed25519.PrivateKey) {
	t.Helper()

	opMap, err := operationSigningDocument(op)
	require.NoError(t, err)

	hash, err := model.NewSignableDocumentFromMap(opMap).Hash()
	require.NoError(t, err)

	sig := ed25519.Sign(priv, hash)
	sigB58 := base58.Encode(sig)

	proof, ok := op.InvocationProof()
	require.True(t, ok)
	proof.Jws = sigB58
}

func newCreateOp(t *testing.T, id *testIdentity, capabilityAction string) *model.Operation {
	t.Helper()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)

	op := &model.Operation{
		Type:   model.OpTypeCreateWebLedgerRecord,
		Record: id.Doc,
		Proof: []model.OperationProof{
			{
				Type:               model.ProofTypeEd25519Signature2018,
				Created:            created,
				VerificationMethod: id.Doc.CapabilityInvocation[0].ID,
				ProofPurpose:       model.ProofPurposeCapabilityInvocation,
				Capability:         id.Doc.ID,
				CapabilityAction:   capabilityAction,
			},
		},
	}

	signOperation(t, op, id.Priv)

	return op
}

func newUpdateOp(t *testing.T, id *testIdentity, target string, sequence int, patch []byte, capabilityAction string) *model.Operation {
	t.Helper()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)

	op := &model.Operation{
		Type: model.OpTypeUpdateWebLedgerRecord,
		RecordPatch: &model.RecordPatch{
			Target:   target,
			Sequence: sequence,
			Patch:    patch,
		},
		Proof: []model.OperationProof{
			{
				Type:               model.ProofTypeEd25519Signature2018,
				Created:            created,
				VerificationMethod: id.Doc.CapabilityInvocation[0].ID,
				ProofPurpose:       model.ProofPurposeCapabilityInvocation,
				Capability:         id.Doc.ID,
				CapabilityAction:   capabilityAction,
			},
		},
	}

	signOperation(t, op, id.Priv)

	return op
}
