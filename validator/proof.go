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
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/piprate/veres-validator/model"
	"github.com/piprate/veres-validator/utils/jsonw"
)

const (
	msgTargetMismatch  = "does not match root capability target"
	msgInvokerMismatch = "The authorized invoker does not match the verification method or its controller."
	msgInvalidSig      = "Invalid signature."

	// operationSigningVocab is the default JSON-LD vocabulary of the
	// signing document, so that every operation field has an IRI and
	// survives canonicalization.
	operationSigningVocab = "https://w3id.org/webledger#"
)

// verifyCapabilityInvocation implements C5. authDoc is the DID document
// the invoking key is checked against: for a create operation this is
// the record itself; for an update it is the current stored document
// (D0), since authorization is evaluated before the patch is applied.
func verifyCapabilityInvocation(
	ctx context.Context,
	l *loader,
	op *model.Operation,
	targetDID string,
	expectedAction string,
	cfg *model.ValidatorConfig,
	authDoc *model.DidDocument,
) *Result {
	proof, ok := op.InvocationProof()
	if !ok {
		return validationError("missing capabilityInvocation proof")
	}

	if proof.Capability != targetDID {
		return validationErrorWithProof(msgTargetMismatch, proofFailure(msgTargetMismatch))
	}

	if !cfg.ActionAllowed(expectedAction, proof.CapabilityAction) {
		return validationError("unexpected capabilityAction: " + proof.CapabilityAction)
	}

	vm, err := resolveInvocationKey(ctx, l, authDoc, proof.VerificationMethod)
	if err != nil {
		if errors.Is(err, ErrVerificationMethodNotFound) || errors.Is(err, model.ErrRecordNotFound) {
			return notFoundError(err.Error())
		}
		return timeoutError(proof.VerificationMethod)
	}

	if vm.Controller != targetDID || !isCapabilityInvocationKey(authDoc, vm.ID) {
		return validationErrorWithProof(msgInvokerMismatch, proofFailure(msgInvokerMismatch))
	}

	pub := base58.Decode(vm.PublicKeyBase58)

	verified, err := verifyOperationSignature(op, pub, proof.Jws)
	if err != nil || !verified {
		return validationErrorWithProof(msgInvalidSig, proofFailure(msgInvalidSig))
	}

	return nil
}

// resolveInvocationKey resolves a verificationMethod id. When authDoc is
// the document the id's own DID prefix names, the key is read directly
// off authDoc rather than through the ledger loader: for a create
// operation, the record being created is not yet on the ledger, so its
// own keys are only available from the submitted document itself. Any
// other id (e.g. a different signer's key) is resolved through the
// ledger as usual.
func resolveInvocationKey(ctx context.Context, l *loader, authDoc *model.DidDocument, vmID string) (*model.VerificationMethod, error) {
	did, _, ok := strings.Cut(vmID, "#")
	if !ok {
		return nil, ErrVerificationMethodNotFound
	}

	if authDoc != nil && authDoc.ID == did {
		for _, section := range [][]*model.VerificationMethod{
			authDoc.Authentication,
			authDoc.CapabilityInvocation,
			authDoc.CapabilityDelegation,
		} {
			for _, vm := range section {
				if vm.ID == vmID {
					return vm, nil
				}
			}
		}
		return nil, ErrVerificationMethodNotFound
	}

	return l.resolveVerificationMethod(ctx, vmID)
}

func isCapabilityInvocationKey(doc *model.DidDocument, vmID string) bool {
	if doc == nil {
		return false
	}
	for _, vm := range doc.CapabilityInvocation {
		if vm.ID == vmID {
			return true
		}
	}
	return false
}

// operationSigningDocument builds the canonicalizable map for op with the
// capabilityInvocation proof's jws field removed entirely (not merely
// blanked). This exact shape is what both the signer and the verifier
// must hash, so this helper is the one place that shape is defined.
func operationSigningDocument(op *model.Operation) (map[string]any, error) {
	raw, err := jsonw.Marshal(op)
	if err != nil {
		return nil, err
	}

	var opMap map[string]any
	if err := jsonw.Unmarshal(raw, &opMap); err != nil {
		return nil, err
	}

	// An Operation has no @context of its own; without one, JSON-LD
	// expansion drops every undefined term and nothing would be signed.
	opMap["@context"] = map[string]any{"@vocab": operationSigningVocab}

	proofField, ok := opMap["proof"].([]any)
	if !ok {
		return nil, errors.New("operation has no proof array")
	}
	for _, p := range proofField {
		pm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if pm["proofPurpose"] == model.ProofPurposeCapabilityInvocation {
			delete(pm, "jws")
		}
	}

	return opMap, nil
}

// verifyOperationSignature checks sigB58 as a detached Ed25519 signature
// over the canonical form of operationSigningDocument(op).
func verifyOperationSignature(op *model.Operation, pub []byte, sigB58 string) (bool, error) {
	opMap, err := operationSigningDocument(op)
	if err != nil {
		return false, err
	}

	sd := model.NewSignableDocumentFromMap(opMap)

	return sd.VerifyDetachedSignature(pub, sigB58)
}
