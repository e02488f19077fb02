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

import "encoding/json"

const (
	OpTypeCreateWebLedgerRecord = "CreateWebLedgerRecord"
	OpTypeUpdateWebLedgerRecord = "UpdateWebLedgerRecord"

	ProofPurposeAuthorizeRequest     = "authorizeRequest"
	ProofPurposeCapabilityInvocation = "capabilityInvocation"

	ProofTypeEd25519Signature2018 = "Ed25519Signature2018"

	ActionCreate = "create"
	ActionUpdate = "update"
)

type (
	// OperationProof is a single entry of an operation's `proof` array:
	// either an AuthorizeRequestProof (schema-only, not authoritative) or
	// the CapabilityInvocationProof the validator actually trusts.
	OperationProof struct {
		Type               string `json:"type"`
		Created            string `json:"created,omitempty"`
		VerificationMethod string `json:"verificationMethod"`
		ProofPurpose       string `json:"proofPurpose"`
		Capability         string `json:"capability,omitempty"`
		CapabilityAction   string `json:"capabilityAction,omitempty"`
		Jws                string `json:"jws"`
	}

	// RecordPatch is the body of an UpdateWebLedgerRecord operation.
	RecordPatch struct {
		Target   string          `json:"target"`
		Sequence int             `json:"sequence"`
		Patch    json.RawMessage `json:"patch"`
	}

	// Operation is a candidate ledger operation as submitted by a client.
	// Exactly one of Record or RecordPatch is populated, selected by Type.
	Operation struct {
		Type        string           `json:"type"`
		Record      *DidDocument     `json:"record,omitempty"`
		RecordPatch *RecordPatch     `json:"recordPatch,omitempty"`
		Proof       []OperationProof `json:"proof"`
	}

	// ValidatorConfig is the policy a ledger node applies to every
	// operation it admits: which action names are legal for the two
	// operation kinds, and which ValidatorParameterSet (if any) to
	// consult for the service-endpoint policy.
	ValidatorConfig struct {
		Type                  string   `json:"type"`
		ValidatorFilter       []string `json:"validatorFilter"`
		ValidatorParameterSet string   `json:"validatorParameterSet,omitempty"`

		// ExpectedActions maps an operation's canonical action
		// ("create"/"update") to the set of capabilityAction values the
		// proof verifier will accept for it. This is what makes the
		// legacy RegisterDid/UpdateDidDocument testnet action names
		// configurable rather than hard-coded.
		ExpectedActions map[string][]string `json:"expectedActions,omitempty"`
	}

	// ValidatorParameterSet is a ledger-resident policy document
	// constraining, among other things, the service base URLs a DID
	// document is allowed to advertise.
	ValidatorParameterSet struct {
		ID                   string   `json:"id"`
		AllowedServiceBaseURL []string `json:"allowedServiceBaseUrl"`
	}
)

// DefaultValidatorConfig returns the standard VeresOneValidator2017 config,
// with the legacy Veres One testnet action synonyms pre-registered.
func DefaultValidatorConfig() *ValidatorConfig {
	return &ValidatorConfig{
		Type:            "VeresOneValidator2017",
		ValidatorFilter: []string{"RecordOperation"},
		ExpectedActions: map[string][]string{
			ActionCreate: {ActionCreate, "RegisterDid"},
			ActionUpdate: {ActionUpdate, "UpdateDidDocument"},
		},
	}
}

// ActionAllowed reports whether capabilityAction is one of the values
// configured for the given canonical action ("create" or "update").
func (c *ValidatorConfig) ActionAllowed(canonicalAction, capabilityAction string) bool {
	allowed, ok := c.ExpectedActions[canonicalAction]
	if !ok {
		return capabilityAction == canonicalAction
	}
	for _, a := range allowed {
		if a == capabilityAction {
			return true
		}
	}
	return false
}

// InvocationProof returns the sole proof node whose purpose is
// capabilityInvocation. AuthorizeRequest proofs, if present, are not
// authoritative for authorization and are ignored here.
func (op *Operation) InvocationProof() (*OperationProof, bool) {
	for i := range op.Proof {
		if op.Proof[i].ProofPurpose == ProofPurposeCapabilityInvocation {
			return &op.Proof[i], true
		}
	}
	return nil, false
}
