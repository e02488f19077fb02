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
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const Ed25519VerificationKey2018Type = "Ed25519VerificationKey2018"

type (
	// VerificationMethod is an Ed25519VerificationKey2018 entry in one of
	// a DID document's proof-purpose sections.
	VerificationMethod struct {
		ID              string `json:"id"`
		Type            string `json:"type"`
		Controller      string `json:"controller"`
		PublicKeyBase58 string `json:"publicKeyBase58"`
	}

	// ServiceDescriptor advertises an endpoint controlled by the DID subject.
	ServiceDescriptor struct {
		ID              string `json:"id"`
		Type            string `json:"type"`
		ServiceEndpoint string `json:"serviceEndpoint"`
	}

	// DidDocument is a Veres One–style DID document: an `id`, three
	// proof-purpose sections, and an optional list of services.
	DidDocument struct {
		Context              any                   `json:"@context,omitempty"`
		ID                   string                `json:"id"`
		Authentication       []*VerificationMethod `json:"authentication"`
		CapabilityInvocation []*VerificationMethod `json:"capabilityInvocation"`
		CapabilityDelegation []*VerificationMethod `json:"capabilityDelegation"`
		Service              []*ServiceDescriptor  `json:"service,omitempty"`
		Sequence             *int                  `json:"sequence,omitempty"`
	}
)

// ValidationError describes a single structural or semantic defect found
// while validating a DID document or an operation built on top of one.
type ValidationError struct {
	Message string
	Details map[string]any
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidateDidDocument enforces a DID document's structural invariants:
// proof purpose sections are nonempty, verification methods carry the
// right type/controller/fragment shape, and service descriptors have an
// absolute https:// endpoint. It does not check cryptonym binding or
// capability-invocation proofs — those are C2 and C5 respectively.
func ValidateDidDocument(doc *DidDocument, env Environment) error {
	if doc == nil {
		return newValidationError("DID document is nil")
	}

	if _, err := ParseDID(doc.ID, env); err != nil {
		return newValidationError("invalid document id %q: %s", doc.ID, err)
	}

	sections := []struct {
		name    string
		methods []*VerificationMethod
	}{
		{"authentication", doc.Authentication},
		{"capabilityInvocation", doc.CapabilityInvocation},
		{"capabilityDelegation", doc.CapabilityDelegation},
	}

	seenIDs := make(map[string]bool)

	for _, section := range sections {
		name, methods := section.name, section.methods
		if len(methods) == 0 {
			return newValidationError("%s must be a nonempty array", name)
		}
		for _, vm := range methods {
			if err := validateVerificationMethod(doc.ID, vm); err != nil {
				return err
			}
			if seenIDs[vm.ID] {
				return newValidationError("verification method id %q is not unique across proof purposes", vm.ID)
			}
			seenIDs[vm.ID] = true
		}
	}

	for _, svc := range doc.Service {
		if err := validateServiceDescriptor(doc.ID, svc); err != nil {
			return err
		}
	}

	return nil
}

func validateVerificationMethod(didID string, vm *VerificationMethod) error {
	if vm == nil {
		return newValidationError("verification method is nil")
	}
	if vm.Type != Ed25519VerificationKey2018Type {
		return newValidationError("verification method %q has unsupported type %q", vm.ID, vm.Type)
	}
	if vm.Controller != didID {
		return newValidationError("verification method %q controller %q does not match document id %q",
			vm.ID, vm.Controller, didID)
	}
	if vm.PublicKeyBase58 == "" {
		return newValidationError("verification method %q is missing publicKeyBase58", vm.ID)
	}

	pub := base58.Decode(vm.PublicKeyBase58)
	fp, err := Fingerprint(pub)
	if err != nil {
		return newValidationError("verification method %q has an invalid public key: %s", vm.ID, err)
	}

	frag := strings.TrimPrefix(vm.ID, didID+"#")
	if frag == vm.ID || frag != fp {
		return newValidationError("verification method %q fragment does not match its key fingerprint", vm.ID)
	}

	return nil
}

func validateServiceDescriptor(didID string, svc *ServiceDescriptor) error {
	if svc == nil {
		return newValidationError("service descriptor is nil")
	}

	prefix := didID + "#"
	if !strings.HasPrefix(svc.ID, prefix) || svc.ID == prefix {
		return newValidationError("service id %q must be %s<nonempty fragment>", svc.ID, prefix)
	}
	if svc.Type == "" {
		return newValidationError("service %q is missing a type", svc.ID)
	}
	if !strings.HasPrefix(svc.ServiceEndpoint, "https://") {
		return newValidationError("service %q endpoint %q must be an absolute https:// URL", svc.ID, svc.ServiceEndpoint)
	}

	return nil
}
