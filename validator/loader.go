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
	"fmt"
	"strings"

	"github.com/piprate/veres-validator/model"
)

// ErrVerificationMethodNotFound is returned when a key id is syntactically
// well-formed but absent from the DID document it points into.
var ErrVerificationMethodNotFound = errors.New("verification method not found")

// loader is the validator's sole ledger read path (C4). It resolves
// did:v1:... URLs through the injected LedgerView and <did>#<frag> key
// ids by loading the owning document and searching its proof-purpose
// sections. JSON-LD @context URLs are not handled here — those are
// served by model.DefaultDocumentLoader, which the JSON-LD processor
// consults directly; a loader only ever sees DID and key-id URLs.
//
// A loader is created fresh for each Validate call and memoizes DID
// documents for that call's duration only: it is discarded when Validate
// returns, so it never caches across calls.
type loader struct {
	ledger           model.LedgerView
	env              model.Environment
	basisBlockHeight uint64

	memo map[string]*model.DidDocument
}

func newLoader(ledger model.LedgerView, env model.Environment, basisBlockHeight uint64) *loader {
	return &loader{
		ledger:           ledger,
		env:              env,
		basisBlockHeight: basisBlockHeight,
		memo:             make(map[string]*model.DidDocument),
	}
}

// loadDID resolves did to its current DID document, memoized for the
// lifetime of this loader.
func (l *loader) loadDID(ctx context.Context, did string) (*model.DidDocument, error) {
	if doc, ok := l.memo[did]; ok {
		return doc, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, did)
	}

	doc, err := l.ledger.GetRecord(ctx, did, l.basisBlockHeight)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, err
	}

	l.memo[did] = doc

	return doc, nil
}

// resolveVerificationMethod loads the verification method named by id
// (a syntactic <did>#<fragment> key id) from the ledger's current view
// of the owning DID document. It searches all three proof-purpose
// sections, since a key id is not required to carry the section name.
func (l *loader) resolveVerificationMethod(ctx context.Context, id string) (*model.VerificationMethod, error) {
	did, _, ok := strings.Cut(id, "#")
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a fragment reference", ErrVerificationMethodNotFound, id)
	}

	doc, err := l.loadDID(ctx, did)
	if err != nil {
		return nil, err
	}

	for _, section := range [][]*model.VerificationMethod{
		doc.Authentication,
		doc.CapabilityInvocation,
		doc.CapabilityDelegation,
	} {
		for _, vm := range section {
			if vm.ID == id {
				return vm, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrVerificationMethodNotFound, id)
}
