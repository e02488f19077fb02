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
	"context"
	"errors"
)

// ErrRecordNotFound indicates the ledger has no record for the given DID
// at the requested basis block height.
var ErrRecordNotFound = errors.New("record not found")

// LedgerView is the validator's sole read path into ledger state. It is
// read-only and pure with respect to a fixed basisBlockHeight: a ledger
// node implements it against whatever storage engine it runs, and the
// validator is never aware of that engine.
type LedgerView interface {
	// GetRecord returns the current DID document for did as observed at
	// basisBlockHeight, or ErrRecordNotFound if no such document exists.
	GetRecord(ctx context.Context, did string, basisBlockHeight uint64) (*DidDocument, error)

	// GetParameterSet returns the ValidatorParameterSet record published
	// at the given DID, or ErrRecordNotFound if the ledger has none. A
	// ValidatorParameterSet is a distinct ledger-resident document type
	// from a DidDocument, hence the separate accessor.
	GetParameterSet(ctx context.Context, did string, basisBlockHeight uint64) (*ValidatorParameterSet, error)
}
