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

// Package validator implements the operation validator: the gatekeeper a
// Veres One-style ledger node calls before admitting a CreateWebLedgerRecord
// or UpdateWebLedgerRecord operation. Validate is a pure function of its
// arguments plus the injected, read-only model.LedgerView.
package validator

import (
	"context"
	"errors"

	"github.com/piprate/veres-validator/model"
	"github.com/piprate/veres-validator/utils/measure"
)

// validatorEnv is the VALIDATOR_ENV selection, read once when the package
// is initialized.
var validatorEnv = model.ResolveEnvironment()

// Validate is the top-level entry point (C8). It dispatches on the
// operation's type, composes C2 through C7, and always returns a Result:
// it never panics and never returns a bare error to the caller.
func Validate(ctx context.Context, basisBlockHeight uint64, ledger model.LedgerView, op *model.Operation, cfg *model.ValidatorConfig) *Result {
	defer measure.ExecTime("validator.Validate")()

	env := validatorEnv
	l := newLoader(ledger, env, basisBlockHeight)

	switch op.Type {
	case model.OpTypeCreateWebLedgerRecord:
		return validateCreate(ctx, l, ledger, basisBlockHeight, env, op, cfg)
	case model.OpTypeUpdateWebLedgerRecord:
		return validateUpdate(ctx, l, ledger, basisBlockHeight, env, op, cfg)
	default:
		return validationError("unsupported operation type: " + op.Type)
	}
}

func validateCreate(ctx context.Context, l *loader, ledger model.LedgerView, basisBlockHeight uint64, env model.Environment, op *model.Operation, cfg *model.ValidatorConfig) *Result {
	record := op.Record
	if record == nil {
		return validationError("create operation is missing a record")
	}

	if err := model.ValidateDidDocument(record, env); err != nil {
		return validationError(err.Error())
	}

	if err := model.BindDID(record, env); err != nil {
		return validationError(err.Error())
	}

	if _, err := l.loadDID(ctx, record.ID); err == nil {
		return duplicateError(record.ID)
	} else if !errors.Is(err, model.ErrRecordNotFound) {
		return timeoutError(record.ID)
	}

	if res := verifyCapabilityInvocation(ctx, l, op, record.ID, model.ActionCreate, cfg, record); res != nil {
		return res
	}

	if res := enforceServicePolicy(ctx, ledger, basisBlockHeight, cfg, record); res != nil {
		return res
	}

	return validResult()
}

func validateUpdate(ctx context.Context, l *loader, ledger model.LedgerView, basisBlockHeight uint64, env model.Environment, op *model.Operation, cfg *model.ValidatorConfig) *Result {
	rp := op.RecordPatch
	if rp == nil {
		return validationError("update operation is missing a recordPatch")
	}

	d0, err := l.loadDID(ctx, rp.Target)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return notFoundError("no such record: " + rp.Target)
		}
		return timeoutError(rp.Target)
	}

	if res := verifyCapabilityInvocation(ctx, l, op, rp.Target, model.ActionUpdate, cfg, d0); res != nil {
		return res
	}

	d1, res := applyRecordPatch(ctx, l, env, rp)
	if res != nil {
		return res
	}

	if res := enforceServicePolicy(ctx, ledger, basisBlockHeight, cfg, d1); res != nil {
		return res
	}

	return validResult()
}
