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

	jsonpatch "gopkg.in/evanphx/json-patch.v4"

	"github.com/piprate/veres-validator/model"
	"github.com/piprate/veres-validator/utils/jsonw"
)

// applyRecordPatch implements C6. It loads the current document, checks
// the sequence number, applies the patch to a deep-cloned working copy,
// and re-validates + re-binds the result. It never mutates the document
// returned by the loader.
func applyRecordPatch(ctx context.Context, l *loader, env model.Environment, rp *model.RecordPatch) (*model.DidDocument, *Result) {
	d0, err := l.loadDID(ctx, rp.Target)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return nil, notFoundError("no such record: " + rp.Target)
		}
		return nil, timeoutError(rp.Target)
	}

	if d0.Sequence != nil && rp.Sequence != *d0.Sequence+1 {
		return nil, validationError("invalid sequence number")
	}

	d0Bytes, err := jsonw.Marshal(d0)
	if err != nil {
		return nil, validationError("failed to marshal current document: " + err.Error())
	}

	patch, err := jsonpatch.DecodePatch(rp.Patch)
	if err != nil {
		return nil, validationError("invalid JSON patch: " + err.Error())
	}

	patchedBytes, err := patch.Apply(d0Bytes)
	if err != nil {
		return nil, validationError("failed to apply JSON patch: " + err.Error())
	}

	var d1 model.DidDocument
	if err := jsonw.Unmarshal(patchedBytes, &d1); err != nil {
		return nil, validationError("patched document is not valid JSON: " + err.Error())
	}

	if d1.ID != d0.ID {
		return nil, validationError("a patch may not change the document id")
	}

	if err := model.ValidateDidDocument(&d1, env); err != nil {
		return nil, validationError(err.Error())
	}

	if err := model.BindDID(&d1, env); err != nil {
		return nil, validationError(err.Error())
	}

	if len(d0.CapabilityInvocation) > 0 && d0.CapabilityInvocation[0].PublicKeyBase58 != d1.CapabilityInvocation[0].PublicKeyBase58 {
		return nil, validationError("capabilityInvocation[0] public key may not be rotated or removed by a patch")
	}

	return &d1, nil
}
