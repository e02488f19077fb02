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
	"net/url"
	"strings"

	"github.com/piprate/veres-validator/model"
)

// enforceServicePolicy implements C7. If cfg has no validatorParameterSet
// configured, service descriptors are admitted unconditionally — the
// backwards-compatible permissive mode for ledger nodes that don't
// enforce a service-endpoint policy.
func enforceServicePolicy(ctx context.Context, ledger model.LedgerView, basisBlockHeight uint64, cfg *model.ValidatorConfig, doc *model.DidDocument) *Result {
	if cfg.ValidatorParameterSet == "" {
		return nil
	}

	params, err := ledger.GetParameterSet(ctx, cfg.ValidatorParameterSet, basisBlockHeight)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			return invalidStateError("validatorParameterSet not found on ledger: " + cfg.ValidatorParameterSet)
		}
		return timeoutError(cfg.ValidatorParameterSet)
	}

	for _, svc := range doc.Service {
		if !serviceEndpointAllowed(svc.ServiceEndpoint, params.AllowedServiceBaseURL) {
			return errResult(ErrNameValidationError,
				"service endpoint is not in the allowed base URL list: "+svc.ServiceEndpoint,
				&Details{AllowedServiceBaseURL: params.AllowedServiceBaseURL})
		}
	}

	return nil
}

// serviceEndpointAllowed reports whether endpoint's scheme+host(+port)
// matches at least one of the allowed base URL prefixes.
func serviceEndpointAllowed(endpoint string, allowedBases []string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	origin := u.Scheme + "://" + u.Host + "/"

	for _, base := range allowedBases {
		if strings.HasPrefix(origin, base) || strings.HasPrefix(endpoint, base) {
			return true
		}
	}

	return false
}
