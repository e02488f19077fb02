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

const (
	ErrNameValidationError = "ValidationError"
	ErrNameDuplicateError  = "DuplicateError"
	ErrNameNotFoundError   = "NotFoundError"
	ErrNameInvalidState    = "InvalidStateError"
	ErrNameTimeoutError    = "TimeoutError"
)

type (
	// ProofVerifyFailure is one entry of a proof verification's error
	// list. The message text is part of the contract: callers pattern-match
	// on it, so it is never reworded once chosen.
	ProofVerifyFailure struct {
		Message        string `json:"message"`
		HTTPStatusCode int    `json:"httpStatusCode,omitempty"`
	}

	// ProofVerifyResult reports whether the capability-invocation proof
	// verified, and if not, why.
	ProofVerifyResult struct {
		Verified bool                 `json:"verified"`
		Error    []ProofVerifyFailure `json:"error,omitempty"`
	}

	// Details carries the optional, kind-specific diagnostic payload of
	// an Error.
	Details struct {
		ProofVerifyResult     *ProofVerifyResult `json:"proofVerifyResult,omitempty"`
		AllowedServiceBaseURL []string           `json:"allowedServiceBaseUrl,omitempty"`
	}

	// Error is the validator's sole error representation at its boundary.
	// It is never returned bare; it always travels inside a Result.
	Error struct {
		Name    string   `json:"name"`
		Message string   `json:"message"`
		Details *Details `json:"details,omitempty"`
		Cause   error    `json:"-"`
	}

	// Result is the sole return value of Validate. valid==false is
	// always accompanied by a non-nil Error; the reverse never happens.
	Result struct {
		Valid bool   `json:"valid"`
		Error *Error `json:"error,omitempty"`
	}
)

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Name + ": " + e.Message
}

func validResult() *Result {
	return &Result{Valid: true}
}

func errResult(name, message string, details *Details) *Result {
	return &Result{
		Valid: false,
		Error: &Error{
			Name:    name,
			Message: message,
			Details: details,
		},
	}
}

func validationError(message string) *Result {
	return errResult(ErrNameValidationError, message, nil)
}

func validationErrorWithProof(message string, proofErr *ProofVerifyResult) *Result {
	return errResult(ErrNameValidationError, message, &Details{ProofVerifyResult: proofErr})
}

func duplicateError(did string) *Result {
	return errResult(ErrNameDuplicateError, "record already exists: "+did, nil)
}

func notFoundError(message string) *Result {
	return errResult(ErrNameNotFoundError, message, nil)
}

func invalidStateError(message string) *Result {
	return errResult(ErrNameInvalidState, message, nil)
}

func timeoutError(url string) *Result {
	return errResult(ErrNameTimeoutError, "timed out resolving: "+url, nil)
}

// proofFailure builds the single-entry proofVerifyResult.error shape
// callers pattern-match on for a failed capability-invocation proof.
func proofFailure(message string) *ProofVerifyResult {
	return &ProofVerifyResult{
		Verified: false,
		Error:    []ProofVerifyFailure{{Message: message}},
	}
}
