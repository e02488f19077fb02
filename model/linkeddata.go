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
	"errors"
	"sync"

	"github.com/piprate/json-gold/ld"
	"github.com/piprate/veres-validator/utils/jsonw"
)

const crvyBase = "http://crvy.org/"

var (
	documentLoaderLock    sync.Mutex
	defaultDocumentLoader = ld.DocumentLoader(ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(nil)))
)

// DefaultDocumentLoader returns the process-wide JSON-LD context loader.
// It only ever serves @context documents (did-v1, security-v1/v2, ...);
// it never resolves a DID itself — the validator's own document loader
// wraps this one to also read through a LedgerView.
func DefaultDocumentLoader() ld.DocumentLoader {
	return defaultDocumentLoader
}

// PutBinaryContextIntoDefaultDocumentLoader registers a context document
// under url, as read from an embedded file by the contexts package.
func PutBinaryContextIntoDefaultDocumentLoader(url string, ctx []byte) error {
	documentLoaderLock.Lock()
	defer documentLoaderLock.Unlock()

	cdl, correctType := defaultDocumentLoader.(*ld.CachingDocumentLoader)
	if !correctType {
		return errors.New("failed to put context into cache: wrong loader type")
	}

	var ctxDoc any
	if err := jsonw.Unmarshal(ctx, &ctxDoc); err != nil {
		return err
	}

	cdl.AddDocument(url, ctxDoc)

	return nil
}

// NormalizeDocument runs URDNA2015 over data, producing a deterministic
// N-Quads serialization. It is the sole canonicalization primitive shared
// between signing and verification: both sides must agree byte-for-byte
// on the form that gets hashed and signed.
func NormalizeDocument(data map[string]any) (string, error) {
	proc := ld.NewJsonLdProcessor()

	opts := ld.NewJsonLdOptions(crvyBase)
	opts.ProcessingMode = ld.JsonLd_1_1
	opts.DocumentLoader = DefaultDocumentLoader()
	opts.Format = "application/n-quads"
	opts.Algorithm = "URDNA2015"

	normDoc, err := proc.Normalize(data, opts)
	if err != nil {
		return "", err
	}

	return normDoc.(string), nil
}
