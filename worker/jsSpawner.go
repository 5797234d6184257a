////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package worker

import (
	"github.com/hack-pad/safejs"
	"github.com/pkg/errors"
)

// JsSpawner starts each worker as a Javascript Worker running the script at
// URL. The script is expected to load the worker WASM binary.
type JsSpawner struct {
	// URL is the path to the worker script.
	URL string

	// Type is the worker type: "classic" or "module".
	Type string
}

// Spawn creates a new Javascript Worker with the given name.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Worker/Worker
func (s JsSpawner) Spawn(name string) (Port, error) {
	workerType := s.Type
	if workerType == "" {
		workerType = "classic"
	}
	opts := newWorkerOptions(workerType, "omit", name)

	constructor, err := safejs.Global().Get("Worker")
	if err != nil {
		return nil, err
	}
	w, err := constructor.New(s.URL, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to construct Worker for %q", s.URL)
	}

	return NewJsPort(w, "main", "terminate")
}

// newWorkerOptions creates a new Javascript object containing optional
// properties that can be set when creating a new worker.
//
// Each property is optional; leave a property empty to use the defaults (as
// documented). The available properties are:
//   - type - The type of worker to create. The value can be either "classic" or
//     "module". If not specified, the default used is "classic".
//   - credentials - The type of credentials to use for the worker. The value
//     can be "omit", "same-origin", or "include". If it is not specified, or if
//     the type is "classic", then the default used is "omit" (no credentials
//     are required).
//   - name - An identifying name for the worker, used mainly for debugging
//     purposes.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Worker/Worker#options
func newWorkerOptions(workerType, credentials, name string) map[string]any {
	options := make(map[string]any, 3)
	if workerType != "" {
		options["type"] = workerType
	}
	if credentials != "" {
		options["credentials"] = credentials
	}
	if name != "" {
		options["name"] = name
	}
	return options
}
