// Copyright 2025 Weftworks
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


package badger

import "github.com/weftworks/loom/storage"

// NewMemoryStores creates in-memory document, vector, and graph stores for
// testing. Returns the stores plus the shared backend.
// Caller must close all three stores and the backend when done.
func NewMemoryStores() (storage.DocumentStore, storage.VectorIndex, storage.GraphStore, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	docs, err := NewDocumentStore(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, nil, err
	}

	vectors, err := NewVectorIndex(backend)
	if err != nil {
		docs.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	graph, err := NewGraphStore(backend)
	if err != nil {
		vectors.Close()
		docs.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	return docs, vectors, graph, backend, nil
}
