// Copyright 2025 Poiesic Systems
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


// Package storage provides the storage abstraction layer for scicat.
//
// This package defines repository interfaces that decouple storage implementation
// from the scoring, classification and search engines, together with the binary
// encoding of stored records.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - ProjectRepository: cataloged projects, the reference corpus and search lookups
//   - FieldRepository: scientific field definitions
//   - ClassificationRepository: per-project field classifications
//
// # Usage
//
// Open a BadgerDB backend and create repositories on top of it:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	projects, err := badger.NewProjectRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer repos.Close()
//
// # Encoding
//
// Records are encoded with MUS primitives (varint, ord, raw) behind a
// leading version byte. Decoding failures wrap ErrSerializationFailed.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
