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


// Package storage provides the storage abstraction layer for fuzzystore.
//
// This package defines repository interfaces that decouple storage implementation
// from the search and import code. Different backends (BadgerDB, Redis) can be
// used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the storage.EntryRepository interface:
//
//	repo, err := badger.NewRepository(path)  // returns storage.EntryRepository
//	repo, err := redis.NewRepository(client) // returns storage.EntryRepository
//
// Internal package constructors (newEntryRepository, newBackend, etc.) may return
// concrete types since they're only used within the implementation package.
//
// # Unit of Work
//
// WithTransaction opens a unit of work. Every repository call made with the
// context handed to the callback joins it, nested WithTransaction calls join the
// outer one, and the whole unit commits or rolls back together:
//
//	err := repo.WithTransaction(ctx, func(ctx context.Context) error {
//	    if _, err := repo.AddEntries(ctx, entries...); err != nil {
//	        return err
//	    }
//	    return repo.DeleteEntries(ctx, stale...)
//	})
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and transaction scoping. Pass context.Background() for operations
// outside a unit of work.
package storage
