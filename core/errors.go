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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidEntry indicates an Entry failed validation.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrEmptyPrimary indicates the Primary field is empty.
	ErrEmptyPrimary = errors.New("primary text cannot be empty")

	// ErrSeparatorInText indicates a text contains a tab or line break.
	ErrSeparatorInText = errors.New("text cannot contain tabs or line breaks")

	// ErrInvalidMetadata indicates a metadata key is empty or malformed.
	ErrInvalidMetadata = errors.New("invalid metadata")

	// ErrCorruptMetadata indicates encoded metadata has an impossible pair count.
	ErrCorruptMetadata = errors.New("corrupt metadata encoding")
)
