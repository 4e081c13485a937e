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

import (
	"fmt"
	"strings"
)

// ValidateEntry validates an Entry according to domain rules.
//
// Validation rules:
//   - Primary must not be empty or blank
//   - Primary and Secondary must not contain tabs or line breaks
//   - Metadata keys must be non-empty and free of '=' and ';'
//
// NOT validated:
//   - Secondary (empty means "same as primary")
//   - ID (0 is valid from database sequences)
func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if strings.TrimSpace(entry.Primary) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyPrimary)
	}

	if !IsSingleLine(entry.Primary) || !IsSingleLine(entry.Secondary) {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrSeparatorInText)
	}

	for key, value := range entry.Metadata {
		if err := ValidateMetadataPair(key, value); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
	}

	return nil
}

// ValidateMetadataPair checks that a metadata pair survives the import line format.
func ValidateMetadataPair(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidMetadata)
	}
	if strings.ContainsAny(key, "=;\t\r\n") {
		return fmt.Errorf("%w: key %q", ErrInvalidMetadata, key)
	}
	if strings.ContainsAny(value, ";\t\r\n") {
		return fmt.Errorf("%w: value of %q", ErrInvalidMetadata, key)
	}
	return nil
}

// IsSingleLine reports whether text is free of tabs and line breaks.
func IsSingleLine(text string) bool {
	return !strings.ContainsAny(text, "\t\r\n")
}
