package core

import (
	"errors"
	"testing"
)

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *Entry
		wantErr error
	}{
		{
			name:    "valid entry",
			entry:   &Entry{Primary: "Иванов", Secondary: "Ivanov"},
			wantErr: nil,
		},
		{
			name:    "valid entry without secondary",
			entry:   &Entry{Primary: "Иванов"},
			wantErr: nil,
		},
		{
			name: "valid entry with metadata",
			entry: &Entry{
				Primary:  "Иванов",
				Metadata: map[string]string{"source": "census", "year": "1897"},
			},
			wantErr: nil,
		},
		{
			name:    "valid entry with ID 0",
			entry:   &Entry{Id: 0, Primary: "Петров"},
			wantErr: nil,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantErr: ErrInvalidEntry,
		},
		{
			name:    "empty primary",
			entry:   &Entry{Secondary: "Ivanov"},
			wantErr: ErrEmptyPrimary,
		},
		{
			name:    "blank primary",
			entry:   &Entry{Primary: "   "},
			wantErr: ErrEmptyPrimary,
		},
		{
			name:    "tab in primary",
			entry:   &Entry{Primary: "Иванов\tИван"},
			wantErr: ErrSeparatorInText,
		},
		{
			name:    "line break in secondary",
			entry:   &Entry{Primary: "Иванов", Secondary: "Ivanov\n"},
			wantErr: ErrSeparatorInText,
		},
		{
			name: "empty metadata key",
			entry: &Entry{
				Primary:  "Иванов",
				Metadata: map[string]string{"": "x"},
			},
			wantErr: ErrInvalidMetadata,
		},
		{
			name: "metadata key with equals sign",
			entry: &Entry{
				Primary:  "Иванов",
				Metadata: map[string]string{"a=b": "x"},
			},
			wantErr: ErrInvalidMetadata,
		},
		{
			name: "metadata value with semicolon",
			entry: &Entry{
				Primary:  "Иванов",
				Metadata: map[string]string{"a": "x;y"},
			},
			wantErr: ErrInvalidMetadata,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntry(tt.entry)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEntry() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEntry() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("ValidateEntry() error = %v, want wrapped %v", err, ErrInvalidEntry)
			}
		})
	}
}

func TestIsSingleLine(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Иванов", true},
		{"", true},
		{"Петров-Водкин Кузьма", true},
		{"a\tb", false},
		{"a\nb", false},
		{"a\r", false},
	}

	for _, tt := range tests {
		if got := IsSingleLine(tt.text); got != tt.want {
			t.Errorf("IsSingleLine(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
