package storage

import (
	"testing"
	"time"

	"github.com/poiesic/fuzzystore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("(Иванов,Ivanov)")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalEntry(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		entry *core.Entry
	}{
		{
			name: "minimal entry",
			entry: &core.Entry{
				Id:         core.ID(1),
				Primary:    "Иванов",
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "entry with secondary",
			entry: &core.Entry{
				Id:         core.ID(2),
				Primary:    "Петров-Водкин",
				Secondary:  "Petrov-Vodkin",
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "entry with metadata",
			entry: &core.Entry{
				Id:         core.ID(3),
				Primary:    "Анна Каренина",
				Secondary:  "Anna Karenina",
				Metadata:   map[string]string{"author": "Tolstoy", "year": "1878"},
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "unicode everywhere",
			entry: &core.Entry{
				Id:         core.ID(4),
				Primary:    "Ёжиков 🦔",
				Secondary:  "Ëzhikov",
				Metadata:   map[string]string{"заметка": "ёж"},
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalEntry(tt.entry)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalEntry(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.entry.Id, decoded.Id)
			assert.Equal(t, tt.entry.Primary, decoded.Primary)
			assert.Equal(t, tt.entry.Secondary, decoded.Secondary)
			assert.True(t, tt.entry.InsertedAt.Equal(decoded.InsertedAt))
			assert.True(t, tt.entry.UpdatedAt.Equal(decoded.UpdatedAt))
			if len(tt.entry.Metadata) == 0 {
				assert.Empty(t, decoded.Metadata)
			} else {
				assert.Equal(t, tt.entry.Metadata, decoded.Metadata)
			}
		})
	}
}

func TestUnmarshalEntry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}
