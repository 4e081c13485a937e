package core

import (
	"testing"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryMUS(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		entry Entry
	}{
		{
			name:  "texts only",
			entry: Entry{Id: 1, Primary: "Иванов", Secondary: "Ivanov", InsertedAt: now, UpdatedAt: now},
		},
		{
			name: "with metadata",
			entry: Entry{
				Id:         ID(1 << 40),
				Primary:    "Петров-Водкин",
				Secondary:  "Petrov-Vodkin",
				Metadata:   map[string]string{"source": "catalog", "line": "12"},
				InsertedAt: now,
				UpdatedAt:  now.Add(time.Hour),
			},
		},
		{
			name:  "empty secondary",
			entry: Entry{Id: 7, Primary: "Щукин", InsertedAt: now, UpdatedAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := make([]byte, EntryMUS.Size(tt.entry))
			n := EntryMUS.Marshal(tt.entry, bs)
			require.Equal(t, len(bs), n)

			decoded, m, err := EntryMUS.Unmarshal(bs)
			require.NoError(t, err)
			assert.Equal(t, n, m)
			assert.Equal(t, tt.entry, decoded)

			skipped, err := EntryMUS.Skip(bs)
			require.NoError(t, err)
			assert.Equal(t, n, skipped)
		})
	}
}

func TestEntryMUS_Truncated(t *testing.T) {
	e := Entry{Id: 3, Primary: "Сидоров", Secondary: "Sidorov", Metadata: map[string]string{"k": "v"}}
	bs := make([]byte, EntryMUS.Size(e))
	EntryMUS.Marshal(e, bs)

	for _, cut := range []int{0, 1, 5, len(bs) - 1} {
		_, _, err := EntryMUS.Unmarshal(bs[:cut])
		assert.Error(t, err, "cut at %d", cut)
	}
}

func TestEntryMUS_CorruptMetadataCount(t *testing.T) {
	e := Entry{Id: 3, Primary: "a", Secondary: "b"}
	bs := make([]byte, EntryMUS.Size(e))
	n := EntryMUS.Marshal(e, bs)

	// Id, two one-byte strings with length prefixes, then the pair count.
	countAt := IDMUS.Size(e.Id) + 4
	require.Less(t, countAt, n)
	bs[countAt] = 0x7e

	_, _, err := EntryMUS.Unmarshal(bs)
	assert.ErrorIs(t, err, ErrCorruptMetadata)
}

func TestEntryMUS_MetadataKeyOrder(t *testing.T) {
	metadata := map[string]string{"zone": "3", "alpha": "1", "line": "12", "book": "x", "source": "catalog"}
	e := Entry{Id: 9, Primary: "Иванов", Secondary: "Ivanov", Metadata: metadata}

	first := make([]byte, EntryMUS.Size(e))
	EntryMUS.Marshal(e, first)
	for range 20 {
		again := make([]byte, EntryMUS.Size(e))
		EntryMUS.Marshal(e, again)
		require.Equal(t, first, again)
	}

	want := make([]byte, sizeMetadata(metadata))
	n := varint.Int.Marshal(len(metadata), want)
	for _, k := range []string{"alpha", "book", "line", "source", "zone"} {
		n += ord.String.Marshal(k, want[n:])
		n += ord.String.Marshal(metadata[k], want[n:])
	}
	got := make([]byte, sizeMetadata(metadata))
	marshalMetadata(metadata, got)
	assert.Equal(t, want[:n], got)
}

func TestIDMUS(t *testing.T) {
	for _, id := range []ID{0, 1, 300, ID(^uint64(0))} {
		bs := make([]byte, IDMUS.Size(id))
		IDMUS.Marshal(id, bs)
		decoded, _, err := IDMUS.Unmarshal(bs)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}
