package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored entries.
// It is generated from database sequences or content hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Entry is a searchable record with a primary text and an optional
// secondary spelling, usually its Latin form.
type Entry struct {
	Id         ID
	Primary    string
	Secondary  string
	Metadata   map[string]string // Optional metadata (e.g., "source", "line")
	InsertedAt time.Time         // When the entry was inserted into the database
	UpdatedAt  time.Time         // When the entry was last updated
}

// Tuple returns the entry texts as "(Primary,Secondary)".
// This is used for generating deterministic text index keys.
func (e *Entry) Tuple() string {
	return "(" + e.Primary + "," + e.Secondary + ")"
}

// SearchSecondary returns the text matched as the secondary form.
// Entries without a secondary spelling are matched on the primary twice.
func (e *Entry) SearchSecondary() string {
	if e.Secondary == "" {
		return e.Primary
	}
	return e.Secondary
}

// MatchVariant identifies which comparison produced the cost of a match.
type MatchVariant int

const (
	// PrimaryMatch is the query as typed against the primary text.
	PrimaryMatch MatchVariant = iota + 1
	// TransliteratedMatch is the transliterated query against the primary text.
	TransliteratedMatch
	// SecondaryMatch is either form of the query against the secondary text.
	SecondaryMatch
)

func (v MatchVariant) String() string {
	switch v {
	case PrimaryMatch:
		return "primary"
	case TransliteratedMatch:
		return "transliterated"
	case SecondaryMatch:
		return "secondary"
	default:
		return "unknown"
	}
}

// SearchResult is an entry ranked against a query. Lower cost is better.
type SearchResult struct {
	Entry   *Entry
	Cost    float64
	Variant MatchVariant
}
