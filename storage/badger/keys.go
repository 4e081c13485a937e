package badger

import (
	"encoding/binary"

	"github.com/poiesic/fuzzystore/core"
)

// Key prefixes for different data types
const (
	entryRecordPrefix = "entrec:"
	entryTextPrefix   = "entrtx:"
	entryIDSeq        = "entrecseq"
)

// makeEntryKey generates a key for an entry by ID.
// Format: prefix + big endian ID, so prefix scans return entries in ID order.
func makeEntryKey(id core.ID) []byte {
	buf := make([]byte, len(entryRecordPrefix)+8)
	offset := copy(buf, entryRecordPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// parseEntryKey extracts the ID from an entry key.
func parseEntryKey(key []byte) (core.ID, bool) {
	if len(key) != len(entryRecordPrefix)+8 || string(key[:len(entryRecordPrefix)]) != entryRecordPrefix {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(entryRecordPrefix):])), true
}

// makeEntryTextKey generates the text index key for an entry.
// Format: prefix + big endian content hash of the (primary,secondary) tuple.
// The hash keeps keys short for long texts; readers compare the texts of
// the referenced entry before trusting a hit.
func makeEntryTextKey(primary, secondary string) []byte {
	e := core.Entry{Primary: primary, Secondary: secondary}
	buf := make([]byte, len(entryTextPrefix)+8)
	offset := copy(buf, entryTextPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(e.Tuple())))
	return buf
}
