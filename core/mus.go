package core

import (
	"maps"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// IDMUS is the binary serializer for ID values.
var IDMUS = idMUS{}

// EntryMUS is the binary serializer for Entry values.
// Timestamps are stored as Unix microseconds and decoded in UTC.
var EntryMUS = entryMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	return ID(tmp), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type entryMUS struct{}

func (s entryMUS) Marshal(v Entry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Primary, bs[n:])
	n += ord.String.Marshal(v.Secondary, bs[n:])
	n += marshalMetadata(v.Metadata, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
	return n + varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
}

func (s entryMUS) Unmarshal(bs []byte) (v Entry, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Primary, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Secondary, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = unmarshalMetadata(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt = time.UnixMicro(micros).UTC()
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return
}

func (s entryMUS) Size(v Entry) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Primary)
	size += ord.String.Size(v.Secondary)
	size += sizeMetadata(v.Metadata)
	size += varint.Int64.Size(v.InsertedAt.UnixMicro())
	return size + varint.Int64.Size(v.UpdatedAt.UnixMicro())
}

func (s entryMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// Metadata is written as a pair count followed by key/value strings in key
// order.

func marshalMetadata(m map[string]string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(m), bs)
	for _, k := range slices.Sorted(maps.Keys(m)) {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(m[k], bs[n:])
	}
	return n
}

func unmarshalMetadata(bs []byte) (m map[string]string, n int, err error) {
	count, n, err := varint.Int.Unmarshal(bs)
	if err != nil || count == 0 {
		return
	}
	// Every pair takes at least two bytes.
	if count < 0 || count > len(bs[n:])/2 {
		return nil, n, ErrCorruptMetadata
	}
	m = make(map[string]string, count)
	var (
		k, v string
		n1   int
	)
	for range count {
		k, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		m[k] = v
	}
	return
}

func sizeMetadata(m map[string]string) (size int) {
	size = varint.Int.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return size
}
