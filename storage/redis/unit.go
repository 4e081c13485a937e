package redis

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"

	"github.com/poiesic/fuzzystore/core"
	"github.com/poiesic/fuzzystore/storage"
	"github.com/redis/go-redis/v9"
)

type unitKey struct{}

// reader is the part of the client API used for reads. Both the client and
// a watched *redis.Tx provide it.
type reader interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HLen(ctx context.Context, key string) *redis.IntCmd
}

// unit is a unit of work: reads see the writes it has queued so far.
// Outside WithTransaction a unit without pending maps serves plain reads.
type unit struct {
	owner   *Repository
	rd      reader
	entries map[core.ID]*core.Entry // nil marks a deletion
	texts   map[string]core.ID      // 0 marks a deletion
}

func (u *unit) pending() bool {
	return len(u.entries) > 0 || len(u.texts) > 0
}

func (u *unit) empty() bool {
	return !u.pending()
}

func (u *unit) entry(ctx context.Context, k keys, id core.ID) (*core.Entry, error) {
	if e, ok := u.entries[id]; ok {
		return e, nil
	}
	data, err := u.rd.HGet(ctx, k.entries, idField(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return storage.UnmarshalEntry(data)
}

// entryByText follows the text index. Hash collisions and stale index
// fields yield nil.
func (u *unit) entryByText(ctx context.Context, k keys, primary, secondary string) (*core.Entry, error) {
	field := textField(primary, secondary)
	id, ok := u.texts[field]
	if !ok {
		raw, err := u.rd.HGet(ctx, k.text, field).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			return nil, err
		}
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, storage.ErrSerializationFailed
		}
		id = core.ID(parsed)
	}
	if id == 0 {
		return nil, nil
	}

	entry, err := u.entry(ctx, k, id)
	if err != nil || entry == nil {
		return nil, err
	}
	if entry.Primary != primary || entry.Secondary != secondary {
		return nil, nil
	}
	return entry, nil
}

// all returns every entry ordered by ID.
func (u *unit) all(ctx context.Context, k keys) ([]*core.Entry, error) {
	raw, err := u.rd.HGetAll(ctx, k.entries).Result()
	if err != nil {
		return nil, err
	}

	byID := make(map[core.ID]*core.Entry, len(raw)+len(u.entries))
	for _, value := range raw {
		entry, err := storage.UnmarshalEntry([]byte(value))
		if err != nil {
			return nil, err
		}
		byID[entry.Id] = entry
	}
	for id, entry := range u.entries {
		if entry == nil {
			delete(byID, id)
			continue
		}
		byID[id] = entry
	}

	result := slices.Collect(maps.Values(byID))
	sortByID(result)
	return result, nil
}

// put queues a copy of entry and points its text index at it.
func (u *unit) put(entry *core.Entry) {
	stored := *entry
	u.entries[entry.Id] = &stored
	u.texts[textField(entry.Primary, entry.Secondary)] = entry.Id
}

// dropText queues removal of the text index of entry unless the field was
// already reassigned in this unit.
func (u *unit) dropText(entry *core.Entry) {
	field := textField(entry.Primary, entry.Secondary)
	if id, ok := u.texts[field]; ok && id != entry.Id {
		return
	}
	u.texts[field] = 0
}

func (u *unit) remove(entry *core.Entry) {
	u.dropText(entry)
	u.entries[entry.Id] = nil
}

// flush queues the pending writes on pipe.
func (u *unit) flush(ctx context.Context, pipe redis.Pipeliner, k keys) {
	for id, entry := range u.entries {
		if entry == nil {
			pipe.HDel(ctx, k.entries, idField(id))
			continue
		}
		pipe.HSet(ctx, k.entries, idField(id), storage.MarshalEntry(entry))
	}
	for field, id := range u.texts {
		if id == 0 {
			pipe.HDel(ctx, k.text, field)
			continue
		}
		pipe.HSet(ctx, k.text, field, idField(id))
	}
}
