// Package collection provides pure operations over ordered collections of
// entities embedded in a draft document. Entities are JSON objects carrying
// a stable string "id"; every operation returns a new slice and leaves its
// input untouched.
package collection

import (
	"github.com/google/uuid"
)

// IDField is the entity identifier key.
const IDField = "id"

// Direction selects the neighbor for a Move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// NewID mints a collision-free entity id for the session. The original
// implementation derived ids from a coarse timestamp, which can collide
// under rapid successive inserts; UUIDs close that hole.
func NewID() string {
	return uuid.NewString()
}

// EntityID extracts the id of a collection element.
func EntityID(v any) (string, bool) {
	entity, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := entity[IDField].(string)
	return id, ok
}

// FindByID returns the entity with the given id, if present.
func FindByID(c []any, id string) (map[string]any, bool) {
	for _, v := range c {
		if eid, ok := EntityID(v); ok && eid == id {
			return v.(map[string]any), true
		}
	}
	return nil, false
}

// Insert appends the entity at the end of the collection. Insertion never
// happens at a cursor position. The entity is given a fresh id when the
// caller did not mint one.
func Insert(c []any, entity map[string]any) []any {
	added := make(map[string]any, len(entity)+1)
	for k, v := range entity {
		added[k] = v
	}
	if _, ok := added[IDField].(string); !ok {
		added[IDField] = NewID()
	}

	out := make([]any, 0, len(c)+1)
	out = append(out, c...)
	return append(out, added)
}

// PatchByID merges fields into the entity with the given id. When the id is
// absent the input collection is returned unchanged; a missing entity is
// never an error.
func PatchByID(c []any, id string, fields map[string]any) []any {
	index := indexOf(c, id)
	if index < 0 {
		return c
	}

	current := c[index].(map[string]any)
	patched := make(map[string]any, len(current)+len(fields))
	for k, v := range current {
		patched[k] = v
	}
	for k, v := range fields {
		if k == IDField {
			continue
		}
		patched[k] = v
	}

	out := make([]any, len(c))
	copy(out, c)
	out[index] = patched
	return out
}

// RemoveByID filters out the entity with the given id.
func RemoveByID(c []any, id string) []any {
	index := indexOf(c, id)
	if index < 0 {
		return c
	}

	out := make([]any, 0, len(c)-1)
	out = append(out, c[:index]...)
	return append(out, c[index+1:]...)
}

// ToggleFlag flips a boolean field on the entity with the given id. An
// absent or non-boolean flag is treated as false and becomes true.
func ToggleFlag(c []any, id string, flag string) []any {
	entity, ok := FindByID(c, id)
	if !ok {
		return c
	}
	current, _ := entity[flag].(bool)
	return PatchByID(c, id, map[string]any{flag: !current})
}

// Move swaps the entity with its immediate neighbor in the given direction.
// Moving the first entity up or the last entity down is a no-op; the
// collection never wraps.
func Move(c []any, id string, dir Direction) []any {
	index := indexOf(c, id)
	if index < 0 {
		return c
	}

	target := index - 1
	if dir == DirectionDown {
		target = index + 1
	}
	if target < 0 || target >= len(c) {
		return c
	}

	out := make([]any, len(c))
	copy(out, c)
	out[index], out[target] = out[target], out[index]
	return out
}

// PruneReference removes id from the named reference-set field of every
// entity in the collection. Entities without the field pass through
// untouched.
func PruneReference(c []any, field string, id string) []any {
	out := make([]any, len(c))
	copy(out, c)

	for i, v := range c {
		entity, ok := v.(map[string]any)
		if !ok {
			continue
		}
		refs, ok := entity[field].([]any)
		if !ok {
			continue
		}

		kept := make([]any, 0, len(refs))
		for _, ref := range refs {
			if s, ok := ref.(string); ok && s == id {
				continue
			}
			kept = append(kept, ref)
		}
		if len(kept) == len(refs) {
			continue
		}

		pruned := make(map[string]any, len(entity))
		for k, val := range entity {
			pruned[k] = val
		}
		pruned[field] = kept
		out[i] = pruned
	}
	return out
}

func indexOf(c []any, id string) int {
	for i, v := range c {
		if eid, ok := EntityID(v); ok && eid == id {
			return i
		}
	}
	return -1
}
