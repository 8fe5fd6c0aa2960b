package checklist

import (
	"sort"

	"github.com/fieldline/sitebook/internal/jsonval"
)

// Fields maps a field name to a JSON value.
type Fields map[string]any

// Collection maps a record (checklist item) ID to its fields.
type Collection map[string]Fields

// Diff maps a record ID to the fields that differ, with draft-side values.
type Diff map[string]Fields

// RemovedField is the patch value for a field that exists on the persisted
// side but not in the draft. Applying it deletes the field.
type RemovedField struct{}

// MarshalJSON keeps removals distinguishable from explicit nulls on the wire.
func (RemovedField) MarshalJSON() ([]byte, error) {
	return []byte(`{"$removed":true}`), nil
}

// Removed is the single RemovedField value used in patches.
var Removed = RemovedField{}

// IsRemoved reports whether v marks a field removal.
func IsRemoved(v any) bool {
	switch v.(type) {
	case RemovedField, *RemovedField:
		return true
	}
	return false
}

// PatchFromWire converts a decoded JSON patch into Fields, turning
// {"$removed":true} markers back into Removed.
func PatchFromWire(raw map[string]any) Fields {
	out := make(Fields, len(raw))
	for k, v := range raw {
		if m, ok := v.(map[string]any); ok && len(m) == 1 && m["$removed"] == true {
			out[k] = Removed
			continue
		}
		out[k] = v
	}
	return out
}

// Clone deep-copies the fields.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = jsonval.Clone(v)
	}
	return out
}

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the collection. A nil collection clones to an empty one.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for id, fields := range c {
		out[id] = fields.Clone()
	}
	return out
}

// Equal reports whether both collections hold the same field values.
// A record with no fields is the same as an absent record.
func (c Collection) Equal(other Collection) bool {
	for id, fields := range c {
		if !fieldsEqual(fields, other[id]) {
			return false
		}
	}
	for id, fields := range other {
		if _, ok := c[id]; !ok && len(fields) > 0 {
			return false
		}
	}
	return true
}

// RecordIDs returns the collection's record IDs in sorted order.
func (c Collection) RecordIDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RecordIDs returns the IDs of records with changes, sorted.
func (d Diff) RecordIDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func fieldsEqual(a, b Fields) bool {
	if len(a) != len(b) {
		return false
	}
	for name, av := range a {
		bv, ok := b[name]
		if !ok || !jsonval.Equal(av, bv) {
			return false
		}
	}
	return true
}

// CommitResult reports the outcome of committing all pending changes.
type CommitResult struct {
	// Committed lists records whose patch was written, sorted.
	Committed []string `json:"committed"`
	// FailedRecordID is the record whose write failed first, if any.
	FailedRecordID string `json:"failed_record_id,omitempty"`
	// LocalOnly is set when no commit adapter was registered and the
	// draft was accepted as persisted without any write.
	LocalOnly bool `json:"local_only,omitempty"`
}
