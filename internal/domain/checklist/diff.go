package checklist

import "github.com/fieldline/sitebook/internal/jsonval"

// ComputeItemDiff returns, per record, the fields whose draft value differs
// from the persisted value. Fields missing from the draft are reported as
// Removed. Records without differing fields are omitted.
func ComputeItemDiff(persisted, draft Collection) Diff {
	diff := make(Diff)
	for id, draftFields := range draft {
		if patch := diffFields(persisted[id], draftFields); len(patch) > 0 {
			diff[id] = patch
		}
	}
	for id, persistedFields := range persisted {
		if _, ok := draft[id]; ok {
			continue
		}
		if patch := diffFields(persistedFields, nil); len(patch) > 0 {
			diff[id] = patch
		}
	}
	return diff
}

func diffFields(persisted, draft Fields) Fields {
	var patch Fields
	for name, draftValue := range draft {
		persistedValue, ok := persisted[name]
		if ok && jsonval.Equal(persistedValue, draftValue) {
			continue
		}
		if patch == nil {
			patch = make(Fields)
		}
		patch[name] = jsonval.Clone(draftValue)
	}
	for name := range persisted {
		if _, ok := draft[name]; ok {
			continue
		}
		if patch == nil {
			patch = make(Fields)
		}
		patch[name] = Removed
	}
	return patch
}

// ApplyPatch merges patch into c[recordID], creating the record if absent.
// Removed values delete fields; a record emptied by removals is dropped.
func ApplyPatch(c Collection, recordID string, patch Fields) {
	rec, ok := c[recordID]
	if !ok || rec == nil {
		rec = make(Fields, len(patch))
	}
	removed := false
	for name, value := range patch {
		if IsRemoved(value) {
			delete(rec, name)
			removed = true
			continue
		}
		rec[name] = jsonval.Clone(value)
	}
	if removed && len(rec) == 0 {
		delete(c, recordID)
		return
	}
	c[recordID] = rec
}
