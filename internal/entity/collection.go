package entity

import (
	"iter"
	"strings"
)

// Collection is the ordered record list behind one list view.
// The functions below never modify their input; they return a new Collection
// whose untouched records are shared with the old one.
type Collection []Record

// Insert appends r. A record with the same id is replaced in place instead,
// so a collection never holds two records with one id.
func Insert(c Collection, r Record) Collection {
	id := r.ID()
	out := make(Collection, 0, len(c)+1)
	replaced := false
	for _, existing := range c {
		if id != "" && existing.ID() == id {
			out = append(out, r)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, r)
	}
	return out
}

// Patch merges partial over the record matching id; partial wins.
// The id itself is never patched. Unknown ids leave c as is.
func Patch(c Collection, id string, partial Record) Collection {
	idx := indexOf(c, id)
	if idx < 0 {
		return c
	}
	merged := make(Record, len(c[idx])+len(partial))
	for k, v := range c[idx] {
		merged[k] = v
	}
	for k, v := range partial {
		if k == IDField {
			continue
		}
		merged[k] = v
	}

	out := make(Collection, len(c))
	copy(out, c)
	out[idx] = merged
	return out
}

// Remove drops the record matching id. Unknown ids leave c as is.
func Remove(c Collection, id string) Collection {
	idx := indexOf(c, id)
	if idx < 0 {
		return c
	}
	out := make(Collection, 0, len(c)-1)
	out = append(out, c[:idx]...)
	return append(out, c[idx+1:]...)
}

// Find returns the record matching id.
func Find(c Collection, id string) (Record, bool) {
	idx := indexOf(c, id)
	if idx < 0 {
		return nil, false
	}
	return c[idx], true
}

// Filter yields the records matching pred. The sequence is lazy and can be
// ranged over any number of times.
func Filter(c Collection, pred func(Record) bool) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range c {
			if pred != nil && !pred(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// MatchText builds the free-text search predicate used by list views:
// a case-insensitive substring match against every field value.
func MatchText(query string) func(Record) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return func(Record) bool { return true }
	}
	return func(r Record) bool {
		for _, v := range r {
			if strings.Contains(strings.ToLower(Text(v)), q) {
				return true
			}
		}
		return false
	}
}

// Clone deep-copies every record.
func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	for i, r := range c {
		out[i] = r.Clone()
	}
	return out
}

// IDs returns the record ids in order.
func (c Collection) IDs() []string {
	ids := make([]string, len(c))
	for i, r := range c {
		ids[i] = r.ID()
	}
	return ids
}

func indexOf(c Collection, id string) int {
	if id == "" {
		return -1
	}
	for i, r := range c {
		if r.ID() == id {
			return i
		}
	}
	return -1
}
