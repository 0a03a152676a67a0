package entity

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Kind names one business object kind managed by the back office.
type Kind string

const (
	KindCustomer    Kind = "customer"
	KindSupplier    Kind = "supplier"
	KindWorker      Kind = "worker"
	KindPump        Kind = "pump"
	KindTank        Kind = "tank"
	KindTransaction Kind = "transaction"
)

// Kinds lists every known kind in display order.
var Kinds = []Kind{KindCustomer, KindSupplier, KindWorker, KindPump, KindTank, KindTransaction}

// ParseKind accepts the singular kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// IDField is the record key holding the backend-assigned identifier.
const IDField = "id"

// Record is one entity as the backend sends it: field name to value.
// The schema is owned by the backend; only IDField is interpreted here.
type Record map[string]any

// ID returns the record identifier as text, or "" for drafts.
func (r Record) ID() string {
	return NormalizeID(r[IDField])
}

// Clone returns a deep copy so callers never share nested maps or slices.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}

// NormalizeID turns whatever JSON produced for an id into its text form.
// Numbers keep their decimal rendering, so 2 and "2" are the same id.
func NormalizeID(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

// Text renders a field value the way a form or table cell shows it.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// Draft is the editable text state of one form.
type Draft map[string]string

// DraftFromRecord seeds a draft for editing r. The id is not editable and is left out.
func DraftFromRecord(r Record) Draft {
	d := make(Draft, len(r))
	for k, v := range r {
		if k == IDField {
			continue
		}
		d[k] = Text(v)
	}
	return d
}

// Clone copies the draft so an in-flight request never sees later edits.
func (d Draft) Clone() Draft {
	if d == nil {
		return Draft{}
	}
	return maps.Clone(d)
}

// Fields converts the draft into record fields, dropping any id key.
func (d Draft) Fields() Record {
	out := make(Record, len(d))
	for k, v := range d {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}

// Label is the identifying text shown when asking to confirm a delete.
// It prefers the record's name and falls back to its id.
func Label(r Record) string {
	if name := strings.TrimSpace(Text(r["name"])); name != "" {
		return name
	}
	return "#" + r.ID()
}
