package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref is a relation to another record. The API sends either the bare id or an
// embedded summary of the referenced record; both decode into a Ref. Outgoing
// payloads carry plain ids instead of Refs.
type Ref struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// RefTo returns a reference carrying only an id.
func RefTo(id string) Ref {
	return Ref{ID: id}
}

// IsZero reports whether the reference points nowhere.
func (r Ref) IsZero() bool {
	return r.ID == ""
}

// Label returns the best human-readable name for the referenced record.
func (r Ref) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = Ref{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	case len(data) > 0 && data[0] == '{':
		type summary Ref
		var s summary
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	return fmt.Errorf("%w: reference must be an id or an object, got %s", ErrInvalidRef, data)
}

// Refs is a list of relations.
type Refs []Ref

// IDs returns the referenced ids in order.
func (rs Refs) IDs() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		if r.ID != "" {
			out = append(out, r.ID)
		}
	}
	return out
}

// Contains reports whether id is referenced.
func (rs Refs) Contains(id string) bool {
	for _, r := range rs {
		if r.ID == id {
			return true
		}
	}
	return false
}

// RefsTo builds references from ids.
func RefsTo(ids ...string) Refs {
	out := make(Refs, 0, len(ids))
	for _, id := range ids {
		out = append(out, RefTo(id))
	}
	return out
}

// Attachment is metadata for a file stored alongside a project.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
