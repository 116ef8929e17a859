package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// Optional is a value that is either present or absent. The zero value is absent.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (o Optional[T]) Ptr() *T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// CardPatch is a partial update for the mutable exercise fields of a card.
// Only present fields are written; absent fields keep their stored values.
type CardPatch struct {
	Sets      Optional[int]
	Reps      Optional[int]
	Equipment Optional[string]
	Targets   Optional[string]
}

// ErrPatchNotObject is returned when a patch body is not a JSON object.
var ErrPatchNotObject = errors.New("patch body must be a JSON object")

// Empty reports whether the patch carries no fields.
func (p CardPatch) Empty() bool {
	return !p.Sets.Set && !p.Reps.Set && !p.Equipment.Set && !p.Targets.Set
}

// Fields returns the JSON names of the present fields in canonical order.
func (p CardPatch) Fields() []string {
	var out []string
	if p.Sets.Set {
		out = append(out, "sets")
	}
	if p.Reps.Set {
		out = append(out, "reps")
	}
	if p.Equipment.Set {
		out = append(out, "equipment")
	}
	if p.Targets.Set {
		out = append(out, "targets")
	}
	return out
}

type patchWire struct {
	Sets      *int    `json:"sets,omitempty"`
	Reps      *int    `json:"reps,omitempty"`
	Equipment *string `json:"equipment,omitempty"`
	Targets   *string `json:"targets,omitempty"`
}

// MarshalJSON emits only the present fields.
func (p CardPatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(patchWire{
		Sets:      p.Sets.Ptr(),
		Reps:      p.Reps.Ptr(),
		Equipment: p.Equipment.Ptr(),
		Targets:   p.Targets.Ptr(),
	})
}

// UnmarshalJSON accepts a JSON object and keeps only known fields of the
// expected type: non-negative integers for sets and reps, strings for
// equipment and targets. Anything else is dropped without error.
func (p *CardPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return ErrPatchNotObject
	}
	*p = CardPatch{}
	if n, ok := countField(raw["sets"]); ok {
		p.Sets = Some(n)
	}
	if n, ok := countField(raw["reps"]); ok {
		p.Reps = Some(n)
	}
	if s, ok := stringField(raw["equipment"]); ok {
		p.Equipment = Some(s)
	}
	if s, ok := stringField(raw["targets"]); ok {
		p.Targets = Some(s)
	}
	return nil
}

func countField(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(num.String())
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func stringField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
