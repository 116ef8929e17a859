// Package models defines the domain types for the card catalog.
package models

import "time"

// Section partitions the catalog. A card's section never changes after creation.
type Section string

const (
	SectionExercise  Section = "exercise"
	SectionNutrition Section = "nutrition"
	SectionRecovery  Section = "recovery"
	SectionEquipment Section = "equipment"
)

// Sections returns every known section in display order.
func Sections() []Section {
	return []Section{SectionExercise, SectionNutrition, SectionRecovery, SectionEquipment}
}

// Valid reports whether s is one of the known sections.
func (s Section) Valid() bool {
	switch s {
	case SectionExercise, SectionNutrition, SectionRecovery, SectionEquipment:
		return true
	}
	return false
}

func (s Section) String() string {
	return string(s)
}

// Card is one catalog entry. (Section, CardName) is its natural key.
//
// Sets, Reps, Equipment and Targets only carry meaning for exercise cards
// and are nil when unset.
type Card struct {
	Section     Section   `json:"section" yaml:"section"`
	CardName    string    `json:"cardName" yaml:"cardName"`
	Icon        string    `json:"icon" yaml:"icon"`
	Description string    `json:"description" yaml:"description"`
	Sets        *int      `json:"sets,omitempty" yaml:"sets,omitempty"`
	Reps        *int      `json:"reps,omitempty" yaml:"reps,omitempty"`
	Equipment   *string   `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	Targets     *string   `json:"targets,omitempty" yaml:"targets,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty" yaml:"-"`
}

// Key identifies a card within the catalog.
type Key struct {
	Section  Section
	CardName string
}

// Key returns the card's natural key.
func (c Card) Key() Key {
	return Key{Section: c.Section, CardName: c.CardName}
}

// Merge returns a copy of c with every field present in p applied.
// Fields absent from p keep their current values.
func (c Card) Merge(p CardPatch) Card {
	if p.Sets.Set {
		c.Sets = p.Sets.Ptr()
	}
	if p.Reps.Set {
		c.Reps = p.Reps.Ptr()
	}
	if p.Equipment.Set {
		c.Equipment = p.Equipment.Ptr()
	}
	if p.Targets.Set {
		c.Targets = p.Targets.Ptr()
	}
	return c
}

// Clone returns a deep copy of c.
func (c Card) Clone() Card {
	c.Sets = clonePtr(c.Sets)
	c.Reps = clonePtr(c.Reps)
	c.Equipment = clonePtr(c.Equipment)
	c.Targets = clonePtr(c.Targets)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Int returns a pointer to v, for building cards in literals.
func Int(v int) *int { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
