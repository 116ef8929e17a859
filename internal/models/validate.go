package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Normalize trims the free-text exercise fields.
func (c *Card) Normalize() {
	c.CardName = strings.TrimSpace(c.CardName)
	if c.Equipment != nil {
		c.Equipment = String(strings.TrimSpace(*c.Equipment))
	}
	if c.Targets != nil {
		c.Targets = String(strings.TrimSpace(*c.Targets))
	}
}

// Normalize trims the free-text fields of the patch the same way Card.Normalize does.
func (p *CardPatch) Normalize() {
	if v, ok := p.Equipment.Get(); ok {
		p.Equipment = Some(strings.TrimSpace(v))
	}
	if v, ok := p.Targets.Get(); ok {
		p.Targets = Some(strings.TrimSpace(v))
	}
}

// Validate checks a card before it is written to the catalog.
func (c Card) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Section, validation.Required,
			validation.In(SectionExercise, SectionNutrition, SectionRecovery, SectionEquipment)),
		validation.Field(&c.CardName, validation.Required, validation.Length(1, 128)),
		validation.Field(&c.Icon, validation.Length(0, 256)),
		validation.Field(&c.Sets, validation.Min(0)),
		validation.Field(&c.Reps, validation.Min(0)),
	)
}
