package api

import "github.com/starford/strength/internal/models"

// Card is the card representation returned by every endpoint.
type Card = models.Card

// CreateCardRequest is the request body for creating a card.
type CreateCardRequest struct {
	Section     string  `json:"section" example:"exercise" validate:"required"`
	CardName    string  `json:"cardName" example:"Bench Press" validate:"required"`
	Icon        string  `json:"icon" example:"bench"`
	Description string  `json:"description" example:"Flat barbell press"`
	Sets        *int    `json:"sets,omitempty" example:"3"`
	Reps        *int    `json:"reps,omitempty" example:"10"`
	Equipment   *string `json:"equipment,omitempty" example:"barbell"`
	Targets     *string `json:"targets,omitempty" example:"chest"`
}

func (r CreateCardRequest) card() models.Card {
	return models.Card{
		Section:     models.Section(r.Section),
		CardName:    r.CardName,
		Icon:        r.Icon,
		Description: r.Description,
		Sets:        r.Sets,
		Reps:        r.Reps,
		Equipment:   r.Equipment,
		Targets:     r.Targets,
	}
}

// UpdateCardRequest documents the partial update body. Only fields present
// with the expected JSON type are applied.
type UpdateCardRequest struct {
	Sets      *int    `json:"sets,omitempty" example:"5"`
	Reps      *int    `json:"reps,omitempty" example:"8"`
	Equipment *string `json:"equipment,omitempty" example:"dumbbells"`
	Targets   *string `json:"targets,omitempty" example:"chest, triceps"`
}
