// Package update implements the client-side dispatch loop that turns UI
// intents into transport calls and folds their outcomes into a Model.
package update

import "github.com/starford/strength/internal/models"

// Message tags.
const (
	TagLoadSection = "cards/load-section"
	TagSelectCard  = "card/select"
	TagUpdateCard  = "card/update"
)

// Message is an intent raised by the UI. The set of variants is closed:
// LoadSection, SelectCard and UpdateCard, always passed by value.
type Message interface {
	Tag() string
	message()
}

// LoadSection requests the card list of one section.
type LoadSection struct {
	Section models.Section
}

// SelectCard requests a single card for the detail view.
type SelectCard struct {
	Section  models.Section
	CardName string
}

// UpdateCard submits an edit of sets and/or reps. Only fields that are set
// are sent; the callbacks are optional.
type UpdateCard struct {
	Section   models.Section
	CardName  string
	Sets      models.Optional[int]
	Reps      models.Optional[int]
	OnSuccess func(models.Card)
	OnFailure func(error)
}

func (LoadSection) Tag() string { return TagLoadSection }
func (SelectCard) Tag() string  { return TagSelectCard }
func (UpdateCard) Tag() string  { return TagUpdateCard }

func (LoadSection) message() {}
func (SelectCard) message()  {}
func (UpdateCard) message()  {}

func (m UpdateCard) patch() models.CardPatch {
	return models.CardPatch{Sets: m.Sets, Reps: m.Reps}
}
