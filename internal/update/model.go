package update

import "github.com/starford/strength/internal/models"

// Model is the client-held snapshot driving the UI. It only ever holds
// server-confirmed state.
type Model struct {
	SelectedCard   *models.Card
	CardsBySection map[models.Section][]models.Card
}

// NewModel returns an empty model.
func NewModel() Model {
	return Model{CardsBySection: make(map[models.Section][]models.Card)}
}

// Cards returns the cached list for section and whether one was loaded.
func (m Model) Cards(section models.Section) ([]models.Card, bool) {
	cards, ok := m.CardsBySection[section]
	return cards, ok
}

// Clone returns a deep copy of m.
func (m Model) Clone() Model {
	out := Model{CardsBySection: make(map[models.Section][]models.Card, len(m.CardsBySection))}
	if m.SelectedCard != nil {
		c := m.SelectedCard.Clone()
		out.SelectedCard = &c
	}
	for section, cards := range m.CardsBySection {
		cp := make([]models.Card, len(cards))
		for i, c := range cards {
			cp[i] = c.Clone()
		}
		out.CardsBySection[section] = cp
	}
	return out
}

func (m Model) withSelected(card *models.Card) Model {
	m.SelectedCard = card
	return m
}

// withSection replaces one section's list without mutating the map held by
// earlier Model values.
func (m Model) withSection(section models.Section, cards []models.Card) Model {
	next := make(map[models.Section][]models.Card, len(m.CardsBySection)+1)
	for k, v := range m.CardsBySection {
		next[k] = v
	}
	next[section] = cards
	m.CardsBySection = next
	return m
}
