package store

import (
	"context"

	"github.com/starford/strength/internal/models"
)

// CardStore is the authoritative collection of cards keyed by (section, cardName).
type CardStore interface {
	Create(ctx context.Context, card models.Card) (models.Card, error)
	Get(ctx context.Context, section models.Section, cardName string) (models.Card, error)
	List(ctx context.Context, section models.Section) ([]models.Card, error)
	Index(ctx context.Context) ([]models.Card, error)
	Update(ctx context.Context, section models.Section, cardName string, patch models.CardPatch) (models.Card, error)
	Remove(ctx context.Context, section models.Section, cardName string) error
	RemoveByName(ctx context.Context, cardName string) (models.Card, error)
	Seed(ctx context.Context, card models.Card) (bool, error)
	Ping(ctx context.Context) error
}

// Compile-time check: *DB implements CardStore.
var _ CardStore = (*DB)(nil)
