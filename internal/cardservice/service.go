// Package cardservice coordinates validation, persistence and change
// notifications for catalog cards.
package cardservice

import (
	"context"
	"fmt"

	"github.com/starford/strength/internal/apperr"
	"github.com/starford/strength/internal/models"
	"github.com/starford/strength/internal/store"
)

// Change kinds passed to an EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after every successful mutation.
type EventCallback func(kind string, card models.Card)

// Option configures a Service.
type Option func(*Service)

// WithEventCallback registers cb to be notified of card changes.
func WithEventCallback(cb EventCallback) Option {
	return func(s *Service) {
		s.onEvent = cb
	}
}

// Service wraps a card store with input validation and change events.
type Service struct {
	store   store.CardStore
	onEvent EventCallback
}

// NewService creates a new card service.
func NewService(st store.CardStore, opts ...Option) *Service {
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(kind string, card models.Card) {
	if s.onEvent != nil {
		s.onEvent(kind, card)
	}
}

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListAll returns every card in the catalog.
func (s *Service) ListAll(ctx context.Context) ([]models.Card, error) {
	return s.store.Index(ctx)
}

// ListSection returns the cards of one section. Unknown sections yield
// apperr.ErrNotFound.
func (s *Service) ListSection(ctx context.Context, section models.Section) ([]models.Card, error) {
	if !section.Valid() {
		return nil, fmt.Errorf("section %q: %w", section, apperr.ErrNotFound)
	}
	return s.store.List(ctx, section)
}

// GetCard returns one card scoped by section.
func (s *Service) GetCard(ctx context.Context, section models.Section, cardName string) (models.Card, error) {
	if !section.Valid() {
		return models.Card{}, fmt.Errorf("section %q: %w", section, apperr.ErrNotFound)
	}
	return s.store.Get(ctx, section, cardName)
}

// CreateCard validates and stores a new card.
func (s *Service) CreateCard(ctx context.Context, card models.Card) (models.Card, error) {
	card.Normalize()
	if err := card.Validate(); err != nil {
		return models.Card{}, fmt.Errorf("%w: %s", apperr.ErrInvalid, err.Error())
	}
	created, err := s.store.Create(ctx, card)
	if err != nil {
		return models.Card{}, err
	}
	s.emit(EventCreated, created)
	return created, nil
}

// UpdateCard applies a partial update and returns the full stored card.
func (s *Service) UpdateCard(ctx context.Context, section models.Section, cardName string, patch models.CardPatch) (models.Card, error) {
	if !section.Valid() {
		return models.Card{}, fmt.Errorf("section %q: %w", section, apperr.ErrNotFound)
	}
	patch.Normalize()
	updated, err := s.store.Update(ctx, section, cardName, patch)
	if err != nil {
		return models.Card{}, err
	}
	if !patch.Empty() {
		s.emit(EventUpdated, updated)
	}
	return updated, nil
}

// DeleteCard removes a card scoped by section.
func (s *Service) DeleteCard(ctx context.Context, section models.Section, cardName string) error {
	if !section.Valid() {
		return fmt.Errorf("section %q: %w", section, apperr.ErrNotFound)
	}
	if err := s.store.Remove(ctx, section, cardName); err != nil {
		return err
	}
	s.emit(EventDeleted, models.Card{Section: section, CardName: cardName})
	return nil
}

// DeleteCardByName removes the only card carrying cardName. It fails with
// apperr.ErrConflict when the name is used in more than one section.
func (s *Service) DeleteCardByName(ctx context.Context, cardName string) (models.Card, error) {
	removed, err := s.store.RemoveByName(ctx, cardName)
	if err != nil {
		return models.Card{}, err
	}
	s.emit(EventDeleted, removed)
	return removed, nil
}

// ImportCard seeds a catalog card. Cards whose key is already known, either
// live or deleted, are left as the store has them. It reports whether the
// card was created.
func (s *Service) ImportCard(ctx context.Context, card models.Card) (bool, error) {
	card.Normalize()
	if err := card.Validate(); err != nil {
		return false, fmt.Errorf("%w: %s", apperr.ErrInvalid, err.Error())
	}
	created, err := s.store.Seed(ctx, card)
	if err != nil {
		return false, err
	}
	if created {
		s.emit(EventCreated, card)
	}
	return created, nil
}
