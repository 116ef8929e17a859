// Package testutil provides shared test helpers for databases and seeded catalogs.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/strength/internal/models"
	"github.com/starford/strength/internal/store"
)

// TestDB creates a temporary SQLite card store that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "strength-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// CardCreator is satisfied by the card service.
type CardCreator interface {
	CreateCard(ctx context.Context, card models.Card) (models.Card, error)
}

// SeedCards creates cards through svc, failing the test on any error.
func SeedCards(t *testing.T, svc CardCreator, cards ...models.Card) {
	t.Helper()
	for _, c := range cards {
		if _, err := svc.CreateCard(context.Background(), c); err != nil {
			t.Fatalf("seed %s/%s: %v", c.Section, c.CardName, err)
		}
	}
}

// BenchPress returns the exercise card used across tests.
func BenchPress() models.Card {
	return models.Card{
		Section:     models.SectionExercise,
		CardName:    "Bench Press",
		Icon:        "bench",
		Description: "Flat barbell press",
		Sets:        models.Int(3),
		Reps:        models.Int(10),
		Equipment:   models.String("barbell"),
		Targets:     models.String("chest"),
	}
}
