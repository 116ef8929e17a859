package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/strength/internal/models"
)

// Importer writes catalog cards into the store. It is satisfied by
// *cardservice.Service.
type Importer interface {
	ImportCard(ctx context.Context, card models.Card) (bool, error)
}

// Result summarises one import pass.
type Result struct {
	Created  int
	Existing int
	Skipped  int
}

// Import seeds every card the store has never held. Cards that exist, or
// were deleted, are counted as Existing and left alone. Invalid cards are
// logged and skipped; a store failure aborts the pass.
func Import(ctx context.Context, imp Importer, cards []models.Card, logger *slog.Logger) (Result, error) {
	var res Result
	for _, c := range cards {
		created, err := imp.ImportCard(ctx, c)
		if err != nil {
			if isInvalid(err) {
				res.Skipped++
				logger.Warn("catalog: skipped card",
					slog.String("section", string(c.Section)),
					slog.String("card", c.CardName),
					slog.String("error", err.Error()))
				continue
			}
			return res, fmt.Errorf("catalog: import %s/%s: %w", c.Section, c.CardName, err)
		}
		if created {
			res.Created++
		} else {
			res.Existing++
		}
	}
	return res, nil
}

// Sync reads the catalog file at path and imports it. It returns the
// checksum of the content that was imported.
func Sync(ctx context.Context, imp Importer, path string, logger *slog.Logger) (string, Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", Result{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	cards, err := Parse(data)
	if err != nil {
		return "", Result{}, err
	}
	res, err := Import(ctx, imp, cards, logger)
	if err != nil {
		return "", res, err
	}
	logger.Info("catalog: synced",
		slog.String("path", path),
		slog.Int("created", res.Created),
		slog.Int("existing", res.Existing),
		slog.Int("skipped", res.Skipped))
	return checksum(data), res, nil
}
