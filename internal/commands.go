package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/strength/internal/catalog"
	"github.com/starford/strength/internal/mcpserver"
)

// RunMCP serves the card tools over stdio until the client disconnects.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()

	db, svc, _, err := app.openService(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("MCP server starting", slog.String("version", app.version))
	if err := mcpserver.New(svc, app.version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// RunExport writes every stored card to path as a catalog file.
func RunExport(ctx context.Context, path string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()

	db, svc, _, err := app.openService(ctx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	cards, err := svc.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list cards: %w", err)
	}
	if err := catalog.Export(path, cards); err != nil {
		return err
	}
	logger.Info("catalog exported", slog.String("path", path), slog.Int("cards", len(cards)))
	return nil
}
