// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the card catalog as tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/strength/internal/apperr"
	"github.com/starford/strength/internal/cardservice"
	"github.com/starford/strength/internal/models"
)

const contractURI = "strength://card-format"

// Server wraps the MCP server with card catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *cardservice.Service
}

// New creates a new MCP server with all card tools registered.
func New(svc *cardservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Strength",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_cards",
		mcp.WithDescription("List catalog cards, either all of them or those of one section."),
		mcp.WithString("section", mcp.Description("Optional section: exercise, nutrition, recovery or equipment")),
	), s.listCards)

	s.mcp.AddTool(mcp.NewTool("get_card",
		mcp.WithDescription("Read one card by section and name."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Card section")),
		mcp.WithString("cardName", mcp.Required(), mcp.Description("Card name, unique within the section")),
	), s.getCard)

	s.mcp.AddTool(mcp.NewTool("create_card",
		mcp.WithDescription("Create a new card. Read the contract first via get_card_contract "+
			"or the "+contractURI+" resource."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Card section")),
		mcp.WithString("cardName", mcp.Required(), mcp.Description("Card name")),
		mcp.WithString("icon", mcp.Description("Icon identifier")),
		mcp.WithString("description", mcp.Description("Free text description")),
		mcp.WithNumber("sets", mcp.Description("Number of sets (exercise only)")),
		mcp.WithNumber("reps", mcp.Description("Number of reps (exercise only)")),
		mcp.WithString("equipment", mcp.Description("Equipment needed (exercise only)")),
		mcp.WithString("targets", mcp.Description("Targeted muscle groups (exercise only)")),
	), s.createCard)

	s.mcp.AddTool(mcp.NewTool("update_card",
		mcp.WithDescription("Change some exercise fields of a card. Only the fields you pass are written; "+
			"the full stored card is returned."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Card section")),
		mcp.WithString("cardName", mcp.Required(), mcp.Description("Card name")),
		mcp.WithNumber("sets", mcp.Description("New number of sets")),
		mcp.WithNumber("reps", mcp.Description("New number of reps")),
		mcp.WithString("equipment", mcp.Description("New equipment")),
		mcp.WithString("targets", mcp.Description("New targets")),
	), s.updateCard)

	s.mcp.AddTool(mcp.NewTool("delete_card",
		mcp.WithDescription("Delete a card by section and name."),
		mcp.WithString("section", mcp.Required(), mcp.Description("Card section")),
		mcp.WithString("cardName", mcp.Required(), mcp.Description("Card name")),
	), s.deleteCard)

	s.mcp.AddTool(mcp.NewTool("get_card_contract",
		mcp.WithDescription("Returns the card field contract. Call this before creating or updating cards."),
	), s.getCardContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Card Format Contract",
			mcp.WithResourceDescription("Fields and update rules of catalog cards."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCardFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error, section models.Section, name string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("card not found: %s/%s", section, name))
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(fmt.Sprintf("card already exists: %s/%s", section, name))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func cardKey(req mcp.CallToolRequest) (models.Section, string, error) {
	section, err := req.RequireString("section")
	if err != nil {
		return "", "", err
	}
	name, err := req.RequireString("cardName")
	if err != nil {
		return "", "", err
	}
	return models.Section(section), name, nil
}

func (s *Server) listCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section := req.GetString("section", "")
	var (
		cards []models.Card
		err   error
	)
	if section == "" {
		cards, err = s.svc.ListAll(ctx)
	} else {
		cards, err = s.svc.ListSection(ctx, models.Section(section))
	}
	if err != nil {
		return errorResult(err, models.Section(section), ""), nil
	}
	return jsonResult(cards)
}

func (s *Server) getCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, name, err := cardKey(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.svc.GetCard(ctx, section, name)
	if err != nil {
		return errorResult(err, section, name), nil
	}
	return jsonResult(card)
}

func (s *Server) createCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, name, err := cardKey(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// Reuse the patch decoder so numeric arguments follow the same typing rules as updates.
	patch, err := patchFromArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card := models.Card{
		Section:     section,
		CardName:    name,
		Icon:        req.GetString("icon", ""),
		Description: req.GetString("description", ""),
	}.Merge(patch)

	created, err := s.svc.CreateCard(ctx, card)
	if err != nil {
		return errorResult(err, section, name), nil
	}
	return jsonResult(created)
}

func (s *Server) updateCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, name, err := cardKey(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch, err := patchFromArgs(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if patch.Empty() {
		return mcp.NewToolResultError("no updatable fields given: pass sets, reps, equipment or targets"), nil
	}
	updated, err := s.svc.UpdateCard(ctx, section, name, patch)
	if err != nil {
		return errorResult(err, section, name), nil
	}
	return jsonResult(updated)
}

func (s *Server) deleteCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, name, err := cardKey(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteCard(ctx, section, name); err != nil {
		return errorResult(err, section, name), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s/%s", section, name)), nil
}

func (s *Server) getCardContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CardFormatContract), nil
}

func (s *Server) readCardFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     CardFormatContract,
		},
	}, nil
}

func patchFromArgs(args map[string]any) (models.CardPatch, error) {
	var patch models.CardPatch
	if len(args) == 0 {
		return patch, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return patch, fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(data, &patch); err != nil {
		return patch, err
	}
	return patch, nil
}
