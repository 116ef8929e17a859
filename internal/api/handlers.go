package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/strength/internal/cardservice"
	"github.com/starford/strength/internal/models"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *cardservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *cardservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pathParam returns the decoded URL parameter. chi matches against the raw
// path when the request carried escapes such as %2F, so those values still
// need unescaping before key lookup.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func cardKey(r *http.Request) (models.Section, string) {
	return models.Section(pathParam(r, "section")), pathParam(r, "cardName")
}

// ListCards handles GET /api/cards.
//
//	@Summary		List every card in the catalog
//	@Tags			cards
//	@Produce		json
//	@Success		200	{array}		Card
//	@Security		BearerAuth
//	@Router			/cards [get]
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.svc.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, "list cards", err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// ListSection handles GET /api/cards/{section}.
// A section without cards answers 404 rather than an empty array.
//
//	@Summary		List the cards of one section
//	@Tags			cards
//	@Produce		json
//	@Param			section	path		string	true	"Section"	Enums(exercise, nutrition, recovery, equipment)
//	@Success		200		{array}		Card
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{section} [get]
func (h *Handler) ListSection(w http.ResponseWriter, r *http.Request) {
	section := models.Section(pathParam(r, "section"))
	cards, err := h.svc.ListSection(r.Context(), section)
	if err != nil {
		writeServiceError(w, "list section", err, slog.String("section", string(section)))
		return
	}
	if len(cards) == 0 {
		writeJSON(w, http.StatusNotFound, errorBody("no cards in section"))
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// GetCard handles GET /api/cards/{section}/{cardName}.
//
//	@Summary		Get a single card
//	@Tags			cards
//	@Produce		json
//	@Param			section		path		string	true	"Section"
//	@Param			cardName	path		string	true	"Card name (percent-encoded)"
//	@Success		200			{object}	Card
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{section}/{cardName} [get]
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	section, name := cardKey(r)
	card, err := h.svc.GetCard(r.Context(), section, name)
	if err != nil {
		writeServiceError(w, "get card", err,
			slog.String("section", string(section)), slog.String("card", name))
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// CreateCard handles POST /api/cards.
//
//	@Summary		Create a new card
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateCardRequest	true	"Card to create"
//	@Success		201		{object}	Card
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards [post]
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	card, err := h.svc.CreateCard(r.Context(), req.card())
	if err != nil {
		writeServiceError(w, "create card", err,
			slog.String("section", req.Section), slog.String("card", req.CardName))
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// UpdateCard handles PUT and PATCH /api/cards/{section}/{cardName}.
//
//	@Summary		Partially update a card
//	@Description	Only fields present with the expected type are merged. The full stored card is returned.
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			section		path		string				true	"Section"
//	@Param			cardName	path		string				true	"Card name (percent-encoded)"
//	@Param			body		body		UpdateCardRequest	true	"Fields to change"
//	@Success		200			{object}	Card
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{section}/{cardName} [patch]
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	section, name := cardKey(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	var patch models.CardPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		if errors.Is(err, models.ErrPatchNotObject) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		}
		return
	}

	card, err := h.svc.UpdateCard(r.Context(), section, name, patch)
	if err != nil {
		writeServiceError(w, "update card", err,
			slog.String("section", string(section)), slog.String("card", name))
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/cards/{section}/{cardName}.
//
//	@Summary		Delete a card
//	@Tags			cards
//	@Param			section		path	string	true	"Section"
//	@Param			cardName	path	string	true	"Card name (percent-encoded)"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{section}/{cardName} [delete]
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	section, name := cardKey(r)
	if err := h.svc.DeleteCard(r.Context(), section, name); err != nil {
		writeServiceError(w, "delete card", err,
			slog.String("section", string(section)), slog.String("card", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCardByName handles DELETE /api/cards/{cardName}.
//
//	@Summary		Delete a card by name alone
//	@Description	Fails with 409 when the name exists in more than one section.
//	@Tags			cards
//	@Param			cardName	path	string	true	"Card name (percent-encoded)"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{cardName} [delete]
func (h *Handler) DeleteCardByName(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "cardName")
	if _, err := h.svc.DeleteCardByName(r.Context(), name); err != nil {
		writeServiceError(w, "delete card by name", err, slog.String("card", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
