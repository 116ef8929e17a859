package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/strength/internal/cardservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *cardservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/cards", func(r chi.Router) {
		r.Get("/", h.ListCards)
		r.Post("/", h.CreateCard)
		r.Get("/{section}", h.ListSection)
		r.Delete("/{cardName}", h.DeleteCardByName)
		r.Get("/{section}/{cardName}", h.GetCard)
		r.Put("/{section}/{cardName}", h.UpdateCard)
		r.Patch("/{section}/{cardName}", h.UpdateCard)
		r.Delete("/{section}/{cardName}", h.DeleteCard)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
