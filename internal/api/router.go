package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the trainer API under /api. Only session creation
// is public; authenticate guards every other route.
func RegisterRoutes(r chi.Router, h *SessionHandler, authenticate func(http.Handler) http.Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/session", h.GetSession)
			r.Get("/session/status", h.Status)
			r.Post("/session/next", h.Next)
			r.Post("/session/answer", h.CheckAnswer)
			r.Post("/session/reveal", h.Reveal)
			r.Post("/session/score/reset", h.ResetScore)
			r.Put("/session/filter", h.ApplyFilter)

			r.Post("/session/words", h.AddWord)
			r.Get("/session/words", h.ListWords)
			r.Get("/session/export", h.Export)

			r.Post("/session/collections", h.CreateCollection)
			r.Put("/session/collections/active", h.SelectCollection)
			r.Post("/session/collections/active/words", h.SaveCurrentWord)

			r.Post("/session/view/collection", h.ViewCollection)
			r.Post("/session/view/all", h.ViewAll)
		})
	})
}
