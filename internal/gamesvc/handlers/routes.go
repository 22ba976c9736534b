package handlers

import (
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes
		r.Get("/health", h.HealthHandler)
		r.Post("/auth/login", h.LoginHandler)

		// Secure admin routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/admin/settings", h.GetSettingsHandler)
			r.Put("/admin/settings", h.UpdateSettingsHandler)

			r.Get("/admin/questions", h.ListQuestionsHandler)
			r.Post("/admin/questions", h.CreateQuestionHandler)
			r.Delete("/admin/questions/{id}", h.DeleteQuestionHandler)
			r.Post("/admin/questions/import", h.ImportQuestionsHandler)

			r.Post("/admin/reset", h.ResetGameHandler)
		})
	})
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)
}
