package articles

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Croco1609/collectorPerso/internal/auth"
)

// Authorizer convierte un handler con sujeto en un http.HandlerFunc protegido.
// *auth.Gate lo implementa.
type Authorizer interface {
	Require(next auth.SubjectHandlerFunc) http.HandlerFunc
}

// RegisterRoutes registra las rutas del catálogo bajo /api.
// Listado y detalle son públicos; el resto pasa por el gate.
func RegisterRoutes(route chi.Router, handler *Handler, gate Authorizer) {
	route.Route("/api", func(route chi.Router) {
		route.Get("/articles", handler.List)
		route.Get("/articles/{id}", handler.GetByID)
		route.Get("/my-articles", gate.Require(handler.Mine))
		route.Post("/articles", gate.Require(handler.Create))
		route.Put("/articles/{id}", gate.Require(handler.Update))
		route.Delete("/articles/{id}", gate.Require(handler.Delete))
	})
}
