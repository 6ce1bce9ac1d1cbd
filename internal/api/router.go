package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, ih *ImageHandler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Comps CRUD.
	r.Get("/comps", h.ListComps)
	r.Post("/comps", h.CreateComp)
	r.Get("/comps/{name}", h.GetComp)
	r.Patch("/comps/{name}", h.UpdateComp)
	r.Post("/comps/{name}/rename", h.RenameComp)
	r.Delete("/comps/{name}", h.DeleteComp)

	// Planner and search.
	r.Get("/planner", h.Planner)
	r.Get("/search", h.Search)

	// Clipboard payload over HTTP.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	// Images.
	r.Post("/images", ih.Save)
	r.Get("/images/{filename}", ih.Serve)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
