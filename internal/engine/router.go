package engine

import "github.com/gofiber/fiber/v2"

// RegisterEntityRoutes mounts the generic CRUD routes behind the auth
// middleware. The export route must precede :id so that
// /api/:entity/export is not captured as an identity.
func RegisterEntityRoutes(app *fiber.App, h *Handler, authMW fiber.Handler) {
	api := app.Group("/api", authMW)

	api.Get("/:entity", h.List)
	api.Get("/:entity/export", h.Export)
	api.Get("/:entity/:id", h.GetByID)
	api.Post("/:entity", h.Create)
	api.Put("/:entity/:id", h.Update)
	api.Delete("/:entity/:id", h.Delete)
}
