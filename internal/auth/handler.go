package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lims-backend/internal/engine"
	"lims-backend/internal/users"
)

// Handler serves the unauthenticated login and register endpoints.
type Handler struct {
	users  *users.Store
	tokens *TokenService
}

func NewHandler(u *users.Store, ts *TokenService) *Handler {
	return &Handler{users: u, tokens: ts}
}

// Login handles POST /api/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.BadRequestError("Invalid JSON body")
	}
	if body.Username == "" || body.Password == "" {
		return engine.BadRequestError("username and password are required")
	}

	ok, err := h.users.Verify(c.Context(), body.Username, body.Password)
	if err != nil {
		return err
	}
	if !ok {
		return engine.UnauthorizedError("Invalid credentials")
	}

	token, err := h.tokens.Issue(body.Username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token})
}

// Register handles POST /api/register. Profile fields beyond username
// and password are passed through the credential store, which keeps
// only allow-listed ones.
func (h *Handler) Register(c *fiber.Ctx) error {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return engine.BadRequestError("Invalid JSON body")
	}
	username, _ := body["username"].(string)
	password, _ := body["password"].(string)
	if username == "" || password == "" {
		return engine.BadRequestError("username and password are required")
	}

	record, err := h.users.Create(c.Context(), username, password, body)
	if err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return engine.ConflictError("Username already taken")
		}
		return err
	}

	// never echo the credential, hashed or not
	delete(record, h.users.SecretField())
	return c.Status(fiber.StatusCreated).JSON(record)
}

// RegisterRoutes mounts the unauthenticated auth endpoints. These are
// registered before the entity routes so /api/login and /api/register
// are never captured as entity names.
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Post("/api/login", h.Login)
	app.Post("/api/register", h.Register)
}
