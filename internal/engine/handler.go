package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"lims-backend/internal/metadata"
	"lims-backend/internal/store"
	"lims-backend/internal/users"
)

// Handler implements the generic CRUD operations for every registered
// entity. One instance serves all entities; dispatch is by descriptor.
type Handler struct {
	store    *store.Store
	registry *metadata.Registry
}

func NewHandler(s *store.Store, reg *metadata.Registry) *Handler {
	return &Handler{store: s, registry: reg}
}

// List handles GET /api/:entity
func (h *Handler) List(c *fiber.Ctx) error {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return err
	}

	rows, err := fetchAll(c.Context(), h.store.DB, entity)
	if err != nil {
		return fmt.Errorf("list %s: %w", entity.Name, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return c.JSON(rows)
}

// GetByID handles GET /api/:entity/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return err
	}
	id, err := h.resolveID(c, entity)
	if err != nil {
		return err
	}

	row, err := fetchRecord(c.Context(), h.store.DB, h.store.Dialect, entity, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(entity.Name, id)
		}
		return fmt.Errorf("get %s/%d: %w", entity.Name, id, err)
	}
	return c.JSON(row)
}

// Create handles POST /api/:entity
func (h *Handler) Create(c *fiber.Ctx) error {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return err
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return BadRequestError("Invalid JSON body")
	}

	ws := buildWriteSet(entity, body)
	if err := hashSecret(entity, ws); err != nil {
		return err
	}

	sqlStr, params := buildInsertSQL(h.store.Dialect, entity, ws)
	id, err := store.Insert(c.Context(), h.store.DB, h.store.Dialect, sqlStr, params...)
	if err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return ConflictError("A record with this value already exists")
		}
		return fmt.Errorf("insert %s: %w", entity.Name, err)
	}

	row, err := fetchRecord(c.Context(), h.store.DB, h.store.Dialect, entity, id)
	if err != nil {
		return fmt.Errorf("fetch created %s/%d: %w", entity.Name, id, err)
	}
	auditLog(c, entity, id).Info("record created")
	return c.Status(fiber.StatusCreated).JSON(row)
}

// Update handles PUT /api/:entity/:id
func (h *Handler) Update(c *fiber.Ctx) error {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return err
	}
	id, err := h.resolveID(c, entity)
	if err != nil {
		return err
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return BadRequestError("Invalid JSON body")
	}

	ws := buildWriteSet(entity, body)
	if ws.empty() {
		return NoFieldsError()
	}
	if err := hashSecret(entity, ws); err != nil {
		return err
	}

	sqlStr, params := buildUpdateSQL(h.store.Dialect, entity, id, ws)
	if _, err := store.Exec(c.Context(), h.store.DB, sqlStr, params...); err != nil {
		if mapped := h.store.Dialect.MapError(err); errors.Is(mapped, store.ErrUniqueViolation) {
			return ConflictError("A record with this value already exists")
		}
		return fmt.Errorf("update %s/%d: %w", entity.Name, id, err)
	}

	row, err := fetchRecord(c.Context(), h.store.DB, h.store.Dialect, entity, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFoundError(entity.Name, id)
		}
		return fmt.Errorf("fetch updated %s/%d: %w", entity.Name, id, err)
	}
	auditLog(c, entity, id).Info("record updated")
	return c.JSON(row)
}

// Delete handles DELETE /api/:entity/:id. Deleting an absent id still
// reports success; there is no existence check.
func (h *Handler) Delete(c *fiber.Ctx) error {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return err
	}
	id, err := h.resolveID(c, entity)
	if err != nil {
		return err
	}

	sqlStr, params := buildDeleteSQL(h.store.Dialect, entity, id)
	if _, err := store.Exec(c.Context(), h.store.DB, sqlStr, params...); err != nil {
		return fmt.Errorf("delete %s/%d: %w", entity.Name, id, err)
	}
	auditLog(c, entity, id).Info("record deleted")
	return c.JSON(fiber.Map{"msg": "deleted"})
}

func auditLog(c *fiber.Ctx, entity *metadata.Entity, id int64) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"entity": entity.Name,
		"id":     id,
		"user":   Identity(c),
	})
}

func (h *Handler) resolveEntity(c *fiber.Ctx) (*metadata.Entity, error) {
	name := c.Params("entity")
	entity := h.registry.Get(name)
	if entity == nil {
		return nil, UnknownEntityError(name)
	}
	return entity, nil
}

func (h *Handler) resolveID(c *fiber.Ctx, entity *metadata.Entity) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, NotFoundError(entity.Name, raw)
	}
	return id, nil
}

// hashSecret replaces the entity's secret field in the write set with
// its bcrypt hash, so the raw value never reaches storage.
func hashSecret(entity *metadata.Entity, ws writeSet) error {
	if entity.SecretField == "" || !ws.has(entity.SecretField) {
		return nil
	}
	raw, ok := valueOf(ws, entity.SecretField).(string)
	if !ok {
		return BadRequestError(entity.SecretField + " must be a string")
	}
	hash, err := users.HashPassword(raw)
	if err != nil {
		return err
	}
	ws.set(entity.SecretField, hash)
	return nil
}

func valueOf(ws writeSet, col string) any {
	for i, c := range ws.cols {
		if c == col {
			return ws.vals[i]
		}
	}
	return nil
}
