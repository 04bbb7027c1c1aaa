package engine

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// delimiterStripper removes the CSV structural characters from values.
// Stripping instead of quoting is lossy but keeps the output trivially
// parseable by spreadsheet imports.
var delimiterStripper = strings.NewReplacer(",", "", "\n", "", "\r", "")

// Export handles GET /api/:entity/export. Responds with delimited text
// and a filename hint, or a structured empty list when the table holds
// no rows.
func (h *Handler) Export(c *fiber.Ctx) error {
	entity, err := h.resolveEntity(c)
	if err != nil {
		return err
	}

	rows, err := fetchAll(c.Context(), h.store.DB, entity)
	if err != nil {
		return fmt.Errorf("export %s: %w", entity.Name, err)
	}
	if len(rows) == 0 {
		return c.JSON([]map[string]any{})
	}

	columns := append([]string{"id"}, entity.Fields...)

	var b strings.Builder
	b.WriteString(strings.Join(columns, ","))
	b.WriteByte('\n')
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = delimiterStripper.Replace(formatCell(row[col]))
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", entity.Name+".csv"))
	return c.SendString(b.String())
}

func formatCell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
