package metadata

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads entity descriptors from a JSON document of the form
// {"entities": [{"name": ..., "table": ..., "fields": [...]}, ...]}
// and registers them. Descriptors are validated before any is
// registered, so a bad file leaves the registry empty rather than
// half-populated.
func LoadFile(path string, reg *Registry) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read entities file: %w", err)
	}

	var doc struct {
		Entities []*Entity `json:"entities"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse entities file: %w", err)
	}
	if len(doc.Entities) == 0 {
		return fmt.Errorf("entities file %s defines no entities", path)
	}

	for _, e := range doc.Entities {
		if err := validate(e); err != nil {
			return fmt.Errorf("entity %q: %w", e.Name, err)
		}
	}
	for _, e := range doc.Entities {
		if err := reg.Register(e); err != nil {
			return err
		}
	}
	return nil
}

func validate(e *Entity) error {
	if e.Name == "" {
		return fmt.Errorf("missing name")
	}
	if e.Table == "" {
		return fmt.Errorf("missing table")
	}
	if len(e.Fields) == 0 {
		return fmt.Errorf("no fields")
	}
	for _, f := range e.Fields {
		if f == "id" {
			return fmt.Errorf("field list must not contain the primary key")
		}
	}
	if e.SecretField != "" && !e.HasField(e.SecretField) {
		return fmt.Errorf("secret field %q not in field list", e.SecretField)
	}
	for _, u := range e.Unique {
		if !e.HasField(u) {
			return fmt.Errorf("unique field %q not in field list", u)
		}
	}
	return nil
}
