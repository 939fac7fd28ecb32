package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
)

// CheckData validates a character payload against a serialized form schema.
func CheckData(formSchema string, data domain.Value) error {
	var root jsonschema.Schema
	if err := json.Unmarshal([]byte(formSchema), &root); err != nil {
		return fmt.Errorf("decode form schema: %w", err)
	}
	resolved, err := root.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve form schema: %w", err)
	}
	if err := resolved.Validate(data.Interface()); err != nil {
		return fmt.Errorf("character data: %w", err)
	}
	return nil
}
