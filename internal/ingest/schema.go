package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildLineItemJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map for the extraction service's output contract. The upstream
// model is a non-deterministic collaborator; everything it sends is
// validated before decoding.
func BuildLineItemJSONSchema() map[string]any {
	props := map[string]any{
		"invoice_number": map[string]any{"type": "string"},
		"invoice_date":   map[string]any{"type": "string", "minLength": 6},
		"vendor_name":    map[string]any{"type": "string"},
		"items_details": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"total_amount":      decimalProp(),
		"total_without_vat": decimalProp(),
		"vat_amount":        decimalProp(),
		"vat_rate":          decimalProp(),
		"currency":          map[string]any{"type": "string", "minLength": 3, "maxLength": 3},

		"invoice_number_confidence":    confidenceProp(),
		"invoice_date_confidence":      confidenceProp(),
		"vendor_name_confidence":       confidenceProp(),
		"items_details_confidence":     confidenceProp(),
		"total_amount_confidence":      confidenceProp(),
		"total_without_vat_confidence": confidenceProp(),
		"vat_amount_confidence":        confidenceProp(),
		"currency_confidence":          confidenceProp(),
	}
	required := []string{"invoice_date"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func decimalProp() map[string]any {
	// amounts stay strings through decoding; the sanitizer normalizes the
	// formats the extraction service actually emits
	return map[string]any{"type": "string", "minLength": 1}
}

func confidenceProp() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": 10}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
