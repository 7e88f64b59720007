package ollama

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Model output is validated against a JSON schema before any field is
// trusted. The schemas are deliberately loose on optional fields (absent and
// null are both fine) but strict on shape, so a response with the wrong
// structure degrades the record instead of corrupting it.

var classificationSchema = map[string]any{
	"type":     "object",
	"required": []any{"document_type", "confidence"},
	"properties": map[string]any{
		"document_type": map[string]any{"type": "string"},
		"confidence":    map[string]any{"type": "number"},
	},
}

var billSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"hospital_name":    nullableString(),
		"patient_name":     nullableString(),
		"date_of_service":  nullableString(),
		"total_amount":     nullableAmount(),
		"insurance_amount": nullableAmount(),
		"patient_amount":   nullableAmount(),
		"bill_number":      nullableString(),
		"doctor_name":      nullableString(),
		"department":       nullableString(),
		"service_details":  nullableStringList(),
	},
}

var dischargeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"patient_name":           nullableString(),
		"hospital_name":          nullableString(),
		"admission_date":         nullableString(),
		"discharge_date":         nullableString(),
		"primary_diagnosis":      nullableString(),
		"secondary_diagnoses":    nullableStringList(),
		"procedures_performed":   nullableStringList(),
		"doctor_name":            nullableString(),
		"discharge_instructions": nullableString(),
		"length_of_stay":         nullableAmount(),
	},
}

var ancillarySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"patient_name":        nullableString(),
		"policy_number":       nullableString(),
		"member_id":           nullableString(),
		"insurance_company":   nullableString(),
		"coverage_type":       nullableString(),
		"reference_number":    nullableString(),
		"correspondence_date": nullableString(),
		"prescribing_doctor":  nullableString(),
		"medications":         nullableStringList(),
		"prescription_date":   nullableString(),
	},
}

func nullableString() map[string]any {
	return map[string]any{"type": []any{"string", "null"}}
}

// nullableAmount tolerates models answering numbers as formatted strings;
// coercion happens later in the extractor.
func nullableAmount() map[string]any {
	return map[string]any{"type": []any{"number", "string", "null"}}
}

func nullableStringList() map[string]any {
	return map[string]any{
		"type":  []any{"array", "null"},
		"items": map[string]any{"type": "string"},
	}
}

func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
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
		return fmt.Errorf("unmarshal model output: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("model output does not match schema: %w", err)
	}
	return nil
}
