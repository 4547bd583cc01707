package bridge

import (
	"fmt"
)

// FieldType names the expected JSON type of a response field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeBool   FieldType = "bool"
	TypeObject FieldType = "object"
	TypeArray  FieldType = "array"
)

// FieldSpec declares the expected shape of one response field.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Required bool
	// Elem optionally constrains array element types.
	Elem FieldType
}

// Contract declares the response shape a caller expects from a wrapper.
type Contract struct {
	Fields []FieldSpec
}

// ValidationReport collects contract-validation findings. A report with
// errors means the response cannot be trusted; warnings are advisory.
// Validation failure is a diagnostic, not a crash.
type ValidationReport struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the response passed all hard checks.
func (r *ValidationReport) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateResponse checks data against the contract: required-field
// absence or type mismatch is a hard error, an optional field with the
// wrong type is a soft warning, and array-typed fields have their
// elements checked.
func ValidateResponse(data map[string]any, contract Contract) *ValidationReport {
	report := &ValidationReport{}

	for _, spec := range contract.Fields {
		value, present := data[spec.Name]
		if !present || value == nil {
			if spec.Required {
				report.Errors = append(report.Errors, fmt.Sprintf("required field %q missing", spec.Name))
			}
			continue
		}

		if !matchesType(value, spec.Type) {
			msg := fmt.Sprintf("field %q: expected %s, got %T", spec.Name, spec.Type, value)
			if spec.Required {
				report.Errors = append(report.Errors, msg)
			} else {
				report.Warnings = append(report.Warnings, msg)
			}
			continue
		}

		if spec.Type == TypeArray && spec.Elem != "" {
			items, _ := value.([]any)
			for i, item := range items {
				if !matchesType(item, spec.Elem) {
					msg := fmt.Sprintf("field %q[%d]: expected %s, got %T", spec.Name, i, spec.Elem, item)
					if spec.Required {
						report.Errors = append(report.Errors, msg)
					} else {
						report.Warnings = append(report.Warnings, msg)
					}
				}
			}
		}
	}

	return report
}

func matchesType(value any, t FieldType) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeNumber:
		// encoding/json decodes all numbers to float64
		_, ok := value.(float64)
		return ok
	case TypeBool:
		_, ok := value.(bool)
		return ok
	case TypeObject:
		_, ok := value.(map[string]any)
		return ok
	case TypeArray:
		_, ok := value.([]any)
		return ok
	}
	return false
}
