package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"openboard/internal/board"
)

// geometry covers the attributes the server interprets on every object;
// the rest of the attribute set is free-form and only sanitized.
type geometry struct {
	UID    string  `json:"uid" validate:"required,max=64"`
	Slide  int     `json:"slide" validate:"min=0"`
	Left   float64 `json:"left" validate:"min=-1000000,max=1000000"`
	Top    float64 `json:"top" validate:"min=-1000000,max=1000000"`
	Width  float64 `json:"width" validate:"min=0,max=1000000"`
	Height float64 `json:"height" validate:"min=0,max=1000000"`
}

// ObjectValidator: validation and sanitization of incoming whiteboard objects
type ObjectValidator struct {
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

func NewObjectValidator() *ObjectValidator {
	// removes all HTML/scripts
	return &ObjectValidator{
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// ValidateAndSanitize checks the object's interpreted attributes and strips
// HTML from every string in the attribute set.
func (v *ObjectValidator) ValidateAndSanitize(o board.Object) (board.Object, error) {
	var geo geometry
	if err := mapToStruct(o, &geo); err != nil {
		return nil, fmt.Errorf("failed to parse object data: %w", err)
	}
	if err := v.validate.Struct(&geo); err != nil {
		return nil, fmt.Errorf("object validation failed: %w", err)
	}
	return board.Object(v.sanitizeMap(o)), nil
}

// mapToStruct: converts a map to a typed struct using JSON marshaling
func mapToStruct(data map[string]any, target any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

// sanitizeMap recursively sanitizes all string values in a map
func (v *ObjectValidator) sanitizeMap(data map[string]any) map[string]any {
	result := make(map[string]any, len(data))
	for key, value := range data {
		result[key] = v.sanitizeValue(value)
	}
	return result
}

func (v *ObjectValidator) sanitizeValue(value any) any {
	switch t := value.(type) {
	case string:
		return v.sanitizer.Sanitize(t)
	case map[string]any:
		return v.sanitizeMap(t)
	case board.Object:
		return v.sanitizeMap(t)
	case []any:
		result := make([]any, len(t))
		for i, item := range t {
			result[i] = v.sanitizeValue(item)
		}
		return result
	default:
		// numbers, bools etc. pass through
		return value
	}
}
