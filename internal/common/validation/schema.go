package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// chatRequestSchema constrains the inbound chat payload before it reaches
// the dialogue engine.
const chatRequestSchema = `{
	"type": "object",
	"properties": {
		"conversation_id": {
			"type": "string",
			"minLength": 1,
			"maxLength": 128
		},
		"message": {
			"type": "string",
			"maxLength": 2000
		},
		"channel": {
			"type": "string",
			"enum": ["web", "telegram", "whatsapp", "test"]
		},
		"intent": {
			"type": "string",
			"enum": ["greeting", "parametric_search", "specific_hotel", "hot_tours", "faq", "invalid_country", ""]
		},
		"slots": {
			"type": "object"
		},
		"confirm": {
			"type": "boolean"
		},
		"selected_option": {
			"type": "integer",
			"minimum": 0
		},
		"fetch_more": {
			"type": "boolean"
		}
	},
	"required": ["conversation_id"],
	"additionalProperties": false
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

var compiledChatSchema *gojsonschema.Schema

func init() {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(chatRequestSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid chat request schema: %v", err))
	}
	compiledChatSchema = schema
}

// ValidateChatRequest validates a raw request body against the chat schema.
func ValidateChatRequest(body []byte) *ValidationResult {
	result, err := compiledChatSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(body)",
				Message: "request body is not valid JSON",
				Code:    "INVALID_JSON",
			}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errors := make([]ValidationError, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		errors = append(errors, ValidationError{
			Field:   resErr.Field(),
			Message: resErr.Description(),
			Code:    strings.ToUpper(resErr.Type()),
		})
	}
	return &ValidationResult{Valid: false, Errors: errors}
}

// ValidateAgainst validates arbitrary input against a caller-supplied schema.
func ValidateAgainst(input map[string]interface{}, schemaJSON string) (*ValidationResult, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}, nil
	}

	errors := make([]ValidationError, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		errors = append(errors, ValidationError{
			Field:   resErr.Field(),
			Message: resErr.Description(),
			Code:    strings.ToUpper(resErr.Type()),
		})
	}
	return &ValidationResult{Valid: false, Errors: errors}, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	emailPattern := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailPattern.MatchString(email)
}

// ValidatePhone validates basic phone number format
func ValidatePhone(phone string) bool {
	phonePattern := regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
	return phonePattern.MatchString(phone)
}
