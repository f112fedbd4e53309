package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/tablekeep/internal/types"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUTF8 returns an error if the value is not valid UTF-8.
func ValidateUTF8(field, value string) *ValidationError {
	if !utf8.ValidString(value) {
		return &ValidationError{
			Field:   field,
			Message: "must be valid UTF-8",
		}
	}
	return nil
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateLongerThan returns an error unless the value has more than min
// characters. Surrounding whitespace counts, matching what the user typed.
func ValidateLongerThan(field, value string, min int) *ValidationError {
	if utf8.RuneCountInString(value) <= min {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be longer than %d characters", min),
		}
	}
	return nil
}

// ValidateNonEmptyList returns an error if the list has no entries.
func ValidateNonEmptyList(field string, values []string) *ValidationError {
	if len(values) == 0 {
		return &ValidationError{
			Field:   field,
			Message: "must contain at least one entry",
		}
	}
	return nil
}

// ValidateULID returns an error unless value parses as a ULID. Lowercase is
// accepted; values past the 48-bit timestamp range are not.
func ValidateULID(field, value string) *ValidationError {
	if _, err := ulid.ParseStrict(value); err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID",
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	if types.Contains(allowed, value) {
		return nil
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateNewCampaign validates a campaign creation request.
func ValidateNewCampaign(c types.NewCampaign) []ValidationError {
	var col Collector
	col.Add(ValidateRequired("name", c.Name))
	col.Add(ValidateMaxLength("name", c.Name, 200))
	col.Add(ValidateUTF8("name", c.Name))
	col.Add(ValidateRequired("game_system", c.GameSystem))
	col.Add(ValidateMaxLength("game_system", c.GameSystem, 64))
	col.Add(ValidateMaxLength("description", c.Description, 4000))
	return col.Errors()
}
