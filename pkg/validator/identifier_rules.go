package validator

import (
	"fmt"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

func ValidUsername(field, value string, minLen int, maxLen int) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return false
			}
			if len(value) < minLen || len(value) > maxLen {
				return false
			}
			return usernameRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("username must be %d-%d characters long and contain only letters, numbers, dots, underscores, and hyphens", minLen, maxLen),
			TranslationKey: "validation.username",
			TranslationValues: map[string]any{
				"field":   field,
				"min_len": minLen,
				"max_len": maxLen,
			},
		},
	}
}

// ValidAPIKey validates an opaque credential: bounded length, no whitespace.
func ValidAPIKey(field, value string, minLength int, maxLength int) Rule {
	return Rule{
		Check: func() bool {
			if len(value) < minLength || len(value) > maxLength {
				return false
			}
			return !strings.ContainsAny(value, " \t\r\n")
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be %d-%d characters without whitespace", minLength, maxLength),
			TranslationKey: "validation.api_key",
			TranslationValues: map[string]any{
				"field":      field,
				"min_length": minLength,
				"max_length": maxLength,
			},
		},
	}
}

// OneOf validates that value is among options.
func OneOf[T comparable](field string, value T, options []T) Rule {
	return Rule{
		Check: func() bool {
			for _, opt := range options {
				if opt == value {
					return true
				}
			}
			return false
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be one of: %v", options),
			TranslationKey: "validation.one_of",
			TranslationValues: map[string]any{
				"field":   field,
				"options": options,
			},
		},
	}
}
