package validator

import "fmt"

func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return value != "" },
		Error: ValidationError{
			Field:             field,
			Message:           "field is required",
			TranslationKey:    "validation.required",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

func RequiredSlice[T any](field string, value []T) Rule {
	return Rule{
		Check: func() bool { return len(value) > 0 },
		Error: ValidationError{
			Field:             field,
			Message:           "field is required",
			TranslationKey:    "validation.required",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

func UniqueSlice[T comparable](field string, value []T) Rule {
	return Rule{
		Check: func() bool {
			seen := make(map[T]struct{}, len(value))
			for _, v := range value {
				if _, ok := seen[v]; ok {
					return false
				}
				seen[v] = struct{}{}
			}
			return true
		},
		Error: ValidationError{
			Field:             field,
			Message:           "must not contain duplicates",
			TranslationKey:    "validation.unique_items",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// InList fails unless value is one of allowed. The message names the
// offending value so several failures on one field stay distinguishable.
func InList[T comparable](field string, value T, allowed []T) Rule {
	return Rule{
		Check: func() bool {
			for _, a := range allowed {
				if value == a {
					return true
				}
			}
			return false
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("%v must be one of: %v", value, allowed),
			TranslationKey: "validation.in_list",
			TranslationValues: map[string]any{
				"field":          field,
				"value":          value,
				"allowed_values": allowed,
			},
		},
	}
}
