package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validator provides a fluent interface for validating configuration
// values. It collects every problem rather than failing on the first.
type Validator struct {
	errors []error
	name   string // config struct name for error messages
}

// NewValidator creates a validator with the given config name.
func NewValidator(configName string) *Validator {
	return &Validator{
		name:   configName,
		errors: make([]error, 0),
	}
}

// Required validates that a string field is not empty.
func (v *Validator) Required(field, value string) *Validator {
	if value == "" {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: required field is empty", v.name, field))
	}
	return v
}

// RangeInt validates that an int field is within the given range.
func (v *Validator) RangeInt(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: value %d is outside range [%d, %d]", v.name, field, value, min, max))
	}
	return v
}

// MinDuration validates that a duration is at least the minimum.
func (v *Validator) MinDuration(field string, value, min time.Duration) *Validator {
	if value < min {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: duration %v is below minimum %v", v.name, field, value, min))
	}
	return v
}

// Positive validates that an int field is greater than zero.
func (v *Validator) Positive(field string, value int) *Validator {
	if value <= 0 {
		v.errors = append(v.errors, fmt.Errorf("%s.%s: value %d must be positive", v.name, field, value))
	}
	return v
}

// OneOf validates that a string field is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Errorf("%s.%s: value %q is not one of [%s]", v.name, field, value, strings.Join(allowed, ", ")))
	return v
}

// Err returns all collected validation errors joined, or nil.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	return errors.Join(v.errors...)
}
