// package validate
package validate

import (
	"fmt"
	"strings"

	"github.com/hilthontt/huddle/internal/domain"
)

// Validator is a function that validates a string and returns an error if invalid
type Validator func(value string) error

// Field labels the errors of validators with name.
func Field(name string, validators ...Validator) Validator {
	return func(value string) error {
		for _, v := range validators {
			if err := v(value); err != nil {
				if !strings.Contains(err.Error(), name) {
					return fmt.Errorf("%s: %w", name, err)
				}
				return err
			}
		}
		return nil
	}
}

// Compose chains multiple validators, first error wins
func Compose(validators ...Validator) Validator {
	return func(value string) error {
		for _, v := range validators {
			if err := v(value); err != nil {
				return err
			}
		}
		return nil
	}
}

// Present ensures the field is not the empty string. Whitespace counts as a
// value.
func Present() Validator {
	return func(v string) error {
		if v == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	}
}

// Required ensures the field is not blank
func Required() Validator {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	}
}

// MinLength checks minimum length in UTF-16 code units
func MinLength(min int) Validator {
	return func(v string) error {
		if domain.TextLength(v) < min {
			return fmt.Errorf("must be at least %d characters", min)
		}
		return nil
	}
}

// MaxLength checks maximum length in UTF-16 code units
func MaxLength(max int) Validator {
	return func(v string) error {
		if domain.TextLength(v) > max {
			return fmt.Errorf("must be no more than %d characters", max)
		}
		return nil
	}
}

// LengthBetween checks length between min and max (inclusive)
func LengthBetween(min, max int) Validator {
	return Compose(MinLength(min), MaxLength(max))
}

// As replaces any error from v with err, so callers can match on a sentinel.
func As(err error, v Validator) Validator {
	return func(value string) error {
		if cause := v(value); cause != nil {
			return fmt.Errorf("%w: %v", err, cause)
		}
		return nil
	}
}
