package middleware

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct is the helper handlers call on bound request bodies.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
