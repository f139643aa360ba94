package utils

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

// RequestValidator wraps go-playground/validator so handlers can validate
// bound request structs with a single call.
type RequestValidator struct {
	validate *validator.Validate
}

var (
	validatorOnce     sync.Once
	validatorInstance *RequestValidator
)

// GetValidator returns the shared validator instance.
func GetValidator() *RequestValidator {
	validatorOnce.Do(func() {
		validatorInstance = &RequestValidator{validate: validator.New()}
	})
	return validatorInstance
}

// Validate runs struct validation and returns the validator's error as-is;
// handlers surface it as a 422 with the field details.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
