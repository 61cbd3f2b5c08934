// Package validate is a thin wrapper around go-playground/validator shared
// by the configuration loader and the CLI.
//
// Besides the built-in tags it registers:
//
//	countdown  a duration in [1s, 99h59m59s]
package validate

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xvierd/countdown-cli/internal/domain"
)

//nolint:gochecknoglobals // Shared validator singleton.
var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

// get returns a process-wide singleton of the validator.
func get() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New(validator.WithRequiredStructEnabled())
		_ = validatorInst.RegisterValidation("countdown", isCountdown)
	})
	return validatorInst
}

// Struct validates a struct using the shared validator instance.
func Struct(v any) error {
	return get().Struct(v)
}

// Var validates a single variable against the provided tag constraints.
func Var(field any, tag string) error {
	return get().Var(field, tag)
}

func isCountdown(fl validator.FieldLevel) bool {
	d := time.Duration(fl.Field().Int())
	return d >= time.Second && d <= domain.MaxDuration
}
