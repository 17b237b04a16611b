package handlers

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	bankCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

	validatorsOnce sync.Once
	validatorsErr  error
)

// customValidators are the binding tags used by request DTOs beyond validator's built-ins.
var customValidators = map[string]validator.Func{
	"safe_filename": func(fl validator.FieldLevel) bool {
		return domain.ValidFileName(fl.Field().String())
	},
	"bank_code": func(fl validator.FieldLevel) bool {
		return bankCodePattern.MatchString(fl.Field().String())
	},
}

// RegisterValidators adds customValidators to gin's binding engine. Registration runs once;
// later calls return the first result. Routes whose DTOs use these tags must not be served
// when it fails, since validator panics on unknown tags.
func RegisterValidators() error {
	validatorsOnce.Do(func() {
		engine := binding.Validator.Engine()
		v, ok := engine.(*validator.Validate)
		if !ok {
			validatorsErr = fmt.Errorf("unsupported binding validator %T", engine)
			return
		}
		validatorsErr = registerTags(v, customValidators)
	})
	return validatorsErr
}

func registerTags(v *validator.Validate, tags map[string]validator.Func) error {
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %q validator: %w", tag, err)
		}
	}
	return nil
}
