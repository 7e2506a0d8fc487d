package validation

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// IsMobile reports whether s looks like a phone number: optional +, 10 to 15 digits
func IsMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// RegisterBindings adds the "mobile" tag to gin's request validator
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return IsMobile(fl.Field().String())
	})
}
