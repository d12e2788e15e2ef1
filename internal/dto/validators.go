package dto

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	dicomDateRe = regexp.MustCompile(`^\d{8}$`)
	dicomTimeRe = regexp.MustCompile(`^\d{6}$`)
)

// Registers DICOM date/time validations on gin's binding engine. Study
// dates arrive as DICOM text (YYYYMMDD, HHMMSS), not RFC 3339.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("dicomdate", func(fl validator.FieldLevel) bool {
		return dicomDateRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("dicomtime", func(fl validator.FieldLevel) bool {
		return dicomTimeRe.MatchString(fl.Field().String())
	})
}
