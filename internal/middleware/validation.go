package middleware

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var schemaNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// RegisterValidators installs custom binding validators. Called once at
// startup; field names in validation errors come from the json tag so
// clients see the wire name, not the Go one.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("schema_name", func(fl validator.FieldLevel) bool {
		return schemaNamePattern.MatchString(fl.Field().String())
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}
