package dto

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/project-management-api/internal/models"
)

// RegisterValidators installs the custom binding tags used by request structs
// and reports fields by their JSON name.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v.RegisterValidation("workspace_role", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseWorkspaceRole(fl.Field().String())
		return ok
	})
}
