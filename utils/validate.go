package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meinhoongagan/campus-booking/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct checks req against its validate tags.
func ValidateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Invalid request", nil)
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fe.Tag())
	}
	return apperr.Validation("Invalid request", fields)
}

// ParseBody decodes the JSON body into req and validates it.
func ParseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperr.Validation("Cannot parse JSON", nil).With(err)
	}
	return ValidateStruct(req)
}

// ParamUUID reads a path parameter that must be a UUID.
func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid "+name, map[string][]string{name: {"uuid"}})
	}
	return id, nil
}
