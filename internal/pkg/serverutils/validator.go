package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}

// validationMessages flattens validator errors into field -> message
func validationMessages(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "oneof":
			out[field] = fmt.Sprintf("must be one of [%s]", fe.Param())
		case "max":
			out[field] = fmt.Sprintf("must be at most %s", fe.Param())
		case "min":
			out[field] = fmt.Sprintf("must be at least %s", fe.Param())
		default:
			out[field] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return out
}
