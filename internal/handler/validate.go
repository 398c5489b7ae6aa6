package handler

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() func(v any) []fieldError {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})

	return func(s any) []fieldError {
		err := v.Struct(s)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []fieldError{{Field: "", Message: err.Error()}}
		}
		out := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fieldError{Field: fieldPath(fe), Message: messageFor(fe)})
		}
		return out
	}
}

// fieldPath strips the root struct name from the namespace, e.g.
// "orderRequest.items[0].quantity" becomes "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// messageFor returns a human readable message. fieldMessages entries keyed
// by "field.tag" or "field" take precedence over the generic text.
func messageFor(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please provide a valid email address"
	case "oneof":
		return fe.Field() + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	}
	return fe.Field() + " is invalid"
}

var fieldMessages = map[string]string{
	"items":             "Order must contain at least one item",
	"coffee_id":         "Valid coffee ID is required",
	"order_id":          "Order ID must be a valid integer",
	"quantity":          "Quantity must be at least 1",
	"quantity.max":      "Quantity must be at most 1000",
	"cup_size":          "Cup size must be small, medium, or large",
	"sugar_level":       "Sugar level must be none, low, medium, or high",
	"preferred_size":    "Preferred size must be small, medium, or large",
	"preferred_sugar":   "Preferred sugar must be none, low, medium, or high",
	"rating":            "Rating must be between 1 and 5",
	"comment":           "Comment must not exceed 1000 characters",
	"status":            "Invalid status value",
	"username":          "Username must be between 3 and 100 characters",
	"username.username": "Username can only contain letters, numbers, and underscores",
	"password":          "Password must be at least 6 characters long",
	"password.required": "Password is required",
}
