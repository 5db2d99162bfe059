// Package inputval validates form input structs with go-playground
// validator tags and turns failures into Hebrew, user-facing messages.
//
// Structs declare rules with `validate` and a display name with `label`:
//
//	type input struct {
//	    FullName string `validate:"required,max=200" label:"שם מלא"`
//	    Email    string `validate:"required,emailaddr" label:"דוא\"ל"`
//	}
package inputval

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string // struct field name
	Label   string
	Tag     string
	Message string
}

// Result collects the failures of a Validate call in field order.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// ByField maps struct field names to their first message.
func (r Result) ByField() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// For returns the first message for field, or "".
func (r Result) For(field string) string {
	for _, e := range r.Errors {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			_, err := primitive.ObjectIDFromHex(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return IsValidPhone(fl.Field().String())
		})
		_ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
			return IsValidDate(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Validate runs the struct's validate tags.
func Validate(s any) Result {
	err := engine().Struct(s)
	if err == nil {
		return Result{}
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return Result{Errors: []FieldError{{Message: "קלט לא תקין"}}}
	}
	res := Result{Errors: make([]FieldError, 0, len(ves))}
	for _, fe := range ves {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.StructField(),
			Label:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s הוא שדה חובה", label)
	case "emailaddr", "email":
		return fmt.Sprintf("%s אינו כתובת דוא\"ל תקינה", label)
	case "max":
		return fmt.Sprintf("%s ארוך מדי (עד %s תווים)", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s קצר מדי (לפחות %s תווים)", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s חייב להיות אחד מ: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "objectid":
		return fmt.Sprintf("יש לבחור %s", label)
	case "phone":
		return fmt.Sprintf("%s אינו מספר טלפון תקין", label)
	case "ymd":
		return fmt.Sprintf("%s אינו תאריך תקין", label)
	default:
		return fmt.Sprintf("%s אינו תקין", label)
	}
}
