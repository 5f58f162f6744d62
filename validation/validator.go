package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kevinaaaquil/yamdb/apperr"
)

// Custom tags bound to the rules in this package, and the error kind each one reports.
var customTags = map[string]apperr.Kind{
	"username": apperr.KindInvalidUsername,
	"notme":    apperr.KindReservedUsername,
	"pastyear": apperr.KindInvalidYear,
	"score":    apperr.KindInvalidScore,
	"slug":     apperr.KindValidation,
}

// Validator wraps go-playground/validator and converts failures to apperr errors.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New creates a validator with the domain tags registered.
func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an injectable clock for the pastyear tag.
func NewWithClock(now func() time.Time) *Validator {
	val := &Validator{v: validator.New(validator.WithRequiredStructEnabled()), now: now}

	val.v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := val.v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	must("username", func(fl validator.FieldLevel) bool {
		return UsernameCharsetValid(fl.Field().String())
	})
	must("notme", func(fl validator.FieldLevel) bool {
		return UsernameNotReserved(fl.Field().String())
	})
	must("pastyear", func(fl validator.FieldLevel) bool {
		return YearValid(int(fl.Field().Int()), val.now())
	})
	must("score", func(fl validator.FieldLevel) bool {
		return ScoreValid(int(fl.Field().Int()))
	})
	must("slug", func(fl validator.FieldLevel) bool {
		return SlugValid(fl.Field().String())
	})

	return val
}

// Now returns the validator's clock reading.
func (v *Validator) Now() time.Time {
	return v.now()
}

// Validate checks s and returns an *apperr.Error describing every failing field.
// The error kind is that of the first field failing a domain tag, VALIDATION otherwise.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(apperr.KindInternal, "validate request", err)
	}

	kind := apperr.KindValidation
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if k, ok := customTags[fe.Tag()]; ok && kind == apperr.KindValidation {
			kind = k
		}
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = friendlyMessage(fe)
		}
	}
	return &apperr.Error{Kind: kind, Message: kind.DefaultMessage(), Fields: fields}
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "min":
		return "this field may not be blank"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "dive":
		return "contains an invalid value"
	case "username":
		return "may contain only ASCII letters, digits and @/./+/-/_"
	case "notme":
		return `"me" cannot be used as a username`
	case "pastyear":
		return fmt.Sprintf("year %v has not come yet", fe.Value())
	case "score":
		return fmt.Sprintf("score %v is out of range, use 1 to 10", fe.Value())
	case "slug":
		return "enter a valid slug of letters, numbers, underscores or hyphens"
	default:
		return "is invalid"
	}
}
