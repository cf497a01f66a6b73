// Package validation checks decoded request bodies against their validate tags.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/learnadoodle/planner/internal/calendar"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Custom tags.
const (
	notBlankTag = "notblank"
	dateTag     = "date"
	mondayTag   = "monday"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(dateTag, isDate)
	_ = validate.RegisterValidation(mondayTag, isMonday)

	messages := map[string]string{
		notBlankTag: "{0} must not be blank",
		dateTag:     "{0} must be a date in YYYY-MM-DD form",
		mondayTag:   "{0} must be a Monday in YYYY-MM-DD form",
	}
	for tag, msg := range messages {
		_ = validate.RegisterTranslation(tag, translator,
			func(t ut.Translator) error { return t.Add(tag, msg, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(fe.Tag(), fe.Field())
				return s
			})
	}
}

// Struct validates v and returns one FieldError per failing field. A nil
// result means v is valid.
func Struct(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe), Message: fe.Translate(translator)})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace:
// "importRequest.steps[0].title" becomes "steps[0].title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func stringField(fl validator.FieldLevel) (string, bool) {
	f := fl.Field()
	if f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return "", false
		}
		f = f.Elem()
	}
	if f.Kind() != reflect.String {
		return "", false
	}
	return f.String(), true
}

func notBlank(fl validator.FieldLevel) bool {
	s, ok := stringField(fl)
	return ok && strings.TrimSpace(s) != ""
}

func isDate(fl validator.FieldLevel) bool {
	s, ok := stringField(fl)
	if !ok {
		return false
	}
	_, err := calendar.ParseDate(s)
	return err == nil
}

func isMonday(fl validator.FieldLevel) bool {
	s, ok := stringField(fl)
	if !ok {
		return false
	}
	_, err := calendar.ParseWeekStart(s)
	return err == nil
}
