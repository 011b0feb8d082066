package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	dateTag   = "date"
	dateText  = "{0} must be a date in YYYY-MM-DD format"
	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	clockTag   = "clock"
	clockText  = "{0} must be a time in HH:MM or HH:MM:SS format"
	clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(dateTag, func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})
	RegisterCustomTranslation(dateTag, dateText)
	_ = Validate.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
		return IsClock(fl.Field().String())
	})
	RegisterCustomTranslation(clockTag, clockText)
}

// EchoValidator adapts Validate to echo.Validator.
type EchoValidator struct{}

func (EchoValidator) Validate(i interface{}) error { return Validate.Struct(i) }

// RegisterCustomTranslation registers the English message for a custom tag.
func RegisterCustomTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// IsDate reports whether s looks like YYYY-MM-DD.
func IsDate(s string) bool { return dateRegex.MatchString(s) }

// IsClock reports whether s looks like HH:MM or HH:MM:SS.
func IsClock(s string) bool { return clockRegex.MatchString(s) }

// FieldErrors flattens validation errors into a json-field -> message map.
func FieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = e.Translate(Translator)
	}
	return out
}
