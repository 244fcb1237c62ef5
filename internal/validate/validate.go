// Package validate checks request payloads and identifiers.
package validate

import (
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

// ErrInvalidID is returned by CheckID for malformed identifiers.
var ErrInvalidID = errors.New("ID is not in its proper form")

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonTagName)

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
	_ = validate.RegisterValidation("half_step", halfStep)
	_ = validate.RegisterTranslation("half_step", translator,
		func(ut ut.Translator) error {
			return ut.Add("half_step", "{0} must be a multiple of 0.5", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("half_step", fe.Field())
			return msg
		},
	)
}

// Check validates val's struct tags and returns the first failure as a
// readable message.
func Check(val any) error {
	if err := validate.Struct(val); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}
		if len(verrors) < 1 {
			return nil
		}
		return errors.New(verrors[0].Translate(translator))
	}
	return nil
}

// CheckID reports whether id is a UUID.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func halfStep(fl validator.FieldLevel) bool {
	v := fl.Field().Float() * 2
	return v == float64(int64(v))
}
