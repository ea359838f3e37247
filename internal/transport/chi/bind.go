package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const maxBodyBytes = 1 << 20

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

// validatorInstance returns the shared validator, reporting json field names.
func validatorInstance() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		enLoc := en.New()
		trans, _ := ut.New(enLoc, enLoc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = entranslations.RegisterDefaultTranslations(v, trans)

		validate, translator = v, trans
	})
	return validate, translator
}

// decodeJSON reads exactly one JSON document into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}

// validateStruct returns the first failed rule as a client-facing message.
func validateStruct(v any) error {
	val, trans := validatorInstance()
	err := val.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(verrs[0].Translate(trans))
	}
	return fmt.Errorf("validation error: %w", err)
}
