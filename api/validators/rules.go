package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/zedmarket-backend/pkg/errors"
)

var (
	// Zambian mobile numbers, with or without the 260 country code.
	msisdnPattern = regexp.MustCompile(`^(\+?260|0)?[79][5-7]\d{7}$`)
	moneyPattern  = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
)

var customRules = map[string]validator.Func{
	"msisdn": func(fl validator.FieldLevel) bool {
		return msisdnPattern.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
	},
	"money": func(fl validator.FieldLevel) bool {
		return moneyPattern.MatchString(fl.Field().String())
	},
}

// ruleMessages maps a failed tag to the text shown to clients. %s is the
// tag parameter.
var ruleMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"uuid":     "must be a valid UUID",
	"uuid4":    "must be a valid UUID",
	"oneof":    "must be one of [%s]",
	"msisdn":   "must be a valid mobile number",
	"money":    "must be a decimal amount",
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	for tag, fn := range customRules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s rule: %v", tag, err))
		}
	}
	return v
}()

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// ValidateStruct checks dest against its validate tags. Failures come back
// as a VALIDATION error whose details map JSON field names to messages.
func ValidateStruct(dest any) error {
	err := validate.Struct(dest)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = ruleMessage(fe)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func ruleMessage(fe validator.FieldError) string {
	msg, ok := ruleMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fe.Param())
	}
	return msg
}
