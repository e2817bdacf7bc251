package validation

import (
	"reflect"
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Regex patterns
var (
	// Letters, numbers, spaces and common punctuation: . ' - / & ( ) , + :
	titleRegex = regexp.MustCompile(`^[\p{L}0-9 .'/&(),+:-]+$`)

	// Sale units such as "kg", "pot", "bundle", "hour session"
	unitRegex = regexp.MustCompile(`^\p{L}[\p{L} ]{0,19}$`)
)

// New returns a validator with the custom rules and type functions registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_title", ValidTitle)
	_ = v.RegisterValidation("valid_unit", ValidUnit)
	_ = v.RegisterValidation("no_emoji", NoEmoji)
	// Money fields compare as numbers so gte/lte work on them
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// ValidTitle validates a listing title
func ValidTitle(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return titleRegex.MatchString(val)
}

// ValidUnit validates a sale unit label
func ValidUnit(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return unitRegex.MatchString(val)
}

// NoEmoji validates that a string does not contain emoji characters
func NoEmoji(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, r := range val {
		// Supplementary planes are mostly emoji and pictographs
		if r > 0x1F000 {
			return false
		}
		if unicode.In(r, unicode.So, unicode.Sk) { // Symbol, other / Symbol, modifier
			return false
		}
	}
	return true
}
