package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Violations maps a field path ("items[2].vatRate") to a violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err returns nil when there is nothing to report, an *Error otherwise.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Violations: v}
}

// Error is returned by every operation that rejects its input.
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, code := range e.Violations {
		fields = append(fields, f+"="+code)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Single builds an *Error with one violation.
func Single(field, code string) error {
	return &Error{Violations: Violations{field: code}}
}

// IsValidation reports whether err carries violations and returns them.
func IsValidation(err error) (Violations, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Violations, true
	}
	return nil, false
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MaxLen(field, value string, max int, v Violations) {
	if utf8.RuneCountInString(value) > max {
		v[field] = "too_long"
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v[field] = "out_of_range"
	}
}

// MaxScale flags values with more than scale decimal places.
func MaxScale(field string, val decimal.Decimal, scale int32, v Violations) {
	if !val.Equal(val.Truncate(scale)) {
		v[field] = "too_precise"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct runs the `validate:` tags of a request DTO and maps failures to
// violations keyed by JSON field path.
func Struct(s any) Violations {
	out := Violations{}
	err := validate.Struct(s)
	if err == nil {
		return out
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		out["_"] = "invalid"
		return out
	}
	for _, fe := range fieldErrs {
		out[fieldPath(fe.Namespace())] = codeFor(fe.Tag())
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func codeFor(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "invalid_email"
	case "max":
		return "too_long"
	case "min":
		return "too_short"
	case "url", "http_url":
		return "invalid_url"
	case "oneof":
		return "invalid_value"
	case "gte", "lte", "gt", "lt":
		return "out_of_range"
	default:
		return fmt.Sprintf("invalid_%s", tag)
	}
}
