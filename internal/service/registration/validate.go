package registration

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ybthummar/MathFlowAI/internal/domain"
)

var (
	teamNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)
	phonePattern    = regexp.MustCompile(`^[6-9]\d{9}$`)
)

// newValidate builds the validator with registration-specific rules and
// JSON-tag field naming so error keys match the wire payload.
func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("teamname", func(fl validator.FieldLevel) bool {
		return teamNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("inphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return domain.ValidDepartment(fl.Field().String())
	})
	_ = v.RegisterValidation("eventyear", func(fl validator.FieldLevel) bool {
		return domain.ValidYear(fl.Field().String())
	})
	return v
}

// fieldErrors flattens validator output into a field-keyed message map,
// e.g. {"members[1].email": "Invalid email address"}.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["payload"] = "Malformed registration payload"
		return out
	}
	for _, fe := range verrs {
		key := fe.Namespace()
		if idx := strings.Index(key, "."); idx >= 0 {
			key = key[idx+1:]
		}
		if _, seen := out[key]; !seen {
			out[key] = messageFor(fe)
		}
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Team must have at least %s members", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Team can have at most %s members", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "teamname":
		return "Team name can only contain letters, numbers, spaces, hyphens, and underscores"
	case "inphone":
		return "Invalid phone number (must be 10 digits starting with 6-9)"
	case "department":
		return "Please select a valid department"
	case "eventyear":
		return "Only 1st and 2nd year students are eligible"
	case "eq":
		return "You must agree to the rules and code of conduct"
	}
	return "Invalid value"
}
