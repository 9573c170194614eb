package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("sharepassword", validateSharePassword); err != nil {
		panic(fmt.Sprintf("failed to register sharepassword validation: %v", err))
	}
}

// Validate validates a struct using tags
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// ValidateSharePassword validates a link password separately
func ValidateSharePassword(password string) error {
	return validate.Var(password, "sharepassword")
}

// validateSharePassword checks link passwords. These protect a single file
// behind an already-unguessable token, so the bar is length only:
// 4 to 72 characters (72 is the bcrypt input limit).
func validateSharePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	return len(password) >= 4 && len(password) <= 72
}

// ValidationError represents a validation error
type ValidationError struct {
	Field string
	Error string
}

// FormatError formats a validation error into a human-readable message
func FormatError(err error) []ValidationError {
	var validationErrors []ValidationError

	if err == nil {
		return validationErrors
	}

	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			var message string

			switch e.Tag() {
			case "required":
				message = fmt.Sprintf("%s is required", e.Field())
			case "gt", "gte":
				message = fmt.Sprintf("%s is below the allowed minimum", e.Field())
			case "sharepassword":
				message = "Link password must be between 4 and 72 characters"
			default:
				message = fmt.Sprintf("Invalid value for %s", e.Field())
			}

			validationErrors = append(validationErrors, ValidationError{
				Field: strings.ToLower(e.Field()),
				Error: message,
			})
		}
	}

	return validationErrors
}
