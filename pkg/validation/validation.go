// Package validation validates commands and payloads with struct tags and
// reports failures as VALIDATION_FAILED application errors.
package validation

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/dietcompass/planner/pkg/errors"
)

// Validator wraps a configured validator instance
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the planner's custom rules registered
func New() *Validator {
	validate := validator.New()

	// Register custom validation rules
	_ = validate.RegisterValidation("household_id", validateHouseholdID)
	_ = validate.RegisterValidation("plan_date", validatePlanDate)
	_ = validate.RegisterValidation("ingredient", validateIngredient)

	return &Validator{validate: validate}
}

// Struct validates s and converts failures into an *errors.AppError
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewValidationError(err.Error())
	}

	out := make([]errors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, errors.ValidationError{
			Field:   fe.Field(),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return errors.NewValidationErrors(out)
}

// Var validates a single value against a tag
func (v *Validator) Var(field interface{}, tag string) error {
	if err := v.validate.Var(field, tag); err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_if":
		return fmt.Sprintf("%s is required when %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	case "household_id":
		return fmt.Sprintf("%s must contain only letters, digits, '-' and '_'", fe.Field())
	case "plan_date":
		return fmt.Sprintf("%s must be a YYYY-MM-DD date", fe.Field())
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}

// validateHouseholdID accepts identifiers that are safe inside storage keys
func validateHouseholdID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if len(id) < 1 || len(id) > 64 {
		return false
	}
	for _, r := range id {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// validatePlanDate validates calendar dates
func validatePlanDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// validateIngredient validates ingredient names
func validateIngredient(fl validator.FieldLevel) bool {
	ingredient := strings.TrimSpace(fl.Field().String())

	// Check length
	if len(ingredient) < 1 || len(ingredient) > 200 {
		return false
	}

	// Check for dangerous characters
	dangerous := []string{"<", ">", "javascript:"}
	ingredientLower := strings.ToLower(ingredient)
	for _, danger := range dangerous {
		if strings.Contains(ingredientLower, danger) {
			return false
		}
	}

	return true
}
