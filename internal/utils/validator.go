package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/mathsia/memocard-service/internal/errors"
	"github.com/mathsia/memocard-service/internal/models"
)

// Validator wraps struct-tag validation and memocard content validation.
type Validator struct {
	structValidator *validator.Validate
}

// NewValidator creates a validator with all custom validations registered.
func NewValidator() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)
	return &Validator{structValidator: structValidator}
}

// Validate validates struct tags and converts failures to ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// ValidateMemocardContent checks that a card's content decodes to the schema
// implied by its type. A card's type is fixed at creation, so this runs on
// create and on every content update.
func (v *Validator) ValidateMemocardContent(cardType models.MemocardType, content json.RawMessage) error {
	switch cardType {
	case models.TypeTrueFalse:
		var c models.TrueFalseContent
		if err := decodeStrict(content, &c); err != nil {
			return apperrors.NewValidationError("content", fmt.Sprintf("invalid true_false content: %v", err), nil)
		}
		return v.Validate(&c)

	case models.TypeMultipleChoice:
		var c models.MultipleChoiceContent
		if err := decodeStrict(content, &c); err != nil {
			return apperrors.NewValidationError("content", fmt.Sprintf("invalid multiple_choice content: %v", err), nil)
		}
		if err := v.Validate(&c); err != nil {
			return err
		}
		for _, idx := range c.CorrectOptions {
			if idx < 0 || idx >= len(c.Options) {
				return apperrors.NewValidationError("content.correct_options",
					fmt.Sprintf("option index %d out of range (0..%d)", idx, len(c.Options)-1), idx)
			}
		}
		return nil

	case models.TypeText:
		var c models.TextContent
		if err := decodeStrict(content, &c); err != nil {
			return apperrors.NewValidationError("content", fmt.Sprintf("invalid text content: %v", err), nil)
		}
		return v.Validate(&c)

	case models.TypeNumeric:
		var c models.NumericContent
		if err := decodeStrict(content, &c); err != nil {
			return apperrors.NewValidationError("content", fmt.Sprintf("invalid numeric content: %v", err), nil)
		}
		return v.Validate(&c)

	default:
		return apperrors.NewValidationError("type", "unknown memocard type", string(cardType))
	}
}

func decodeStrict(raw json.RawMessage, dest interface{}) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// ===== CUSTOM VALIDATION FUNCTIONS =====

func validateSchoolLevel(fl validator.FieldLevel) bool {
	return models.IsValidSchoolLevel(models.SchoolLevel(fl.Field().String()))
}

func validateDifficultyLevel(fl validator.FieldLevel) bool {
	return models.IsValidDifficultyLevel(models.DifficultyLevel(fl.Field().String()))
}

func validateMemocardType(fl validator.FieldLevel) bool {
	return models.IsValidMemocardType(models.MemocardType(fl.Field().String()))
}

func validateUserRole(fl validator.FieldLevel) bool {
	return models.IsValidUserRole(models.UserRole(fl.Field().String()))
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("school_level", validateSchoolLevel)
	validate.RegisterValidation("difficulty_level", validateDifficultyLevel)
	validate.RegisterValidation("memocard_type", validateMemocardType)
	validate.RegisterValidation("user_role", validateUserRole)

	// Report json field names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
