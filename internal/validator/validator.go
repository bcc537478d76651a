package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/delivery-service/internal/delivery"
	"github.com/SAP-F-2025/delivery-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validation with the delivery rules registered
type Validator struct {
	structValidator *validator.Validate
}

func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates s and converts failures into ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("presentation_mode", validatePresentationMode)
	validate.RegisterValidation("page_selector", validatePageSelector)
	validate.RegisterValidation("destination", validateDestination)
	validate.RegisterValidation("intent", validateIntent)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validatePresentationMode(fl validator.FieldLevel) bool {
	switch models.PresentationMode(fl.Field().String()) {
	case models.PresentationByQuestion, models.PresentationBySection, models.PresentationByAssessment:
		return true
	}
	return false
}

func validatePageSelector(fl validator.FieldLevel) bool {
	_, err := delivery.ParseSelector(fl.Field().String())
	return err == nil
}

func validateDestination(fl validator.FieldLevel) bool {
	_, err := delivery.ParseDestination(fl.Field().String())
	return err == nil
}

func validateIntent(fl validator.FieldLevel) bool {
	_, err := delivery.ParseIntent(fl.Field().String())
	return err == nil
}
