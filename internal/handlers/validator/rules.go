package validator

import "github.com/go-playground/validator/v10"

func registerFn(tag string, fn func(fl validator.FieldLevel) bool) func(v *validator.Validate) {
	return func(v *validator.Validate) {
		_ = v.RegisterValidation(tag, fn)
	}
}

func NewClaimValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("patient_id", patientIDValidator),
		},
		{
			Rule: registerFn("geotag", geotagValidator),
		},
	}
}

func NewOverrideValidationRules() []ValidationRule {
	return []ValidationRule{
		{
			Rule: registerFn("actor_id", actorIDValidator),
		},
	}
}
