package validator

// Validator bundles struct-tag validation with the business rules.
type Validator struct {
	business *BusinessValidator
}

// New creates the shared validator instance.
func New() *Validator {
	return &Validator{business: NewBusinessValidator()}
}

// GetBusinessValidator exposes the business rule validator.
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// ValidateStruct runs struct-tag rules only.
func (v *Validator) ValidateStruct(s interface{}) ValidationErrors {
	return v.business.Validate(s)
}
