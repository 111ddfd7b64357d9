package validator

import (
	"yxplore/pkg/logger"
	"yxplore/pkg/model"
	"yxplore/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type AgencyValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAgencyValidator(log *logger.Logger) *AgencyValidator {
	return &AgencyValidator{
		validate: validation.New(log),
		logger:   log,
	}
}

func (v *AgencyValidator) ValidateAgency(a *model.Agency) error {
	return validation.Struct(v.validate, a)
}

func (v *AgencyValidator) ValidateAssignment(a *model.MerchantAssignment) error {
	return validation.Struct(v.validate, a)
}
