package validator

import (
	"time"

	"yxplore/pkg/logger"
	"yxplore/pkg/model"
	"yxplore/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var maxCommissionRate = decimal.NewFromInt(100)

type ProfileValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewProfileValidator(log *logger.Logger) *ProfileValidator {
	return &ProfileValidator{
		validate: validation.New(log),
		logger:   log,
	}
}

func (v *ProfileValidator) ValidateClient(p *model.ClientProfile) error {
	if err := validation.Struct(v.validate, p); err != nil {
		return err
	}
	if p.BirthDate != nil && p.BirthDate.After(time.Now()) {
		return validation.Field(model.FieldBirthDate, "birth_date cannot be in the future")
	}
	return nil
}

func (v *ProfileValidator) ValidateMerchant(p *model.MerchantProfile) error {
	if err := validation.Struct(v.validate, p); err != nil {
		return err
	}
	if p.CommissionRate != nil && (p.CommissionRate.IsNegative() || p.CommissionRate.GreaterThan(maxCommissionRate)) {
		return validation.Field("commission_rate", "commission_rate must be between 0 and 100")
	}
	return nil
}

func (v *ProfileValidator) ValidateAdmin(p *model.AdminProfile) error {
	return validation.Struct(v.validate, p)
}
