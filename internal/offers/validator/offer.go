package validator

import (
	"time"

	"yxplore/pkg/logger"
	"yxplore/pkg/model"
	"yxplore/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type OfferValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

func NewOfferValidator(log *logger.Logger) *OfferValidator {
	return &OfferValidator{
		validate: validation.New(log),
		logger:   log,
		now:      time.Now,
	}
}

// ValidateSearch checks the search criteria. Dates are compared by calendar
// day in UTC, so a departure today is accepted.
func (v *OfferValidator) ValidateSearch(search *model.OfferSearch) error {
	if err := validation.Struct(v.validate, search); err != nil {
		return err
	}

	today := v.now().UTC().Truncate(24 * time.Hour)
	if search.DepartureDate.UTC().Before(today) {
		return validation.Field("departure_date", "departure_date cannot be in the past")
	}
	if search.ReturnDate != nil && search.ReturnDate.Before(search.DepartureDate) {
		return validation.Field("return_date", "return_date must not be before departure_date")
	}
	return nil
}
