package validator

import (
	"fmt"
	"time"

	"yxplore/pkg/logger"
	"yxplore/pkg/model"
	"yxplore/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validation.New(log),
		logger:   log,
		now:      time.Now,
	}
}

func (v *BookingValidator) ValidateDraft(draft *model.BookingDraft) error {
	if err := validation.Struct(v.validate, draft); err != nil {
		return err
	}
	if draft.ReturnDate != nil && draft.ReturnDate.Before(draft.DepartureDate) {
		return validation.Field("return_date", "return_date must not be before departure_date")
	}
	return v.validatePassengers(draft.Passengers)
}

func (v *BookingValidator) ValidateOfferRequest(req *model.OfferBookingRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	return v.validatePassengers(req.Passengers)
}

// validatePassengers checks the rules that span passengers: one row per
// identity, no birth date in the future, at most one infant per adult.
func (v *BookingValidator) validatePassengers(passengers []model.Passenger) error {
	var errs validation.ValidationErrors
	seen := make(map[string]int, len(passengers))
	adults, infants := 0, 0
	today := v.now().UTC().Truncate(24 * time.Hour)

	for i := range passengers {
		p := &passengers[i]
		field := fmt.Sprintf("passengers[%d]", i)

		if first, dup := seen[p.IdentityKey()]; dup {
			errs = append(errs, validation.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("passenger duplicates passengers[%d]", first),
			})
		} else {
			seen[p.IdentityKey()] = i
		}

		if born, err := time.Parse(model.BornOnLayout, p.BornOn); err == nil && born.After(today) {
			errs = append(errs, validation.ValidationError{
				Field:   field + ".born_on",
				Message: "born_on cannot be in the future",
			})
		}

		switch p.Type {
		case model.PassengerAdult:
			adults++
		case model.PassengerInfant:
			infants++
		}
	}

	if infants > adults {
		errs = append(errs, validation.ValidationError{
			Field:   "passengers",
			Message: fmt.Sprintf("%d infants need at least as many adults, got %d", infants, adults),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
