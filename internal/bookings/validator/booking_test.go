package validator

import (
	"testing"
	"time"

	"yxplore/pkg/logger"
	"yxplore/pkg/model"
	"yxplore/pkg/validation"

	"github.com/shopspring/decimal"
)

func adult(given string) model.Passenger {
	return model.Passenger{
		Type:       model.PassengerAdult,
		Title:      "mr",
		Gender:     "m",
		GivenName:  given,
		FamilyName: "Martin",
		BornOn:     "1985-04-12",
		Email:      "paul.martin@example.com",
		Phone:      "+33612345678",
	}
}

func validDraft() *model.BookingDraft {
	return &model.BookingDraft{
		ClientID:      "65f1c0a2b3d4e5f607182930",
		AgencyID:      "65f1c0a2b3d4e5f60718293b",
		OfferID:       "off_0000AxePR1Bp3LJq0ToDYL",
		Origin:        "CDG",
		Destination:   "JFK",
		DepartureDate: time.Date(2030, 6, 10, 10, 15, 0, 0, time.UTC),
		Price:         decimal.RequireFromString("500.00"),
		Currency:      "EUR",
		Passengers:    []model.Passenger{adult("Paul")},
	}
}

func hasField(err error, field string) bool {
	verrs, ok := err.(validation.ValidationErrors)
	if !ok {
		return false
	}
	for _, e := range verrs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*model.BookingDraft)
		wantField string
	}{
		{name: "valid", mutate: func(*model.BookingDraft) {}},
		{name: "same airports", mutate: func(d *model.BookingDraft) { d.Destination = "CDG" }, wantField: "destination"},
		{name: "lower case airport", mutate: func(d *model.BookingDraft) { d.Origin = "cdg" }, wantField: "origin"},
		{name: "negative price", mutate: func(d *model.BookingDraft) { d.Price = decimal.NewFromInt(-1) }, wantField: "price"},
		{name: "unknown currency", mutate: func(d *model.BookingDraft) { d.Currency = "EUX" }, wantField: "currency"},
		{
			name: "commission above 100",
			mutate: func(d *model.BookingDraft) {
				r := decimal.NewFromInt(101)
				d.CommissionRate = &r
			},
			wantField: "commission_rate",
		},
		{name: "no passengers", mutate: func(d *model.BookingDraft) { d.Passengers = nil }, wantField: "passengers"},
		{
			name: "ten passengers",
			mutate: func(d *model.BookingDraft) {
				d.Passengers = nil
				for _, n := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"} {
					d.Passengers = append(d.Passengers, adult(n))
				}
			},
			wantField: "passengers",
		},
		{
			name:      "bad passenger email",
			mutate:    func(d *model.BookingDraft) { d.Passengers[0].Email = "nope" },
			wantField: "passengers[0].email",
		},
		{
			name:      "bad born_on format",
			mutate:    func(d *model.BookingDraft) { d.Passengers[0].BornOn = "12/04/1985" },
			wantField: "passengers[0].born_on",
		},
		{
			name: "return before departure",
			mutate: func(d *model.BookingDraft) {
				r := d.DepartureDate.AddDate(0, 0, -1)
				d.ReturnDate = &r
			},
			wantField: "return_date",
		},
		{
			name:      "duplicate passenger",
			mutate:    func(d *model.BookingDraft) { d.Passengers = append(d.Passengers, adult("Paul")) },
			wantField: "passengers[1]",
		},
		{
			name:      "born in the future",
			mutate:    func(d *model.BookingDraft) { d.Passengers[0].BornOn = "2999-01-01" },
			wantField: "passengers[0].born_on",
		},
		{
			name: "infant without adult",
			mutate: func(d *model.BookingDraft) {
				baby := adult("Lou")
				baby.Type = model.PassengerInfant
				baby.BornOn = "2025-01-01"
				d.Passengers = []model.Passenger{baby}
			},
			wantField: "passengers",
		},
	}

	v := NewBookingValidator(logger.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(d)
			err := v.ValidateDraft(d)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !hasField(err, tt.wantField) {
				t.Errorf("expected error on %s, got %v", tt.wantField, err)
			}
		})
	}
}

func TestValidateOfferRequest(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	req := &model.OfferBookingRequest{
		ClientID:   "65f1c0a2b3d4e5f607182930",
		AgencyID:   "65f1c0a2b3d4e5f60718293b",
		OfferID:    "off_1",
		Passengers: []model.Passenger{adult("Paul")},
	}
	if err := v.ValidateOfferRequest(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req.ClientID = "client-1"
	if err := v.ValidateOfferRequest(req); !hasField(err, "client_id") {
		t.Errorf("expected client_id error, got %v", err)
	}
}
