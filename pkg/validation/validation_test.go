package validation

import (
	"errors"
	"testing"

	"yxplore/pkg/logger"

	"github.com/shopspring/decimal"
)

type trip struct {
	Origin      string           `json:"origin" validate:"required,iata"`
	Destination string           `json:"destination" validate:"required,iata,nefield=Origin"`
	Price       decimal.Decimal  `json:"price" validate:"gte=0"`
	Rate        *decimal.Decimal `json:"rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Legs        []leg            `json:"legs" validate:"required,min=1,dive"`
}

type leg struct {
	Email string `json:"email" validate:"required,email"`
}

func TestStruct(t *testing.T) {
	v := New(logger.Discard())
	over := decimal.NewFromInt(150)

	tests := []struct {
		name      string
		in        trip
		wantField string
	}{
		{
			name: "valid",
			in:   trip{Origin: "CDG", Destination: "JFK", Price: decimal.RequireFromString("500.00"), Legs: []leg{{Email: "a@b.fr"}}},
		},
		{
			name:      "lower case iata",
			in:        trip{Origin: "cdg", Destination: "JFK", Legs: []leg{{Email: "a@b.fr"}}},
			wantField: "origin",
		},
		{
			name:      "same endpoints",
			in:        trip{Origin: "CDG", Destination: "CDG", Legs: []leg{{Email: "a@b.fr"}}},
			wantField: "destination",
		},
		{
			name:      "negative price",
			in:        trip{Origin: "CDG", Destination: "JFK", Price: decimal.NewFromInt(-1), Legs: []leg{{Email: "a@b.fr"}}},
			wantField: "price",
		},
		{
			name:      "rate above 100",
			in:        trip{Origin: "CDG", Destination: "JFK", Rate: &over, Legs: []leg{{Email: "a@b.fr"}}},
			wantField: "rate",
		},
		{
			name:      "nested field path",
			in:        trip{Origin: "CDG", Destination: "JFK", Legs: []leg{{Email: "nope"}}},
			wantField: "legs[0].email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(v, &tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("expected field %q, got %q (%s)", tt.wantField, verrs[0].Field, verrs[0].Message)
			}
		})
	}
}

func TestValidationErrors_Details(t *testing.T) {
	errs := ValidationErrors{{Field: "notes", Message: "notes is required"}}
	fields, ok := errs.Details()["fields"].(map[string]any)
	if !ok || fields["notes"] != "notes is required" {
		t.Errorf("unexpected details %v", errs.Details())
	}
	if errs.Error() == "" {
		t.Error("expected a message")
	}
}
