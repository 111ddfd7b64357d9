package model

import "time"

type PassengerType string

const (
	PassengerAdult  PassengerType = "adult"
	PassengerChild  PassengerType = "child"
	PassengerInfant PassengerType = "infant"
)

const BornOnLayout = "2006-01-02"

type Passenger struct {
	ID                string        `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID         string        `json:"booking_id,omitempty" bson:"booking_id"`
	ExternalID        string        `json:"external_id,omitempty" bson:"external_id,omitempty" validate:"omitempty,max=100"`
	Type              PassengerType `json:"type" bson:"type" validate:"required,oneof=adult child infant"`
	Title             string        `json:"title" bson:"title" validate:"required,oneof=mr mrs ms"`
	Gender            string        `json:"gender" bson:"gender" validate:"required,oneof=m f"`
	GivenName         string        `json:"given_name" bson:"given_name" validate:"required,min=1,max=100"`
	FamilyName        string        `json:"family_name" bson:"family_name" validate:"required,min=1,max=100"`
	BornOn            string        `json:"born_on" bson:"born_on" validate:"required,datetime=2006-01-02"`
	Nationality       string        `json:"nationality,omitempty" bson:"nationality,omitempty" validate:"omitempty,len=2,alpha"`
	Email             string        `json:"email" bson:"email" validate:"required,email"`
	Phone             string        `json:"phone_number" bson:"phone_number" validate:"required,e164"`
	InfantPassengerID string        `json:"infant_passenger_id,omitempty" bson:"infant_passenger_id,omitempty" validate:"omitempty,max=100"`
	CreatedAt         time.Time     `json:"created_at" bson:"created_at"`
}

// IdentityKey is the natural key of a passenger inside one booking.
func (p *Passenger) IdentityKey() string {
	return p.GivenName + "|" + p.FamilyName + "|" + p.BornOn
}
