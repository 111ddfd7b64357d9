package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusExpired   BookingStatus = "EXPIRED"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentFailed   PaymentStatus = "FAILED"
)

const (
	ReferenceLength   = 8
	ReferenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	MinPassengers = 1
	MaxPassengers = 9
)

var hundred = decimal.NewFromInt(100)

type Booking struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty"`
	UUID      string `json:"uuid" bson:"uuid"`
	Reference string `json:"booking_reference" bson:"reference"`

	ClientID   string `json:"client_id" bson:"client_id"`
	AgencyID   string `json:"agency_id" bson:"agency_id"`
	MerchantID string `json:"merchant_id" bson:"merchant_id"`

	OfferID         string `json:"offer_id" bson:"offer_id"`
	OrderID         string `json:"order_id,omitempty" bson:"order_id,omitempty"`
	OfferRequestID  string `json:"offer_request_id,omitempty" bson:"offer_request_id,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty" bson:"payment_intent_id,omitempty"`

	Origin         string     `json:"origin" bson:"origin"`
	Destination    string     `json:"destination" bson:"destination"`
	DepartureDate  time.Time  `json:"departure_date" bson:"departure_date"`
	ReturnDate     *time.Time `json:"return_date,omitempty" bson:"return_date,omitempty"`
	PassengerCount int        `json:"passenger_count" bson:"passenger_count"`

	Price            decimal.Decimal `json:"price" bson:"price"`
	Currency         string          `json:"currency" bson:"currency"`
	CommissionRate   decimal.Decimal `json:"commission_rate" bson:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount" bson:"commission_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount" bson:"total_amount"`

	Status        BookingStatus `json:"status" bson:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" bson:"payment_status"`

	PassengerData []map[string]any `json:"passenger_data,omitempty" bson:"passenger_data,omitempty"`
	OrderData     map[string]any   `json:"order_data,omitempty" bson:"order_data,omitempty"`

	LiveMode       bool             `json:"live_mode" bson:"live_mode"`
	OfferExpiresAt *time.Time       `json:"offer_expires_at,omitempty" bson:"offer_expires_at,omitempty"`
	Conditions     *OfferConditions `json:"conditions,omitempty" bson:"conditions,omitempty"`
	IsActive       bool             `json:"is_active" bson:"is_active"`

	Version     int64      `json:"version" bson:"version"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty" bson:"expired_at,omitempty"`
}

// CalculateCommission returns price * rate / 100 rounded half away from zero to cents.
func CalculateCommission(price, rate decimal.Decimal) decimal.Decimal {
	return price.Mul(rate).Div(hundred).Round(2)
}

func (b *Booking) CalculateCommission() decimal.Decimal {
	return CalculateCommission(b.Price, b.CommissionRate)
}

func (b *Booking) TotalWithCommission() decimal.Decimal {
	return b.Price.Add(b.CalculateCommission())
}

// ApplyPricing recomputes the derived money fields from price and rate.
func (b *Booking) ApplyPricing() {
	b.CommissionAmount = b.CalculateCommission()
	b.TotalAmount = b.Price.Add(b.CommissionAmount)
}

func (b *Booking) IsCancellable() bool {
	return b.Status == StatusPending && b.PaymentStatus == PaymentUnpaid
}

func (b *Booking) IsRefundable() bool {
	return b.Status == StatusConfirmed && b.PaymentStatus == PaymentPaid
}

// IsExpirable reports whether the offer behind a still-open booking has lapsed at now.
func (b *Booking) IsExpirable(now time.Time) bool {
	return b.Status == StatusPending &&
		b.PaymentStatus == PaymentUnpaid &&
		b.OfferExpiresAt != nil &&
		b.OfferExpiresAt.Before(now)
}

// BookingDraft carries everything needed to open a booking once the offer
// has been resolved.
type BookingDraft struct {
	ClientID       string           `json:"client_id" validate:"required,mongodb"`
	AgencyID       string           `json:"agency_id" validate:"required,mongodb"`
	MerchantID     string           `json:"merchant_id,omitempty" validate:"omitempty,mongodb"`
	OfferID        string           `json:"offer_id" validate:"required,max=100"`
	OfferRequestID string           `json:"offer_request_id,omitempty" validate:"omitempty,max=100"`
	Origin         string           `json:"origin" validate:"required,iata"`
	Destination    string           `json:"destination" validate:"required,iata,nefield=Origin"`
	DepartureDate  time.Time        `json:"departure_date" validate:"required"`
	ReturnDate     *time.Time       `json:"return_date,omitempty" validate:"omitempty"`
	Price          decimal.Decimal  `json:"price" validate:"gte=0"`
	Currency       string           `json:"currency" validate:"required,iso4217"`
	CommissionRate *decimal.Decimal `json:"commission_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Passengers     []Passenger      `json:"passengers" validate:"required,min=1,max=9,dive"`
	LiveMode       bool             `json:"live_mode"`
	OfferExpiresAt *time.Time       `json:"offer_expires_at,omitempty"`
	Conditions     *OfferConditions `json:"conditions,omitempty"`
	RawOffer       map[string]any   `json:"-"`
}

// OfferBookingRequest opens a booking from an offer id; the itinerary and
// price come from the offer itself.
type OfferBookingRequest struct {
	ClientID   string      `json:"client_id" validate:"required,mongodb"`
	AgencyID   string      `json:"agency_id" validate:"required,mongodb"`
	MerchantID string      `json:"merchant_id,omitempty" validate:"omitempty,mongodb"`
	OfferID    string      `json:"offer_id" validate:"required,max=100"`
	Passengers []Passenger `json:"passengers" validate:"required,min=1,max=9,dive"`
}

type BookingFilter struct {
	ClientID   string
	MerchantID string
	AgencyID   string
	Status     BookingStatus
}
