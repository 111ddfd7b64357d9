package model

import "time"

// BookingDetail holds the raw itinerary snapshot for a booking together with
// the summary extracted from it.
type BookingDetail struct {
	ID            string         `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID     string         `json:"booking_id" bson:"booking_id"`
	RawOffer      map[string]any `json:"raw_offer,omitempty" bson:"raw_offer,omitempty"`
	RawOrder      map[string]any `json:"raw_order,omitempty" bson:"raw_order,omitempty"`
	FareBrandName string         `json:"fare_brand_name,omitempty" bson:"fare_brand_name,omitempty"`
	CabinClass    string         `json:"cabin_class,omitempty" bson:"cabin_class,omitempty"`
	Origin        string         `json:"origin,omitempty" bson:"origin,omitempty"`
	Destination   string         `json:"destination,omitempty" bson:"destination,omitempty"`
	DepartureAt   *time.Time     `json:"departure_at,omitempty" bson:"departure_at,omitempty"`
	ArrivalAt     *time.Time     `json:"arrival_at,omitempty" bson:"arrival_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

// DetailSummary is the part of a BookingDetail derived from the raw payload.
type DetailSummary struct {
	FareBrandName string
	CabinClass    string
	Origin        string
	Destination   string
	DepartureAt   *time.Time
	ArrivalAt     *time.Time
}

func (d *BookingDetail) ApplySummary(s DetailSummary) {
	d.FareBrandName = s.FareBrandName
	d.CabinClass = s.CabinClass
	d.Origin = s.Origin
	d.Destination = s.Destination
	d.DepartureAt = s.DepartureAt
	d.ArrivalAt = s.ArrivalAt
}
