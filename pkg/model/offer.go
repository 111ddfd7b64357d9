package model

import "time"

const (
	UnknownAirline = "Unknown airline"
	UnknownAirport = "Unknown airport"
)

// NormalizedOffer is the flattened view of an upstream flight offer. Every
// optional field has a usable zero value.
type NormalizedOffer struct {
	ID                         string               `json:"id"`
	TotalAmount                string               `json:"total_amount"`
	TotalCurrency              string               `json:"total_currency"`
	BaseAmount                 string               `json:"base_amount,omitempty"`
	BaseCurrency               string               `json:"base_currency,omitempty"`
	TaxAmount                  string               `json:"tax_amount,omitempty"`
	TaxCurrency                string               `json:"tax_currency,omitempty"`
	TotalEmissionsKg           string               `json:"total_emissions_kg,omitempty"`
	Owner                      Carrier              `json:"owner"`
	Slices                     []OfferSlice         `json:"slices"`
	Conditions                 OfferConditions      `json:"conditions"`
	SliceChangeCondition       *ConditionRule       `json:"slice_change_condition,omitempty"`
	Payment                    *PaymentRequirements `json:"payment,omitempty"`
	Passengers                 []OfferPassenger     `json:"passengers"`
	IdentityDocumentsRequired  bool                 `json:"passenger_identity_documents_required"`
	SupportedIdentityDocuments []string             `json:"supported_passenger_identity_document_types"`
	LiveMode                   bool                 `json:"live_mode"`
	Partial                    bool                 `json:"partial"`
	CreatedAt                  *time.Time           `json:"created_at,omitempty"`
	ExpiresAt                  *time.Time           `json:"expires_at,omitempty"`
	Baggage                    []BaggageService     `json:"baggage"`
}

type Carrier struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	IATACode      string `json:"iata_code"`
	FlightNumber  string `json:"flight_number,omitempty"`
	LogoSymbolURL string `json:"logo_symbol_url,omitempty"`
	LogoLockupURL string `json:"logo_lockup_url,omitempty"`
}

type Airport struct {
	IATACode  string   `json:"iata_code"`
	Name      string   `json:"name"`
	CityName  string   `json:"city_name,omitempty"`
	Terminal  string   `json:"terminal,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	TimeZone  string   `json:"time_zone,omitempty"`
}

type OfferSlice struct {
	ID            string         `json:"id,omitempty"`
	FareBrandName string         `json:"fare_brand_name,omitempty"`
	Origin        Airport        `json:"origin"`
	Destination   Airport        `json:"destination"`
	Duration      string         `json:"duration,omitempty"`
	Stops         int            `json:"stops"`
	Segments      []OfferSegment `json:"segments"`
}

type OfferSegment struct {
	ID                  string     `json:"id,omitempty"`
	DepartingAt         *time.Time `json:"departing_at,omitempty"`
	ArrivingAt          *time.Time `json:"arriving_at,omitempty"`
	Duration            string     `json:"duration,omitempty"`
	Distance            string     `json:"distance,omitempty"`
	Origin              string     `json:"origin,omitempty"`
	Destination         string     `json:"destination,omitempty"`
	OperatingCarrier    Carrier    `json:"operating_carrier"`
	MarketingCarrier    Carrier    `json:"marketing_carrier"`
	OriginTerminal      string     `json:"origin_terminal,omitempty"`
	DestinationTerminal string     `json:"destination_terminal,omitempty"`
	Aircraft            string     `json:"aircraft,omitempty"`
	CabinClass          string     `json:"cabin_class,omitempty"`
	Stops               int        `json:"stops"`
}

// BaggageService is an extra bag the offer can sell. Weight and type come from
// the service metadata and may be empty.
type BaggageService struct {
	ID              string   `json:"id"`
	Type            string   `json:"type,omitempty"`
	MaximumWeightKg *float64 `json:"maximum_weight_kg,omitempty"`
	MaximumQuantity int      `json:"maximum_quantity"`
	TotalAmount     string   `json:"total_amount,omitempty"`
	TotalCurrency   string   `json:"total_currency,omitempty"`
	PassengerIDs    []string `json:"passenger_ids"`
	SegmentIDs      []string `json:"segment_ids"`
}

// ConditionRule describes whether an action is allowed and at what penalty.
type ConditionRule struct {
	Allowed         bool   `json:"allowed" bson:"allowed"`
	PenaltyAmount   string `json:"penalty_amount,omitempty" bson:"penalty_amount,omitempty"`
	PenaltyCurrency string `json:"penalty_currency,omitempty" bson:"penalty_currency,omitempty"`
}

type OfferConditions struct {
	RefundBeforeDeparture ConditionRule `json:"refund_before_departure" bson:"refund_before_departure"`
	ChangeBeforeDeparture ConditionRule `json:"change_before_departure" bson:"change_before_departure"`
}

func (c OfferConditions) Refundable() bool { return c.RefundBeforeDeparture.Allowed }
func (c OfferConditions) Changeable() bool { return c.ChangeBeforeDeparture.Allowed }

type PaymentRequirements struct {
	RequiresInstantPayment  bool       `json:"requires_instant_payment"`
	PriceGuaranteeExpiresAt *time.Time `json:"price_guarantee_expires_at,omitempty"`
	PaymentRequiredBy       *time.Time `json:"payment_required_by,omitempty"`
}

type OfferPassenger struct {
	ID         string `json:"id,omitempty"`
	Type       string `json:"type,omitempty"`
	Age        int    `json:"age,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	FareType   string `json:"fare_type,omitempty"`
}

// OfferSearch describes one round of flight search. A non-nil ReturnDate adds
// the inbound slice.
type OfferSearch struct {
	Origin        string     `json:"origin" validate:"required,iata"`
	Destination   string     `json:"destination" validate:"required,iata,nefield=Origin"`
	DepartureDate time.Time  `json:"departure_date" validate:"required"`
	ReturnDate    *time.Time `json:"return_date,omitempty" validate:"omitempty"`
	Passengers    int        `json:"passengers" validate:"min=1,max=9"`
	CabinClass    string     `json:"cabin_class" validate:"omitempty,oneof=economy premium_economy business first"`
}

type OfferSearchResult struct {
	OfferRequestID string             `json:"offer_request_id,omitempty"`
	Offers         []*NormalizedOffer `json:"offers"`
}
