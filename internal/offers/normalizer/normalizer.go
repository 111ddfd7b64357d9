// Package normalizer turns raw flight offer documents into model.NormalizedOffer.
// It never fails on missing or malformed parts: each section falls back to its
// default, and only a document without an id is rejected.
package normalizer

import (
	"fmt"
	"time"

	"yxplore/pkg/model"
)

// Normalize returns nil when raw is not an object or has no id.
func Normalize(raw any) (offer *model.NormalizedOffer) {
	doc, ok := raw.(map[string]any)
	if !ok || doc == nil {
		return nil
	}
	id := text(doc, "id")
	if id == "" {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			offer = nil
		}
	}()

	offer = &model.NormalizedOffer{
		ID:                         id,
		Conditions:                 model.OfferConditions{},
		Slices:                     []model.OfferSlice{},
		Passengers:                 []model.OfferPassenger{},
		SupportedIdentityDocuments: []string{},
		Baggage:                    []model.BaggageService{},
	}

	section(func() { amounts(offer, doc) })
	section(func() { offer.Owner = owner(object(doc, "owner")) })
	section(func() { offer.Slices = slices(doc) })
	section(func() { offer.Conditions = conditions(object(doc, "conditions")) })
	section(func() { offer.SliceChangeCondition = sliceChangeCondition(doc) })
	section(func() { offer.Payment = payment(object(doc, "payment_requirements")) })
	section(func() { offer.Passengers = passengers(doc) })
	section(func() { offer.Baggage = baggage(doc) })
	section(func() {
		offer.IdentityDocumentsRequired = flag(doc, "passenger_identity_documents_required")
		offer.SupportedIdentityDocuments = stringList(doc, "supported_passenger_identity_document_types")
		offer.LiveMode = flag(doc, "live_mode")
		offer.Partial = flag(doc, "partial")
		offer.CreatedAt = timestamp(doc, "created_at")
		offer.ExpiresAt = timestamp(doc, "expires_at")
	})

	return offer
}

// section runs one extraction and swallows a panic so the rest of the offer
// still gets built.
func section(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

func amounts(o *model.NormalizedOffer, doc map[string]any) {
	o.TotalAmount = text(doc, "total_amount")
	o.TotalCurrency = text(doc, "total_currency")
	o.BaseAmount = text(doc, "base_amount")
	o.BaseCurrency = text(doc, "base_currency")
	o.TaxAmount = text(doc, "tax_amount")
	o.TaxCurrency = text(doc, "tax_currency")
	o.TotalEmissionsKg = text(doc, "total_emissions_kg")
}

func owner(m map[string]any) model.Carrier {
	return model.Carrier{
		ID:            text(m, "id"),
		Name:          textOr(m, "name", model.UnknownAirline),
		IATACode:      text(m, "iata_code"),
		LogoSymbolURL: text(m, "logo_symbol_url"),
		LogoLockupURL: text(m, "logo_lockup_url"),
	}
}

// carrier builds a segment carrier. Unlike the owner it has no fallback name.
func carrier(m map[string]any, flightNumber string) model.Carrier {
	return model.Carrier{
		ID:            text(m, "id"),
		Name:          text(m, "name"),
		IATACode:      text(m, "iata_code"),
		FlightNumber:  flightNumber,
		LogoSymbolURL: text(m, "logo_symbol_url"),
		LogoLockupURL: text(m, "logo_lockup_url"),
	}
}

func airport(m map[string]any, terminal string) model.Airport {
	return model.Airport{
		IATACode:  text(m, "iata_code"),
		Name:      textOr(m, "name", model.UnknownAirport),
		CityName:  text(m, "city_name"),
		Terminal:  terminal,
		Latitude:  number(m, "latitude"),
		Longitude: number(m, "longitude"),
		TimeZone:  text(m, "time_zone"),
	}
}

func slices(doc map[string]any) []model.OfferSlice {
	out := []model.OfferSlice{}
	for _, s := range objects(doc, "slices") {
		segs := objects(s, "segments")
		if len(segs) == 0 {
			continue
		}
		first := segs[0]
		slice := model.OfferSlice{
			ID:            text(s, "id"),
			FareBrandName: text(s, "fare_brand_name"),
			Origin:        airport(object(first, "origin"), text(first, "origin_terminal")),
			Destination:   airport(object(first, "destination"), text(first, "destination_terminal")),
			Duration:      text(s, "duration"),
			Stops:         len(segs) - 1,
			Segments:      make([]model.OfferSegment, 0, len(segs)),
		}
		for _, seg := range segs {
			slice.Segments = append(slice.Segments, segment(seg))
		}
		out = append(out, slice)
	}
	return out
}

func segment(m map[string]any) model.OfferSegment {
	seg := model.OfferSegment{
		ID:                  text(m, "id"),
		DepartingAt:         timestamp(m, "departing_at"),
		ArrivingAt:          timestamp(m, "arriving_at"),
		Duration:            text(m, "duration"),
		Distance:            text(m, "distance"),
		Origin:              text(object(m, "origin"), "iata_code"),
		Destination:         text(object(m, "destination"), "iata_code"),
		OperatingCarrier:    carrier(object(m, "operating_carrier"), text(m, "operating_carrier_flight_number")),
		MarketingCarrier:    carrier(object(m, "marketing_carrier"), text(m, "marketing_carrier_flight_number")),
		OriginTerminal:      text(m, "origin_terminal"),
		DestinationTerminal: text(m, "destination_terminal"),
		Stops:               len(list(m, "stops")),
	}
	section(func() { seg.Aircraft = aircraft(m) })
	section(func() { seg.CabinClass = cabinClass(m) })
	return seg
}

func aircraft(m map[string]any) string {
	if a := object(m, "aircraft"); a != nil {
		return text(a, "name")
	}
	return text(m, "aircraft")
}

func cabinClass(seg map[string]any) string {
	pax := objects(seg, "passengers")
	if len(pax) == 0 {
		return ""
	}
	return text(pax[0], "cabin_class")
}

// rule reads an allowed/penalty block. A missing block means not allowed.
func rule(m map[string]any) model.ConditionRule {
	if m == nil {
		return model.ConditionRule{}
	}
	return model.ConditionRule{
		Allowed:         flag(m, "allowed"),
		PenaltyAmount:   text(m, "penalty_amount"),
		PenaltyCurrency: text(m, "penalty_currency"),
	}
}

func conditions(m map[string]any) model.OfferConditions {
	return model.OfferConditions{
		RefundBeforeDeparture: rule(object(m, "refund_before_departure")),
		ChangeBeforeDeparture: rule(object(m, "change_before_departure")),
	}
}

// sliceChangeCondition surfaces the last slice that allows a change before
// departure.
func sliceChangeCondition(doc map[string]any) *model.ConditionRule {
	var found *model.ConditionRule
	for _, s := range objects(doc, "slices") {
		r := rule(object(object(s, "conditions"), "change_before_departure"))
		if r.Allowed {
			found = &r
		}
	}
	return found
}

func payment(m map[string]any) *model.PaymentRequirements {
	if len(m) == 0 {
		return nil
	}
	return &model.PaymentRequirements{
		RequiresInstantPayment:  flag(m, "requires_instant_payment"),
		PriceGuaranteeExpiresAt: timestamp(m, "price_guarantee_expires_at"),
		PaymentRequiredBy:       timestamp(m, "payment_required_by"),
	}
}

func passengers(doc map[string]any) []model.OfferPassenger {
	out := []model.OfferPassenger{}
	for _, p := range objects(doc, "passengers") {
		out = append(out, model.OfferPassenger{
			ID:         text(p, "id"),
			Type:       text(p, "type"),
			Age:        integer(p, "age"),
			GivenName:  text(p, "given_name"),
			FamilyName: text(p, "family_name"),
			FareType:   text(p, "fare_type"),
		})
	}
	return out
}

// baggage collects the bag services from available_services. Other service
// types are skipped.
func baggage(doc map[string]any) []model.BaggageService {
	out := []model.BaggageService{}
	for _, svc := range objects(doc, "available_services") {
		if text(svc, "type") != "baggage" {
			continue
		}
		meta := object(svc, "metadata")
		out = append(out, model.BaggageService{
			ID:              text(svc, "id"),
			Type:            text(meta, "type"),
			MaximumWeightKg: number(meta, "maximum_weight_kg"),
			MaximumQuantity: integer(svc, "maximum_quantity"),
			TotalAmount:     text(svc, "total_amount"),
			TotalCurrency:   text(svc, "total_currency"),
			PassengerIDs:    stringList(svc, "passenger_ids"),
			SegmentIDs:      stringList(svc, "segment_ids"),
		})
	}
	return out
}

// ExtractDetail summarizes an offer or order payload for a BookingDetail.
// Missing keys leave the matching summary field empty.
func ExtractDetail(raw map[string]any) (summary model.DetailSummary) {
	defer func() {
		if r := recover(); r != nil {
			summary = model.DetailSummary{}
		}
	}()

	all := objects(raw, "slices")
	if len(all) == 0 {
		return summary
	}
	first := all[0]
	segs := objects(first, "segments")
	if len(segs) == 0 {
		return summary
	}

	summary.FareBrandName = text(first, "fare_brand_name")
	summary.Origin = text(object(segs[0], "origin"), "iata_code")
	summary.Destination = text(object(segs[len(segs)-1], "destination"), "iata_code")
	summary.DepartureAt = timestamp(segs[0], "departing_at")
	summary.CabinClass = cabinClass(segs[0])

	for i := len(all) - 1; i >= 0; i-- {
		if last := objects(all[i], "segments"); len(last) > 0 {
			summary.ArrivalAt = timestamp(last[len(last)-1], "arriving_at")
			break
		}
	}
	return summary
}

// ItineraryError explains why an offer cannot back a booking.
type ItineraryError struct {
	OfferID string
	Reason  string
}

func (e *ItineraryError) Error() string {
	return fmt.Sprintf("offer %s: %s", e.OfferID, e.Reason)
}

// Itinerary is the outline of a trip as a booking records it.
type Itinerary struct {
	Origin      string
	Destination string
	DepartureAt time.Time
	ReturnAt    *time.Time
}

// DeriveItinerary takes origin and departure from the first segment of the
// first slice, the destination from its last segment and, for multi-slice
// offers, the return from the last slice.
func DeriveItinerary(o *model.NormalizedOffer) (Itinerary, error) {
	if o == nil {
		return Itinerary{}, &ItineraryError{Reason: "offer is empty"}
	}
	if len(o.Slices) == 0 || len(o.Slices[0].Segments) == 0 {
		return Itinerary{}, &ItineraryError{OfferID: o.ID, Reason: "offer has no flight segments"}
	}
	first := o.Slices[0]
	dep := first.Segments[0].DepartingAt
	if dep == nil {
		return Itinerary{}, &ItineraryError{OfferID: o.ID, Reason: "first segment has no departure time"}
	}
	destination := first.Segments[len(first.Segments)-1].Destination
	if destination == "" {
		destination = first.Destination.IATACode
	}
	if first.Origin.IATACode == "" || destination == "" {
		return Itinerary{}, &ItineraryError{OfferID: o.ID, Reason: "first slice has no airports"}
	}

	it := Itinerary{
		Origin:      first.Origin.IATACode,
		Destination: destination,
		DepartureAt: *dep,
	}
	if len(o.Slices) > 1 {
		last := o.Slices[len(o.Slices)-1]
		if len(last.Segments) > 0 {
			it.ReturnAt = last.Segments[0].DepartingAt
		}
	}
	return it, nil
}
