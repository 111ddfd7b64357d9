package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	bookingserrors "yxplore/internal/bookings/errors"
	"yxplore/internal/bookings/repository"
	"yxplore/internal/bookings/validator"
	"yxplore/internal/offers/normalizer"
	"yxplore/pkg/config"
	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/events"
	"yxplore/pkg/model"
	"yxplore/pkg/sanitizer"
	"yxplore/pkg/tracing"
	"yxplore/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "yxplore/bookings"

const (
	GuardAgencyInactive         = "agency_inactive"
	GuardNoResponsibleMerchant  = "no_responsible_merchant"
	GuardMerchantNotResponsible = "merchant_not_responsible"
	GuardInvalidStateTransition = "invalid_state_transition"
	GuardNotCancellable         = "not_cancellable"
	GuardAlreadyPaid            = "already_paid"
	GuardAlreadyRefunded        = "already_refunded"
	GuardBookingCancelled       = "booking_cancelled"
	GuardBookingExpired         = "booking_expired"
	GuardPaymentNotPending      = "payment_not_pending"
	GuardNotExpirable           = "not_expirable"
	GuardPassengerCountMismatch = "passenger_count_mismatch"
)

// OfferSource returns the raw offer document for an offer id.
type OfferSource interface {
	Get(ctx context.Context, offerID string) (map[string]any, error)
}

// AgencyDirectory is the read-only view of agencies the engine needs.
type AgencyDirectory interface {
	GetByID(ctx context.Context, id string) (*model.Agency, error)
	ResponsibleMerchantIDs(ctx context.Context, agencyID string) ([]string, error)
}

type ClientDirectory interface {
	GetClient(ctx context.Context, id string) (*model.ClientProfile, error)
}

type BookingService interface {
	Create(ctx context.Context, draft *model.BookingDraft) (*model.Booking, error)
	CreateFromOffer(ctx context.Context, req *model.OfferBookingRequest) (*model.Booking, error)

	Confirm(ctx context.Context, id string) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	MarkPaid(ctx context.Context, id string) (*model.Booking, error)
	MarkPaymentFailed(ctx context.Context, id string) (*model.Booking, error)
	// ExpireStale moves open bookings with a lapsed offer to EXPIRED and
	// returns how many it moved.
	ExpireStale(ctx context.Context, now time.Time) (int, error)

	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByReference(ctx context.Context, reference string) (*model.Booking, error)
	ListByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByMerchant(ctx context.Context, merchantID string, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByAgency(ctx context.Context, agencyID string, limit int, offset int64) ([]*model.Booking, int64, error)
	GetPassengers(ctx context.Context, bookingID string) ([]*model.Passenger, error)
	GetDetail(ctx context.Context, bookingID string) (*model.BookingDetail, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	agencies     AgencyDirectory
	clients      ClientDirectory
	offers       OfferSource
	validator    *validator.BookingValidator
	events       events.Publisher
	cfg          *config.Config
	now          func() time.Time
	newReference func() (string, error)
}

func NewBookingService(
	repo repository.BookingRepository,
	agencies AgencyDirectory,
	clients ClientDirectory,
	offers OfferSource,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:         repo,
		agencies:     agencies,
		clients:      clients,
		offers:       offers,
		validator:    validator,
		events:       publisher,
		cfg:          cfg,
		now:          time.Now,
		newReference: GenerateReference,
	}
}

func (s *bookingService) Create(ctx context.Context, draft *model.BookingDraft) (booking *model.Booking, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "bookings.Create",
		attribute.String("offer_id", draft.OfferID),
		attribute.String("agency_id", draft.AgencyID),
	)
	defer func() { tracing.End(span, err) }()

	s.sanitizeDraft(draft)
	if err := s.validator.ValidateDraft(draft); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "offer_id", draft.OfferID, "error", err)
		return nil, validation.AppError("Booking validation failed", err)
	}

	if _, err := s.clients.GetClient(ctx, draft.ClientID); err != nil {
		return nil, err
	}
	merchantID, err := s.resolveMerchant(ctx, draft.AgencyID, draft.MerchantID)
	if err != nil {
		return nil, err
	}

	booking = s.newBooking(draft, merchantID)
	passengers := newPassengers(draft.Passengers)
	detail := &model.BookingDetail{RawOffer: draft.RawOffer}
	detail.ApplySummary(normalizer.ExtractDetail(draft.RawOffer))

	if err := s.insert(ctx, booking, passengers, detail); err != nil {
		s.logFailure("Failed to create booking", err, "offer_id", draft.OfferID, "client_id", draft.ClientID)
		return nil, err
	}

	span.SetAttributes(attribute.String("booking_id", booking.ID), attribute.String("reference", booking.Reference))
	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"reference", booking.Reference,
		"client_id", booking.ClientID,
		"merchant_id", booking.MerchantID,
		"total_amount", booking.TotalAmount.StringFixed(2),
		"currency", booking.Currency,
	)
	s.events.Publish(ctx, events.New(events.BookingCreated, booking.ID, map[string]any{
		"reference":    booking.Reference,
		"client_id":    booking.ClientID,
		"agency_id":    booking.AgencyID,
		"merchant_id":  booking.MerchantID,
		"total_amount": booking.TotalAmount.StringFixed(2),
		"currency":     booking.Currency,
	}))
	return booking, nil
}

// insert writes the booking with its passengers and detail in one
// transaction, drawing a fresh reference when the previous one collided.
func (s *bookingService) insert(ctx context.Context, booking *model.Booking, passengers []*model.Passenger, detail *model.BookingDetail) error {
	for attempt := 1; attempt <= s.cfg.ReferenceAttempts; attempt++ {
		reference, err := s.newReference()
		if err != nil {
			return apperrors.Internal("Failed to generate booking reference", err)
		}
		booking.ID = ""
		booking.Reference = reference

		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.repo.Create(sessCtx, booking); err != nil {
				return err
			}
			for _, p := range passengers {
				p.ID = ""
				p.BookingID = booking.ID
			}
			if err := s.repo.InsertPassengers(sessCtx, passengers); err != nil {
				if errors.Is(err, bookingserrors.ErrDuplicatePassenger) {
					return apperrors.Conflict("Passenger is listed twice on this booking")
				}
				return err
			}
			detail.ID = ""
			detail.BookingID = booking.ID
			return s.repo.InsertDetail(sessCtx, detail)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingserrors.ErrDuplicateReference) {
			if apperrors.IsAppError(err) {
				return err
			}
			return apperrors.Internal("Failed to create booking", err)
		}
		s.cfg.Log.Debug("Booking reference collision", "reference", reference, "attempt", attempt)
	}

	booking.ID = ""
	return apperrors.Internal("Failed to allocate a unique booking reference",
		fmt.Errorf("%w after %d attempts", bookingserrors.ErrDuplicateReference, s.cfg.ReferenceAttempts))
}

func (s *bookingService) CreateFromOffer(ctx context.Context, req *model.OfferBookingRequest) (booking *model.Booking, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "bookings.CreateFromOffer", attribute.String("offer_id", req.OfferID))
	defer func() { tracing.End(span, err) }()

	req.OfferID = sanitizer.SanitizeText(req.OfferID)
	s.sanitizePassengers(req.Passengers)
	if err := s.validator.ValidateOfferRequest(req); err != nil {
		s.cfg.Log.Warn("Offer booking validation failed", "offer_id", req.OfferID, "error", err)
		return nil, validation.AppError("Offer booking validation failed", err)
	}

	if _, err := s.clients.GetClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	raw, err := s.offers.Get(ctx, req.OfferID)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Failed to fetch offer", "offer_id", req.OfferID, "error", err)
		return nil, apperrors.Upstream("duffel", err)
	}

	draft, err := s.draftFromOffer(req, raw)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, draft)
}

func (s *bookingService) draftFromOffer(req *model.OfferBookingRequest, raw map[string]any) (*model.BookingDraft, error) {
	offer := normalizer.Normalize(raw)
	if offer == nil {
		s.cfg.Log.Warn("Offer could not be normalized", "offer_id", req.OfferID)
		return nil, offerUnavailable(req.OfferID, "offer document is malformed")
	}
	if offer.ExpiresAt != nil && !offer.ExpiresAt.After(s.now()) {
		return nil, offerUnavailable(req.OfferID, "offer has expired")
	}

	itinerary, err := normalizer.DeriveItinerary(offer)
	if err != nil {
		s.cfg.Log.Warn("Offer has no usable itinerary", "offer_id", req.OfferID, "error", err)
		return nil, offerUnavailable(req.OfferID, err.Error())
	}
	price, err := decimal.NewFromString(offer.TotalAmount)
	if err != nil {
		s.cfg.Log.Warn("Offer has no usable price", "offer_id", req.OfferID, "total_amount", offer.TotalAmount)
		return nil, offerUnavailable(req.OfferID, "offer has no total amount")
	}

	passengers := slices.Clone(req.Passengers)
	if n := len(offer.Passengers); n > 0 {
		if n != len(passengers) {
			return nil, apperrors.StateConflict(GuardPassengerCountMismatch,
				fmt.Sprintf("Offer is priced for %d passengers, got %d", n, len(passengers)),
				map[string]any{"offer_id": req.OfferID},
			)
		}
		for i := range passengers {
			if passengers[i].ExternalID == "" {
				passengers[i].ExternalID = offer.Passengers[i].ID
			}
		}
	}

	conditions := offer.Conditions
	return &model.BookingDraft{
		ClientID:       req.ClientID,
		AgencyID:       req.AgencyID,
		MerchantID:     req.MerchantID,
		OfferID:        offer.ID,
		Origin:         itinerary.Origin,
		Destination:    itinerary.Destination,
		DepartureDate:  itinerary.DepartureAt,
		ReturnDate:     itinerary.ReturnAt,
		Price:          price,
		Currency:       offer.TotalCurrency,
		Passengers:     passengers,
		LiveMode:       offer.LiveMode,
		OfferExpiresAt: offer.ExpiresAt,
		Conditions:     &conditions,
		RawOffer:       raw,
	}, nil
}

func offerUnavailable(offerID, reason string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeNotFound, "Offer invalid or expired", http.StatusNotFound).
		WithDetails(map[string]any{"offer_id": offerID, "reason": reason})
}

// resolveMerchant picks the owning merchant among the agency's active
// responsible merchants.
func (s *bookingService) resolveMerchant(ctx context.Context, agencyID, requested string) (string, error) {
	agency, err := s.agencies.GetByID(ctx, agencyID)
	if err != nil {
		return "", err
	}
	if !agency.IsActive {
		return "", apperrors.StateConflict(GuardAgencyInactive, "Agency is not active",
			map[string]any{"agency_id": agencyID})
	}

	responsible, err := s.agencies.ResponsibleMerchantIDs(ctx, agencyID)
	if err != nil {
		return "", err
	}
	if len(responsible) == 0 {
		s.cfg.Log.Warn("Agency has no responsible merchant", "agency_id", agencyID)
		return "", apperrors.StateConflict(GuardNoResponsibleMerchant, "Agency has no responsible merchant",
			map[string]any{"agency_id": agencyID})
	}
	if requested == "" {
		return responsible[0], nil
	}
	if !slices.Contains(responsible, requested) {
		return "", apperrors.StateConflict(GuardMerchantNotResponsible, "Merchant is not responsible for this agency",
			map[string]any{"agency_id": agencyID, "merchant_id": requested})
	}
	return requested, nil
}

func (s *bookingService) newBooking(d *model.BookingDraft, merchantID string) *model.Booking {
	rate := s.cfg.DefaultCommissionRate
	if d.CommissionRate != nil {
		rate = *d.CommissionRate
	}

	b := &model.Booking{
		UUID:           uuid.NewString(),
		ClientID:       d.ClientID,
		AgencyID:       d.AgencyID,
		MerchantID:     merchantID,
		OfferID:        d.OfferID,
		OfferRequestID: d.OfferRequestID,
		Origin:         d.Origin,
		Destination:    d.Destination,
		DepartureDate:  d.DepartureDate.UTC(),
		ReturnDate:     d.ReturnDate,
		PassengerCount: len(d.Passengers),
		Price:          d.Price,
		Currency:       d.Currency,
		CommissionRate: rate,
		Status:         model.StatusPending,
		PaymentStatus:  model.PaymentUnpaid,
		PassengerData:  passengerPayload(d.Passengers),
		LiveMode:       d.LiveMode,
		OfferExpiresAt: d.OfferExpiresAt,
		Conditions:     d.Conditions,
		IsActive:       true,
		Version:        1,
	}
	b.ApplyPricing()
	return b
}

func newPassengers(in []model.Passenger) []*model.Passenger {
	out := make([]*model.Passenger, 0, len(in))
	for i := range in {
		p := in[i]
		out = append(out, &p)
	}
	return out
}

// passengerPayload keeps the passenger list as submitted, in the shape the
// order API expects.
func passengerPayload(in []model.Passenger) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, p := range in {
		entry := map[string]any{
			"type":         p.Type,
			"title":        p.Title,
			"gender":       p.Gender,
			"given_name":   p.GivenName,
			"family_name":  p.FamilyName,
			"born_on":      p.BornOn,
			"email":        p.Email,
			"phone_number": p.Phone,
		}
		if p.ExternalID != "" {
			entry["id"] = p.ExternalID
		}
		if p.InfantPassengerID != "" {
			entry["infant_passenger_id"] = p.InfantPassengerID
		}
		out = append(out, entry)
	}
	return out
}

// --- Reads ---

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, id)
	}
	return booking, nil
}

func (s *bookingService) GetByReference(ctx context.Context, reference string) (*model.Booking, error) {
	reference = sanitizer.SanitizeText(reference)
	if !IsReference(reference) {
		return nil, apperrors.InvalidInput("Booking reference must be 8 characters from A-Z and 0-9")
	}
	booking, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, s.mapReadError(err, reference)
	}
	return booking, nil
}

func (s *bookingService) ListByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if clientID == "" {
		return nil, 0, apperrors.InvalidInput("Client ID cannot be empty")
	}
	return s.list(ctx, model.BookingFilter{ClientID: clientID}, limit, offset)
}

func (s *bookingService) ListByMerchant(ctx context.Context, merchantID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if merchantID == "" {
		return nil, 0, apperrors.InvalidInput("Merchant ID cannot be empty")
	}
	return s.list(ctx, model.BookingFilter{MerchantID: merchantID}, limit, offset)
}

func (s *bookingService) ListByAgency(ctx context.Context, agencyID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if agencyID == "" {
		return nil, 0, apperrors.InvalidInput("Agency ID cannot be empty")
	}
	return s.list(ctx, model.BookingFilter{AgencyID: agencyID}, limit, offset)
}

func (s *bookingService) list(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByFilter(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "filter", filter, "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByFilter(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings", "filter", filter, "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

func (s *bookingService) GetPassengers(ctx context.Context, bookingID string) ([]*model.Passenger, error) {
	if _, err := s.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	passengers, err := s.repo.FindPassengers(ctx, bookingID)
	if err != nil {
		s.cfg.Log.Error("Failed to load passengers", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve passengers", err)
	}
	return passengers, nil
}

func (s *bookingService) GetDetail(ctx context.Context, bookingID string) (*model.BookingDetail, error) {
	if _, err := s.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	detail, err := s.repo.FindDetail(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrDetailNotFound) {
			return nil, apperrors.NotFoundWithID("Booking detail", bookingID)
		}
		s.cfg.Log.Error("Failed to load booking detail", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking detail", err)
	}
	return detail, nil
}

// --- Helpers ---

func (s *bookingService) sanitizeDraft(d *model.BookingDraft) {
	d.OfferID = sanitizer.SanitizeText(d.OfferID)
	d.Origin = sanitizer.SanitizeCode(d.Origin)
	d.Destination = sanitizer.SanitizeCode(d.Destination)
	d.Currency = sanitizer.SanitizeCode(d.Currency)
	if d.Currency == "" {
		d.Currency = s.cfg.DefaultCurrency
	}
	s.sanitizePassengers(d.Passengers)
}

func (s *bookingService) sanitizePassengers(passengers []model.Passenger) {
	for i := range passengers {
		p := &passengers[i]
		p.Type = model.PassengerType(sanitizer.SanitizeLower(string(p.Type)))
		p.Title = sanitizer.SanitizeLower(p.Title)
		p.Gender = sanitizer.SanitizeLower(p.Gender)
		p.GivenName = sanitizer.SanitizeText(p.GivenName)
		p.FamilyName = sanitizer.SanitizeText(p.FamilyName)
		p.BornOn = sanitizer.SanitizeText(p.BornOn)
		p.Nationality = sanitizer.SanitizeCode(p.Nationality)
		p.Email = sanitizer.SanitizeEmail(p.Email)
		p.Phone = sanitizer.SanitizeOptionalPhone(p.Phone)
	}
}

func (s *bookingService) mapReadError(err error, key string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", key)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	s.cfg.Log.Error("Failed to load booking", "key", key, "error", err)
	return apperrors.Internal("Failed to retrieve booking", err)
}

func (s *bookingService) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if apperrors.HasCode(err, apperrors.CodeInternal) || apperrors.HasCode(err, apperrors.CodeUpstream) {
		s.cfg.Log.Error(msg, args...)
		return
	}
	s.cfg.Log.Warn(msg, args...)
}
