package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"yxplore/internal/offers/gateway"
	"yxplore/internal/offers/normalizer"
	"yxplore/internal/offers/validator"
	"yxplore/pkg/cache"
	"yxplore/pkg/config"
	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/model"
	"yxplore/pkg/sanitizer"
	"yxplore/pkg/validation"
)

const offerKeyPrefix = "offer:"

// OfferGateway is the slice of the Duffel client the service depends on.
type OfferGateway interface {
	SearchOffers(ctx context.Context, search model.OfferSearch) (*gateway.SearchResult, error)
	GetOffer(ctx context.Context, offerID string) (map[string]any, error)
}

type OfferService interface {
	Search(ctx context.Context, search model.OfferSearch) (*model.OfferSearchResult, error)
	Get(ctx context.Context, offerID string) (map[string]any, error)
	GetNormalized(ctx context.Context, offerID string) (*model.NormalizedOffer, error)
}

type offerService struct {
	gateway   OfferGateway
	cache     cache.Cache
	validator *validator.OfferValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewOfferService(gw OfferGateway, c cache.Cache, v *validator.OfferValidator, cfg *config.Config) OfferService {
	return &offerService{
		gateway:   gw,
		cache:     c,
		validator: v,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ErrOfferUnavailable is returned for unknown, expired or unreadable offers.
func ErrOfferUnavailable(offerID string) *apperrors.AppError {
	return apperrors.New(apperrors.CodeNotFound, "Offer invalid or expired", http.StatusNotFound).
		WithDetails(map[string]any{"offer_id": offerID})
}

// Search never fails on the upstream side: a gateway error yields an empty
// result and is logged. Offers that cannot be normalized are dropped.
func (s *offerService) Search(ctx context.Context, search model.OfferSearch) (*model.OfferSearchResult, error) {
	s.sanitize(&search)
	if err := s.validator.ValidateSearch(&search); err != nil {
		s.cfg.Log.Warn("Offer search validation failed", "error", err)
		return nil, validation.AppError("Offer search validation failed", err)
	}

	result := &model.OfferSearchResult{Offers: []*model.NormalizedOffer{}}
	found, err := s.gateway.SearchOffers(ctx, search)
	if err != nil {
		s.cfg.Log.Error("Offer search failed upstream",
			"origin", search.Origin,
			"destination", search.Destination,
			"error", apperrors.Upstream("duffel", err),
		)
		return result, nil
	}

	result.OfferRequestID = found.OfferRequestID()
	for _, raw := range found.Offers {
		offer := normalizer.Normalize(raw)
		if offer == nil {
			s.cfg.Log.Warn("Dropping offer that could not be normalized", "offer_request_id", result.OfferRequestID)
			continue
		}
		s.store(ctx, offer.ID, raw, offer.ExpiresAt)
		result.Offers = append(result.Offers, offer)
	}

	s.cfg.Log.Info("Offer search completed",
		"origin", search.Origin,
		"destination", search.Destination,
		"offer_request_id", result.OfferRequestID,
		"count", len(result.Offers),
	)
	return result, nil
}

// Get returns the raw offer, from cache when possible.
func (s *offerService) Get(ctx context.Context, offerID string) (map[string]any, error) {
	if offerID == "" {
		return nil, apperrors.InvalidInput("Offer ID cannot be empty")
	}

	var raw map[string]any
	err := cache.GetJSON(ctx, s.cache, offerKeyPrefix+offerID, &raw)
	switch {
	case err == nil:
		if !s.expired(raw) {
			s.cfg.Log.Debug("Offer served from cache", "offer_id", offerID)
			return raw, nil
		}
	case !errors.Is(err, cache.ErrNotFound):
		s.cfg.Log.Warn("Offer cache read failed", "offer_id", offerID, "error", err)
	}

	raw, err = s.gateway.GetOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, gateway.ErrOfferNotFound) {
			s.cfg.Log.Warn("Offer not found upstream", "offer_id", offerID)
			return nil, ErrOfferUnavailable(offerID)
		}
		s.cfg.Log.Error("Failed to fetch offer", "offer_id", offerID, "error", err)
		return nil, apperrors.Upstream("duffel", err)
	}
	if s.expired(raw) {
		s.cfg.Log.Warn("Offer has expired", "offer_id", offerID)
		return nil, ErrOfferUnavailable(offerID)
	}

	if offer := normalizer.Normalize(raw); offer != nil {
		s.store(ctx, offerID, raw, offer.ExpiresAt)
	}
	return raw, nil
}

func (s *offerService) GetNormalized(ctx context.Context, offerID string) (*model.NormalizedOffer, error) {
	raw, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	offer := normalizer.Normalize(raw)
	if offer == nil {
		s.cfg.Log.Error("Offer could not be normalized", "offer_id", offerID)
		return nil, ErrOfferUnavailable(offerID)
	}
	return offer, nil
}

// store caches raw for the configured TTL, shortened to the offer's own expiry.
func (s *offerService) store(ctx context.Context, offerID string, raw map[string]any, expiresAt *time.Time) {
	ttl := s.cfg.OfferCacheTTL
	if expiresAt != nil {
		if left := expiresAt.Sub(s.now()); left < ttl {
			ttl = left
		}
	}
	if ttl <= 0 {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, offerKeyPrefix+offerID, raw, ttl); err != nil {
		s.cfg.Log.Warn("Offer cache write failed", "offer_id", offerID, "error", err)
	}
}

func (s *offerService) expired(raw map[string]any) bool {
	offer := normalizer.Normalize(raw)
	return offer != nil && offer.ExpiresAt != nil && !offer.ExpiresAt.After(s.now())
}

func (s *offerService) sanitize(search *model.OfferSearch) {
	search.Origin = sanitizer.SanitizeCode(search.Origin)
	search.Destination = sanitizer.SanitizeCode(search.Destination)
	search.CabinClass = sanitizer.SanitizeLower(search.CabinClass)
}
