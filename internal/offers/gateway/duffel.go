// Package gateway is the client for the Duffel flight offer API.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"yxplore/pkg/client"
	"yxplore/pkg/logger"
	"yxplore/pkg/model"
	"yxplore/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

const (
	tracerName        = "yxplore/offers/gateway"
	defaultCabinClass = "economy"
	dateLayout        = "2006-01-02"
	userAgent         = "YXplore-Flight-Module/1.0"
)

var ErrOfferNotFound = errors.New("offer not found")

// Config is everything the client needs; nothing is read from the environment.
type Config struct {
	BaseURL     string
	APIKey      string
	APIVersion  string
	LiveMode    bool
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	SearchLimit int
}

// APIError carries the first error message of a failed Duffel response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("duffel api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	http *client.HttpClient
	cfg  Config
	log  *logger.Logger
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("duffel base url is required")
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 50
	}

	log = log.Component("duffel")
	if cfg.APIKey == "" {
		log.Warn("Duffel API key is not configured", "live_mode", cfg.LiveMode)
	}

	hc := client.NewHttpClient(cfg.BaseURL, cfg.Timeout).
		WithHeader("Authorization", "Bearer "+cfg.APIKey).
		WithHeader("Duffel-Version", cfg.APIVersion).
		WithHeader("User-Agent", userAgent).
		WithRetries(cfg.MaxRetries, cfg.RetryDelay)

	log.Info("Duffel client initialized", "base_url", cfg.BaseURL, "live_mode", cfg.LiveMode)
	return &Client{http: hc, cfg: cfg, log: log}, nil
}

// SearchResult is the offer request created for a search and the raw offers
// returned for it.
type SearchResult struct {
	OfferRequest map[string]any
	Offers       []map[string]any
}

func (r *SearchResult) OfferRequestID() string {
	if r == nil || r.OfferRequest == nil {
		return ""
	}
	id, _ := r.OfferRequest["id"].(string)
	return id
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type offerRequestBody struct {
	Slices     []searchSlice     `json:"slices"`
	Passengers []searchPassenger `json:"passengers"`
	CabinClass string            `json:"cabin_class"`
}

type searchSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type searchPassenger struct {
	Type string `json:"type"`
}

func buildOfferRequest(s model.OfferSearch) offerRequestBody {
	body := offerRequestBody{
		Slices: []searchSlice{{
			Origin:        s.Origin,
			Destination:   s.Destination,
			DepartureDate: s.DepartureDate.Format(dateLayout),
		}},
		CabinClass: s.CabinClass,
	}
	if s.ReturnDate != nil {
		body.Slices = append(body.Slices, searchSlice{
			Origin:        s.Destination,
			Destination:   s.Origin,
			DepartureDate: s.ReturnDate.Format(dateLayout),
		})
	}
	if body.CabinClass == "" {
		body.CabinClass = defaultCabinClass
	}
	n := s.Passengers
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		body.Passengers = append(body.Passengers, searchPassenger{Type: "adult"})
	}
	return body
}

// SearchOffers creates an offer request and lists the offers attached to it.
func (c *Client) SearchOffers(ctx context.Context, search model.OfferSearch) (result *SearchResult, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "duffel.SearchOffers",
		attribute.String("origin", search.Origin),
		attribute.String("destination", search.Destination),
		attribute.Int("passengers", search.Passengers),
	)
	defer func() { tracing.End(span, err) }()

	resp, err := c.http.POST(ctx, "offer_requests", envelope[offerRequestBody]{Data: buildOfferRequest(search)})
	if err != nil {
		return nil, c.translate(err, "create offer request")
	}
	var created envelope[map[string]any]
	if err := resp.DecodeJSON(&created); err != nil {
		return nil, fmt.Errorf("failed to decode offer request: %w", err)
	}

	result = &SearchResult{OfferRequest: created.Data}
	requestID := result.OfferRequestID()
	if requestID == "" {
		return nil, errors.New("offer request response has no id")
	}

	query := url.Values{}
	query.Set("offer_request_id", requestID)
	query.Set("limit", strconv.Itoa(c.cfg.SearchLimit))
	resp, err = c.http.GET(ctx, "offers", query)
	if err != nil {
		return nil, c.translate(err, "list offers")
	}
	var listed envelope[[]map[string]any]
	if err := resp.DecodeJSON(&listed); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}
	result.Offers = listed.Data

	span.SetAttributes(attribute.Int("offers", len(result.Offers)))
	c.log.Info("Offers retrieved", "offer_request_id", requestID, "count", len(result.Offers))
	return result, nil
}

// GetOffer returns the raw offer document. Unknown or expired offers yield ErrOfferNotFound.
func (c *Client) GetOffer(ctx context.Context, offerID string) (offer map[string]any, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "duffel.GetOffer", attribute.String("offer_id", offerID))
	defer func() { tracing.End(span, err) }()

	if offerID == "" {
		return nil, ErrOfferNotFound
	}

	resp, err := c.http.GET(ctx, "offers/"+url.PathEscape(offerID), nil)
	if err != nil {
		return nil, c.translate(err, "get offer")
	}
	var got envelope[map[string]any]
	if err := resp.DecodeJSON(&got); err != nil {
		return nil, fmt.Errorf("failed to decode offer: %w", err)
	}
	if got.Data == nil {
		return nil, ErrOfferNotFound
	}
	return got.Data, nil
}

func (c *Client) translate(err error, op string) error {
	var statusErr *client.StatusError
	if !errors.As(err, &statusErr) {
		c.log.Error("Duffel request failed", "operation", op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if statusErr.StatusCode == http.StatusNotFound {
		return ErrOfferNotFound
	}

	apiErr := &APIError{StatusCode: statusErr.StatusCode, Message: firstErrorMessage(statusErr.Body)}
	c.log.Error("Duffel returned an error", "operation", op, "status", apiErr.StatusCode, "message", apiErr.Message)
	return apiErr
}

func firstErrorMessage(body []byte) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Errors) == 0 {
		return "no details"
	}
	return payload.Errors[0].Message
}
