package handler

import (
	"net/http"
	"time"

	"yxplore/internal/offers/service"
	apperrors "yxplore/pkg/errors"
	httputil "yxplore/pkg/http"
	"yxplore/pkg/logger"
	"yxplore/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const dateLayout = "2006-01-02"

type OfferHandler struct {
	service service.OfferService
	log     *logger.Logger
}

func NewOfferHandler(service service.OfferService, log *logger.Logger) *OfferHandler {
	return &OfferHandler{
		service: service,
		log:     log,
	}
}

type searchRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	Passengers    int    `json:"passengers"`
	CabinClass    string `json:"cabin_class,omitempty"`
}

func (req searchRequest) toSearch() (model.OfferSearch, error) {
	search := model.OfferSearch{
		Origin:      req.Origin,
		Destination: req.Destination,
		Passengers:  req.Passengers,
		CabinClass:  req.CabinClass,
	}
	if search.Passengers == 0 {
		search.Passengers = 1
	}

	departure, err := time.Parse(dateLayout, req.DepartureDate)
	if err != nil {
		return search, apperrors.InvalidInput("departure_date must be in YYYY-MM-DD format")
	}
	search.DepartureDate = departure

	if req.ReturnDate != "" {
		ret, err := time.Parse(dateLayout, req.ReturnDate)
		if err != nil {
			return search, apperrors.InvalidInput("return_date must be in YYYY-MM-DD format")
		}
		search.ReturnDate = &ret
	}
	return search, nil
}

func (h *OfferHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req searchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Search", err)
		return
	}
	search, err := req.toSearch()
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	result, err := h.service.Search(r.Context(), search)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

// GetByID returns the normalized offer, or the upstream document with ?raw=true.
func (h *OfferHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var (
		data any
		err  error
	)
	if r.URL.Query().Get("raw") == "true" {
		data, err = h.service.Get(r.Context(), id)
	} else {
		data, err = h.service.GetNormalized(r.Context(), id)
	}
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *OfferHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *OfferHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/offers/search", h.Search)
	router.GET("/api/v1/offers/:id", h.GetByID)
}
