package handler

import (
	"net/http"

	"yxplore/internal/bookings/service"
	apperrors "yxplore/pkg/errors"
	httputil "yxplore/pkg/http"
	"yxplore/pkg/logger"
	"yxplore/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var draft model.BookingDraft
	if err := httputil.DecodeJSON(r, &draft); err != nil {
		h.writeError(w, "Create", err)
		return
	}
	booking, err := h.service.Create(r.Context(), &draft)
	h.created(w, "Create", booking, err)
}

func (h *BookingHandler) CreateFromOffer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.OfferBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CreateFromOffer", err)
		return
	}
	booking, err := h.service.CreateFromOffer(r.Context(), &req)
	h.created(w, "CreateFromOffer", booking, err)
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	h.respond(w, "GetByID", booking, err)
}

func (h *BookingHandler) GetByReference(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByReference(r.Context(), ps.ByName("reference"))
	h.respond(w, "GetByReference", booking, err)
}

// List requires exactly one of client_id, merchant_id or agency_id.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	query := r.URL.Query()
	clientID, merchantID, agencyID := query.Get("client_id"), query.Get("merchant_id"), query.Get("agency_id")

	var (
		bookings []*model.Booking
		total    int64
	)
	switch {
	case clientID != "" && merchantID == "" && agencyID == "":
		bookings, total, err = h.service.ListByClient(r.Context(), clientID, limit, offset)
	case merchantID != "" && clientID == "" && agencyID == "":
		bookings, total, err = h.service.ListByMerchant(r.Context(), merchantID, limit, offset)
	case agencyID != "" && clientID == "" && merchantID == "":
		bookings, total, err = h.service.ListByAgency(r.Context(), agencyID, limit, offset)
	default:
		err = apperrors.InvalidInput("Exactly one of client_id, merchant_id or agency_id is required")
	}
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Confirm(r.Context(), ps.ByName("id"))
	h.respond(w, "Confirm", booking, err)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"))
	h.respond(w, "Cancel", booking, err)
}

func (h *BookingHandler) MarkPaid(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.MarkPaid(r.Context(), ps.ByName("id"))
	h.respond(w, "MarkPaid", booking, err)
}

func (h *BookingHandler) MarkPaymentFailed(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.MarkPaymentFailed(r.Context(), ps.ByName("id"))
	h.respond(w, "MarkPaymentFailed", booking, err)
}

func (h *BookingHandler) GetPassengers(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	passengers, err := h.service.GetPassengers(r.Context(), ps.ByName("id"))
	h.respond(w, "GetPassengers", passengers, err)
}

func (h *BookingHandler) GetDetail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	detail, err := h.service.GetDetail(r.Context(), ps.ByName("id"))
	h.respond(w, "GetDetail", detail, err)
}

func (h *BookingHandler) created(w http.ResponseWriter, handler string, booking *model.Booking, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", handler, "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) respond(w http.ResponseWriter, handler string, data any, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.POST("/api/v1/bookings/offer", h.CreateFromOffer)
	router.GET("/api/v1/bookings", h.List)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.GET("/api/v1/bookings/reference/:reference", h.GetByReference)
	router.POST("/api/v1/bookings/id/:id/confirm", h.Confirm)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/pay", h.MarkPaid)
	router.POST("/api/v1/bookings/id/:id/payment-failed", h.MarkPaymentFailed)
	router.GET("/api/v1/bookings/id/:id/passengers", h.GetPassengers)
	router.GET("/api/v1/bookings/id/:id/detail", h.GetDetail)
}
