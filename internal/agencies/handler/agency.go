package handler

import (
	"net/http"

	"yxplore/internal/agencies/service"
	httputil "yxplore/pkg/http"
	"yxplore/pkg/logger"
	"yxplore/pkg/model"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

const defaultAgencyKey = "default"

type AgencyHandler struct {
	service service.AgencyService
	log     *logger.Logger
}

func NewAgencyHandler(service service.AgencyService, log *logger.Logger) *AgencyHandler {
	return &AgencyHandler{
		service: service,
		log:     log,
	}
}

func (h *AgencyHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var agency model.Agency
	if err := httputil.DecodeJSON(r, &agency); err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if err := h.service.Create(r.Context(), &agency); err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if err := httputil.WriteCreated(w, agency); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

// Get resolves the id segment as "default", an agency UUID or an ObjectID.
func (h *AgencyHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var (
		agency *model.Agency
		err    error
	)
	switch {
	case id == defaultAgencyKey:
		agency, err = h.service.DefaultAgency(r.Context())
	case uuid.Validate(id) == nil:
		agency, err = h.service.GetByUUID(r.Context(), id)
	default:
		agency, err = h.service.GetByID(r.Context(), id)
	}
	h.respond(w, "Get", agency, err)
}

func (h *AgencyHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	agencies, total, err := h.service.ListActive(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	if err := httputil.WritePaginated(w, agencies, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *AgencyHandler) Deactivate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Deactivate(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Deactivate", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *AgencyHandler) ListResponsibleMerchants(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ids, err := h.service.ResponsibleMerchantIDs(r.Context(), ps.ByName("id"))
	h.respond(w, "ListResponsibleMerchants", ids, err)
}

func (h *AgencyHandler) AssignMerchant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var a model.MerchantAssignment
	if err := httputil.DecodeJSON(r, &a); err != nil {
		h.writeError(w, "AssignMerchant", err)
		return
	}
	a.AgencyID = ps.ByName("id")
	if err := h.service.AssignMerchant(r.Context(), &a); err != nil {
		h.writeError(w, "AssignMerchant", err)
		return
	}
	h.respond(w, "AssignMerchant", a, nil)
}

func (h *AgencyHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.RemoveAssignment(r.Context(), ps.ByName("merchantId"), ps.ByName("id")); err != nil {
		h.writeError(w, "RemoveAssignment", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *AgencyHandler) ListForMerchant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	agencies, err := h.service.ListForMerchant(r.Context(), ps.ByName("id"))
	h.respond(w, "ListForMerchant", agencies, err)
}

func (h *AgencyHandler) respond(w http.ResponseWriter, handler string, data any, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *AgencyHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AgencyHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/agencies", h.Create)
	router.GET("/api/v1/agencies", h.List)
	router.GET("/api/v1/agencies/:id", h.Get)
	router.POST("/api/v1/agencies/:id/deactivate", h.Deactivate)
	router.GET("/api/v1/agencies/:id/merchants", h.ListResponsibleMerchants)
	router.PUT("/api/v1/agencies/:id/merchants", h.AssignMerchant)
	router.DELETE("/api/v1/agencies/:id/merchants/:merchantId", h.RemoveAssignment)
	router.GET("/api/v1/merchants/:id/agencies", h.ListForMerchant)
}
