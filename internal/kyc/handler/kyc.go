package handler

import (
	"net/http"

	"yxplore/internal/kyc/service"
	apperrors "yxplore/pkg/errors"
	httputil "yxplore/pkg/http"
	"yxplore/pkg/logger"
	"yxplore/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type KycHandler struct {
	service service.KycService
	log     *logger.Logger
}

func NewKycHandler(service service.KycService, log *logger.Logger) *KycHandler {
	return &KycHandler{
		service: service,
		log:     log,
	}
}

type submitRequest struct {
	Fields    map[string]string            `json:"fields"`
	Documents map[string]model.DocumentRef `json:"documents"`
}

type createValidationRequest struct {
	Profile model.ProfileRef `json:"profile"`
	Level   model.KycLevel   `json:"level"`
	AdminID string           `json:"admin_id"`
	Notes   string           `json:"notes"`
}

type decisionRequest struct {
	AdminID string `json:"admin_id"`
	Notes   string `json:"notes"`
}

func (h *KycHandler) Submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ref, err := profileRef(ps)
	if err != nil {
		h.writeError(w, "Submit", err)
		return
	}
	var req submitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Submit", err)
		return
	}
	progress, err := h.service.SubmitKycData(r.Context(), ref, req.Fields, req.Documents)
	h.respond(w, "Submit", progress, err)
}

func (h *KycHandler) GetProgress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ref, err := profileRef(ps)
	if err != nil {
		h.writeError(w, "GetProgress", err)
		return
	}
	progress, err := h.service.GetProgress(r.Context(), ref)
	h.respond(w, "GetProgress", progress, err)
}

func (h *KycHandler) ListForProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ref, err := profileRef(ps)
	if err != nil {
		h.writeError(w, "ListForProfile", err)
		return
	}
	validations, err := h.service.ListForProfile(r.Context(), ref)
	h.respond(w, "ListForProfile", validations, err)
}

func (h *KycHandler) CreateValidation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createValidationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CreateValidation", err)
		return
	}
	v, err := h.service.CreateValidation(r.Context(), req.Profile, req.Level, req.AdminID, req.Notes)
	if err != nil {
		h.writeError(w, "CreateValidation", err)
		return
	}
	if err := httputil.WriteCreated(w, v); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateValidation", "operation", "WriteCreated", "error", err)
	}
}

func (h *KycHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req decisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Approve", err)
		return
	}
	v, err := h.service.ApproveValidation(r.Context(), ps.ByName("id"), req.AdminID, req.Notes)
	h.respond(w, "Approve", v, err)
}

func (h *KycHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req decisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reject", err)
		return
	}
	v, err := h.service.RejectValidation(r.Context(), ps.ByName("id"), req.AdminID, req.Notes)
	h.respond(w, "Reject", v, err)
}

func (h *KycHandler) GetValidation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	v, err := h.service.GetValidation(r.Context(), ps.ByName("id"))
	h.respond(w, "GetValidation", v, err)
}

func (h *KycHandler) ListPending(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListPending", err)
		return
	}
	validations, total, err := h.service.ListPending(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "ListPending", err)
		return
	}
	if err := httputil.WritePaginated(w, validations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListPending", "operation", "WritePaginated", "error", err)
	}
}

func profileRef(ps httprouter.Params) (model.ProfileRef, error) {
	kind, ok := model.ParseProfileKind(ps.ByName("kind"))
	if !ok {
		return model.ProfileRef{}, apperrors.InvalidInput("Profile kind must be client or merchant")
	}
	return model.ProfileRef{Kind: kind, ID: ps.ByName("id")}, nil
}

func (h *KycHandler) respond(w http.ResponseWriter, handler string, data any, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *KycHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *KycHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/kyc/profiles/:kind/:id", h.GetProgress)
	router.POST("/api/v1/kyc/profiles/:kind/:id/submit", h.Submit)
	router.GET("/api/v1/kyc/profiles/:kind/:id/validations", h.ListForProfile)
	router.POST("/api/v1/kyc/validations", h.CreateValidation)
	router.GET("/api/v1/kyc/validations", h.ListPending)
	router.GET("/api/v1/kyc/validations/id/:id", h.GetValidation)
	router.POST("/api/v1/kyc/validations/id/:id/approve", h.Approve)
	router.POST("/api/v1/kyc/validations/id/:id/reject", h.Reject)
}
