package handler

import (
	"net/http"

	"yxplore/internal/profiles/service"
	httputil "yxplore/pkg/http"
	"yxplore/pkg/logger"
	"yxplore/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ProfileHandler struct {
	service service.ProfileService
	log     *logger.Logger
}

func NewProfileHandler(service service.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		log:     log,
	}
}

type accountResponse struct {
	*model.UserAccount
	Role model.UserRole `json:"role"`
}

func (h *ProfileHandler) CreateClient(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p model.ClientProfile
	if !h.decodeOwned(w, r, "CreateClient", &p, &p.UserID) {
		return
	}
	if err := h.service.CreateClientProfile(r.Context(), &p); err != nil {
		h.writeError(w, "CreateClient", err)
		return
	}
	h.writeCreated(w, "CreateClient", p)
}

func (h *ProfileHandler) CreateMerchant(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p model.MerchantProfile
	if !h.decodeOwned(w, r, "CreateMerchant", &p, &p.UserID) {
		return
	}
	if err := h.service.CreateMerchantProfile(r.Context(), &p); err != nil {
		h.writeError(w, "CreateMerchant", err)
		return
	}
	h.writeCreated(w, "CreateMerchant", p)
}

func (h *ProfileHandler) CreateAdmin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p model.AdminProfile
	if !h.decodeOwned(w, r, "CreateAdmin", &p, &p.UserID) {
		return
	}
	if err := h.service.CreateAdminProfile(r.Context(), &p); err != nil {
		h.writeError(w, "CreateAdmin", err)
		return
	}
	h.writeCreated(w, "CreateAdmin", p)
}

func (h *ProfileHandler) GetClient(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := h.service.GetClient(r.Context(), ps.ByName("id"))
	h.respond(w, "GetClient", p, err)
}

func (h *ProfileHandler) GetMerchant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := h.service.GetMerchant(r.Context(), ps.ByName("id"))
	h.respond(w, "GetMerchant", p, err)
}

func (h *ProfileHandler) GetAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := h.service.GetAdmin(r.Context(), ps.ByName("id"))
	h.respond(w, "GetAdmin", p, err)
}

// GetMyAccount resolves the caller's account and role from the X-User-ID header.
func (h *ProfileHandler) GetMyAccount(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, err := httputil.UserID(r)
	if err != nil {
		h.writeError(w, "GetMyAccount", err)
		return
	}
	account, err := h.service.GetAccount(r.Context(), userID)
	if err != nil {
		h.writeError(w, "GetMyAccount", err)
		return
	}
	h.respond(w, "GetMyAccount", accountResponse{UserAccount: account, Role: account.Role()}, nil)
}

// decodeOwned decodes the body and forces the owner to the calling user.
func (h *ProfileHandler) decodeOwned(w http.ResponseWriter, r *http.Request, handler string, dst any, owner *string) bool {
	userID, err := httputil.UserID(r)
	if err != nil {
		h.writeError(w, handler, err)
		return false
	}
	if err := httputil.DecodeJSON(r, dst); err != nil {
		h.writeError(w, handler, err)
		return false
	}
	*owner = userID
	return true
}

func (h *ProfileHandler) respond(w http.ResponseWriter, handler string, data any, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProfileHandler) writeCreated(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteCreated(w, data); err != nil {
		h.log.Error("failed to write created response", "handler", handler, "operation", "WriteCreated", "error", err)
	}
}

func (h *ProfileHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ProfileHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/profiles/clients", h.CreateClient)
	router.GET("/api/v1/profiles/clients/:id", h.GetClient)
	router.POST("/api/v1/profiles/merchants", h.CreateMerchant)
	router.GET("/api/v1/profiles/merchants/:id", h.GetMerchant)
	router.POST("/api/v1/profiles/admins", h.CreateAdmin)
	router.GET("/api/v1/profiles/admins/:id", h.GetAdmin)
	router.GET("/api/v1/accounts/me", h.GetMyAccount)
}
