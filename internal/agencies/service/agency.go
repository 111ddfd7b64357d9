package service

import (
	"context"
	"errors"
	"fmt"

	agencieserrors "yxplore/internal/agencies/errors"
	"yxplore/internal/agencies/repository"
	"yxplore/internal/agencies/validator"
	profileserrors "yxplore/internal/profiles/errors"
	"yxplore/pkg/config"
	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/events"
	"yxplore/pkg/model"
	"yxplore/pkg/sanitizer"
	"yxplore/pkg/validation"

	"github.com/google/uuid"
)

// MerchantLookup is the slice of the profile registry the directory reads.
type MerchantLookup interface {
	FindMerchantByID(ctx context.Context, id string) (*model.MerchantProfile, error)
}

type AgencyService interface {
	Create(ctx context.Context, agency *model.Agency) error
	GetByID(ctx context.Context, id string) (*model.Agency, error)
	GetByUUID(ctx context.Context, uuid string) (*model.Agency, error)
	ListActive(ctx context.Context, limit int, offset int64) ([]*model.Agency, int64, error)
	ListForMerchant(ctx context.Context, merchantID string) ([]*model.Agency, error)
	Deactivate(ctx context.Context, id string) error

	// DefaultAgency returns the oldest active agency, creating one from
	// configuration when none exists.
	DefaultAgency(ctx context.Context) (*model.Agency, error)

	AssignMerchant(ctx context.Context, a *model.MerchantAssignment) error
	RemoveAssignment(ctx context.Context, merchantID, agencyID string) error
	ResponsibleMerchantIDs(ctx context.Context, agencyID string) ([]string, error)
}

type agencyService struct {
	repo      repository.AgencyRepository
	merchants MerchantLookup
	validator *validator.AgencyValidator
	events    events.Publisher
	cfg       *config.Config
}

func NewAgencyService(
	repo repository.AgencyRepository,
	merchants MerchantLookup,
	validator *validator.AgencyValidator,
	publisher events.Publisher,
	cfg *config.Config,
) AgencyService {
	return &agencyService{
		repo:      repo,
		merchants: merchants,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
	}
}

func (s *agencyService) Create(ctx context.Context, agency *model.Agency) error {
	s.sanitize(agency)
	agency.Phone = sanitizer.SanitizeOptionalPhone(agency.Phone)
	return s.create(ctx, agency)
}

func (s *agencyService) create(ctx context.Context, agency *model.Agency) error {
	agency.ID = ""
	agency.UUID = uuid.NewString()
	agency.IsActive = true

	if err := s.validator.ValidateAgency(agency); err != nil {
		s.cfg.Log.Warn("Agency validation failed", "name", agency.Name, "error", err)
		return validation.AppError("Agency validation failed", err)
	}

	if err := s.repo.Create(ctx, agency); err != nil {
		if errors.Is(err, agencieserrors.ErrDuplicateAgency) {
			s.cfg.Log.Warn("Duplicate agency", "name", agency.Name, "iata_code", agency.IATACode)
			return apperrors.Conflict("An agency with this IATA code already exists")
		}
		s.cfg.Log.Error("Failed to create agency", "name", agency.Name, "error", err)
		return apperrors.Internal("Failed to create agency", err)
	}

	s.cfg.Log.Info("Agency created", "id", agency.ID, "uuid", agency.UUID, "name", agency.Name)
	return nil
}

func (s *agencyService) GetByID(ctx context.Context, id string) (*model.Agency, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Agency ID cannot be empty")
	}
	agency, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, id)
	}
	return agency, nil
}

func (s *agencyService) GetByUUID(ctx context.Context, id string) (*model.Agency, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.InvalidInput("Invalid agency UUID format")
	}
	agency, err := s.repo.FindByUUID(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, id)
	}
	return agency, nil
}

func (s *agencyService) ListActive(ctx context.Context, limit int, offset int64) ([]*model.Agency, int64, error) {
	agencies, err := s.repo.FindActive(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list agencies", "error", err)
		return nil, 0, apperrors.Internal("Failed to list agencies", err)
	}
	total, err := s.repo.CountActive(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count agencies", "error", err)
		return nil, 0, apperrors.Internal("Failed to count agencies", err)
	}
	return agencies, total, nil
}

func (s *agencyService) ListForMerchant(ctx context.Context, merchantID string) ([]*model.Agency, error) {
	if merchantID == "" {
		return nil, apperrors.InvalidInput("Merchant ID cannot be empty")
	}
	assignments, err := s.repo.FindAssignmentsByMerchant(ctx, merchantID)
	if err != nil {
		s.cfg.Log.Error("Failed to load assignments", "merchant_id", merchantID, "error", err)
		return nil, apperrors.Internal("Failed to load merchant agencies", err)
	}

	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.AgencyID)
	}
	agencies, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Error("Failed to load agencies", "merchant_id", merchantID, "error", err)
		return nil, apperrors.Internal("Failed to load merchant agencies", err)
	}
	return agencies, nil
}

func (s *agencyService) Deactivate(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Agency ID cannot be empty")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return s.mapReadError(err, id)
	}

	s.cfg.Log.Info("Agency deactivated", "id", id)
	s.events.Publish(ctx, events.New(events.AgencyDeactivated, id, nil))
	return nil
}

func (s *agencyService) DefaultAgency(ctx context.Context) (*model.Agency, error) {
	agency, err := s.repo.FindFirstActive(ctx)
	if err == nil {
		return agency, nil
	}
	if !errors.Is(err, agencieserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to load default agency", "error", err)
		return nil, apperrors.Internal("Failed to load default agency", err)
	}

	agency = &model.Agency{
		Name:     s.cfg.DefaultAgencyName,
		Country:  s.cfg.DefaultAgencyCountry,
		City:     s.cfg.DefaultAgencyCity,
		Address:  s.cfg.DefaultAgencyAddress,
		IATACode: s.cfg.DefaultAgencyIATA,
		Phone:    s.cfg.DefaultAgencyPhone,
		Email:    s.cfg.DefaultAgencyEmail,
	}
	s.sanitize(agency)
	agency.Phone = sanitizer.SanitizePhone(agency.Phone)

	if err := s.create(ctx, agency); err != nil {
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			return nil, err
		}
		// Created concurrently by another caller.
		existing, findErr := s.repo.FindFirstActive(ctx)
		if findErr != nil {
			return nil, apperrors.Internal("Failed to load default agency", findErr)
		}
		return existing, nil
	}

	s.cfg.Log.Info("Default agency bootstrapped", "id", agency.ID, "name", agency.Name)
	return agency, nil
}

func (s *agencyService) AssignMerchant(ctx context.Context, a *model.MerchantAssignment) error {
	if a.Role == "" {
		a.Role = model.RoleAgent
	}
	a.Role = model.AssignmentRole(sanitizer.SanitizeCode(string(a.Role)))
	if err := s.validator.ValidateAssignment(a); err != nil {
		s.cfg.Log.Warn("Assignment validation failed", "merchant_id", a.MerchantID, "agency_id", a.AgencyID, "error", err)
		return validation.AppError("Assignment validation failed", err)
	}

	merchant, err := s.merchants.FindMerchantByID(ctx, a.MerchantID)
	if err != nil {
		if errors.Is(err, profileserrors.ErrNotFound) || errors.Is(err, profileserrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Merchant profile", a.MerchantID)
		}
		s.cfg.Log.Error("Failed to load merchant", "merchant_id", a.MerchantID, "error", err)
		return apperrors.Internal("Failed to load merchant", err)
	}
	if !merchant.IsActive {
		s.cfg.Log.Warn("Assignment of inactive merchant rejected", "merchant_id", a.MerchantID)
		return apperrors.StateConflict("merchant_inactive", "Merchant is not active",
			map[string]any{"merchant_id": a.MerchantID})
	}

	agency, err := s.GetByID(ctx, a.AgencyID)
	if err != nil {
		return err
	}
	if !agency.IsActive {
		s.cfg.Log.Warn("Assignment to inactive agency rejected", "agency_id", a.AgencyID)
		return apperrors.StateConflict("agency_inactive", "Agency is not active",
			map[string]any{"agency_id": a.AgencyID})
	}

	if err := s.repo.UpsertAssignment(ctx, a); err != nil {
		s.cfg.Log.Error("Failed to assign merchant", "merchant_id", a.MerchantID, "agency_id", a.AgencyID, "error", err)
		return apperrors.Internal("Failed to assign merchant", err)
	}

	s.cfg.Log.Info("Merchant assigned", "merchant_id", a.MerchantID, "agency_id", a.AgencyID,
		"role", a.Role, "is_responsible", a.IsResponsible)
	s.events.Publish(ctx, events.New(events.MerchantAssigned, a.AgencyID, map[string]any{
		"merchant_id":    a.MerchantID,
		"role":           a.Role,
		"is_responsible": a.IsResponsible,
	}))
	return nil
}

func (s *agencyService) RemoveAssignment(ctx context.Context, merchantID, agencyID string) error {
	if merchantID == "" || agencyID == "" {
		return apperrors.InvalidInput("Merchant ID and agency ID are required")
	}
	if err := s.repo.DeactivateAssignment(ctx, merchantID, agencyID); err != nil {
		if errors.Is(err, agencieserrors.ErrAssignmentNotFound) {
			return apperrors.NotFound("Merchant assignment")
		}
		s.cfg.Log.Error("Failed to remove assignment", "merchant_id", merchantID, "agency_id", agencyID, "error", err)
		return apperrors.Internal("Failed to remove assignment", err)
	}

	s.cfg.Log.Info("Merchant unassigned", "merchant_id", merchantID, "agency_id", agencyID)
	s.events.Publish(ctx, events.New(events.MerchantUnassigned, agencyID, map[string]any{
		"merchant_id": merchantID,
	}))
	return nil
}

func (s *agencyService) ResponsibleMerchantIDs(ctx context.Context, agencyID string) ([]string, error) {
	if agencyID == "" {
		return nil, apperrors.InvalidInput("Agency ID cannot be empty")
	}
	ids, err := s.repo.FindResponsibleMerchantIDs(ctx, agencyID)
	if err != nil {
		s.cfg.Log.Error("Failed to load responsible merchants", "agency_id", agencyID, "error", err)
		return nil, apperrors.Internal("Failed to load responsible merchants", err)
	}
	return ids, nil
}

// --- Helpers ---

func (s *agencyService) sanitize(a *model.Agency) {
	a.Name = sanitizer.SanitizeText(a.Name)
	a.Country = sanitizer.SanitizeText(a.Country)
	a.City = sanitizer.SanitizeText(a.City)
	a.Address = sanitizer.SanitizeText(a.Address)
	a.IATACode = sanitizer.SanitizeCode(a.IATACode)
	a.Email = sanitizer.SanitizeEmail(a.Email)
}

func (s *agencyService) mapReadError(err error, id string) error {
	switch {
	case errors.Is(err, agencieserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Agency", id)
	case errors.Is(err, agencieserrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid agency ID format: %s", id))
	}
	s.cfg.Log.Error("Failed to load agency", "id", id, "error", err)
	return apperrors.Internal("Failed to retrieve agency", err)
}
