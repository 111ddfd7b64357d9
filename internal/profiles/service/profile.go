package service

import (
	"context"
	"errors"
	"fmt"

	profileserrors "yxplore/internal/profiles/errors"
	"yxplore/internal/profiles/repository"
	"yxplore/internal/profiles/validator"
	"yxplore/pkg/config"
	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/events"
	"yxplore/pkg/model"
	"yxplore/pkg/sanitizer"
	"yxplore/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

const GuardConflictingProfile = "conflicting_profile"

type ProfileService interface {
	CreateClientProfile(ctx context.Context, p *model.ClientProfile) error
	CreateMerchantProfile(ctx context.Context, p *model.MerchantProfile) error
	CreateAdminProfile(ctx context.Context, p *model.AdminProfile) error

	GetClient(ctx context.Context, id string) (*model.ClientProfile, error)
	GetMerchant(ctx context.Context, id string) (*model.MerchantProfile, error)
	GetAdmin(ctx context.Context, id string) (*model.AdminProfile, error)
	GetAccount(ctx context.Context, userID string) (*model.UserAccount, error)

	// Resolve loads the client or merchant profile a reference names.
	Resolve(ctx context.Context, ref model.ProfileRef) (model.KycSubject, error)
}

type profileService struct {
	repo      repository.ProfileRepository
	validator *validator.ProfileValidator
	events    events.Publisher
	cfg       *config.Config
}

func NewProfileService(
	repo repository.ProfileRepository,
	validator *validator.ProfileValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ProfileService {
	return &profileService{
		repo:      repo,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
	}
}

func (s *profileService) CreateClientProfile(ctx context.Context, p *model.ClientProfile) error {
	p.ApplyDefaults()
	s.sanitizeClient(p)
	if err := s.validator.ValidateClient(p); err != nil {
		s.cfg.Log.Warn("Client profile validation failed", "user_id", p.UserID, "error", err)
		return validation.AppError("Client profile validation failed", err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkAccount(sessCtx, p.UserID, model.KindClient); err != nil {
			return err
		}
		if err := s.repo.InsertClient(sessCtx, p); err != nil {
			return s.mapCreateError(err, p.UserID, model.KindClient)
		}
		if err := s.repo.LinkProfile(sessCtx, p.UserID, p.Ref()); err != nil {
			return s.mapCreateError(err, p.UserID, model.KindClient)
		}
		return nil
	})
	if err != nil {
		s.logCreateFailure("client", p.UserID, err)
		return err
	}

	s.cfg.Log.Info("Client profile created", "id", p.ID, "user_id", p.UserID)
	s.events.Publish(ctx, events.New(events.ProfileCreated, p.Ref().String(), map[string]any{
		"user_id": p.UserID,
		"kind":    model.KindClient,
	}))
	return nil
}

func (s *profileService) CreateMerchantProfile(ctx context.Context, p *model.MerchantProfile) error {
	p.ApplyDefaults()
	s.sanitizeMerchant(p)
	if err := s.validator.ValidateMerchant(p); err != nil {
		s.cfg.Log.Warn("Merchant profile validation failed", "user_id", p.UserID, "error", err)
		return validation.AppError("Merchant profile validation failed", err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkAccount(sessCtx, p.UserID, model.KindMerchant); err != nil {
			return err
		}
		if err := s.repo.InsertMerchant(sessCtx, p); err != nil {
			return s.mapCreateError(err, p.UserID, model.KindMerchant)
		}
		if err := s.repo.LinkProfile(sessCtx, p.UserID, p.Ref()); err != nil {
			return s.mapCreateError(err, p.UserID, model.KindMerchant)
		}
		return nil
	})
	if err != nil {
		s.logCreateFailure("merchant", p.UserID, err)
		return err
	}

	s.cfg.Log.Info("Merchant profile created", "id", p.ID, "user_id", p.UserID)
	s.events.Publish(ctx, events.New(events.ProfileCreated, p.Ref().String(), map[string]any{
		"user_id": p.UserID,
		"kind":    model.KindMerchant,
	}))
	return nil
}

func (s *profileService) CreateAdminProfile(ctx context.Context, p *model.AdminProfile) error {
	p.ApplyDefaults()
	p.UserID = sanitizer.SanitizeText(p.UserID)
	p.Department = sanitizer.SanitizeText(p.Department)
	p.Phone = sanitizer.SanitizeOptionalPhone(p.Phone)
	if err := s.validator.ValidateAdmin(p); err != nil {
		s.cfg.Log.Warn("Admin profile validation failed", "user_id", p.UserID, "error", err)
		return validation.AppError("Admin profile validation failed", err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		account, err := s.findAccount(sessCtx, p.UserID)
		if err != nil {
			return err
		}
		if account.IsAdmin() {
			return apperrors.Conflict("User already has an admin profile")
		}
		if err := s.repo.InsertAdmin(sessCtx, p); err != nil {
			return s.mapCreateError(err, p.UserID, "")
		}
		if err := s.repo.LinkAdmin(sessCtx, p.UserID, p.ID); err != nil {
			return s.mapCreateError(err, p.UserID, "")
		}
		return nil
	})
	if err != nil {
		s.logCreateFailure("admin", p.UserID, err)
		return err
	}

	s.cfg.Log.Info("Admin profile created", "id", p.ID, "user_id", p.UserID, "admin_level", p.AdminLevel)
	return nil
}

func (s *profileService) GetClient(ctx context.Context, id string) (*model.ClientProfile, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Client profile ID cannot be empty")
	}
	p, err := s.repo.FindClientByID(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, "Client profile", id)
	}
	return p, nil
}

func (s *profileService) GetMerchant(ctx context.Context, id string) (*model.MerchantProfile, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Merchant profile ID cannot be empty")
	}
	p, err := s.repo.FindMerchantByID(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, "Merchant profile", id)
	}
	return p, nil
}

func (s *profileService) GetAdmin(ctx context.Context, id string) (*model.AdminProfile, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Admin profile ID cannot be empty")
	}
	p, err := s.repo.FindAdminByID(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, "Admin profile", id)
	}
	return p, nil
}

// GetAccount never fails for an unknown user: it returns an empty account
// whose role is none.
func (s *profileService) GetAccount(ctx context.Context, userID string) (*model.UserAccount, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	return s.findAccount(ctx, userID)
}

func (s *profileService) Resolve(ctx context.Context, ref model.ProfileRef) (model.KycSubject, error) {
	if _, ok := model.ParseProfileKind(string(ref.Kind)); !ok || ref.ID == "" {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid profile reference %s", ref))
	}
	subject, err := s.repo.FindSubject(ctx, ref)
	if err != nil {
		return nil, s.mapReadError(err, "Profile", ref.String())
	}
	return subject, nil
}

// --- Helpers ---

func (s *profileService) findAccount(ctx context.Context, userID string) (*model.UserAccount, error) {
	account, err := s.repo.FindAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, profileserrors.ErrAccountNotFound) {
			return &model.UserAccount{UserID: userID}, nil
		}
		return nil, apperrors.Internal("Failed to load user account", err)
	}
	return account, nil
}

// checkAccount rejects a profile the account cannot hold. The link written
// afterwards enforces the same rule at the storage level.
func (s *profileService) checkAccount(ctx context.Context, userID string, kind model.ProfileKind) error {
	account, err := s.findAccount(ctx, userID)
	if err != nil {
		return err
	}
	if !account.Admits(kind) {
		return conflictingProfile(userID, kind)
	}
	if ref, ok := account.ProfileRef(); ok && ref.Kind == kind {
		return apperrors.Conflict(fmt.Sprintf("User already has a %s profile", kind))
	}
	return nil
}

func conflictingProfile(userID string, kind model.ProfileKind) error {
	other := model.KindMerchant
	if kind == model.KindMerchant {
		other = model.KindClient
	}
	return apperrors.StateConflict(GuardConflictingProfile,
		fmt.Sprintf("User already holds a %s profile and cannot hold a %s profile", other, kind),
		map[string]any{"user_id": userID},
	)
}

func (s *profileService) mapCreateError(err error, userID string, kind model.ProfileKind) error {
	switch {
	case errors.Is(err, profileserrors.ErrConflictingProfile):
		return conflictingProfile(userID, kind)
	case errors.Is(err, profileserrors.ErrProfileExists):
		return apperrors.Conflict("Profile already exists for this user")
	}
	return apperrors.Internal("Failed to create profile", err)
}

func (s *profileService) mapReadError(err error, resource, id string) error {
	switch {
	case errors.Is(err, profileserrors.ErrNotFound):
		return apperrors.NotFoundWithID(resource, id)
	case errors.Is(err, profileserrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("Invalid %s ID format", resource))
	}
	s.cfg.Log.Error("Failed to load profile", "resource", resource, "id", id, "error", err)
	return apperrors.Internal("Failed to retrieve profile", err)
}

func (s *profileService) logCreateFailure(kind, userID string, err error) {
	if apperrors.HasCode(err, apperrors.CodeInternal) {
		s.cfg.Log.Error("Failed to create profile", "kind", kind, "user_id", userID, "error", err)
		return
	}
	s.cfg.Log.Warn("Profile creation rejected", "kind", kind, "user_id", userID, "error", err)
}

func (s *profileService) sanitizeClient(p *model.ClientProfile) {
	p.UserID = sanitizer.SanitizeText(p.UserID)
	p.FirstName = sanitizer.SanitizeText(p.FirstName)
	p.LastName = sanitizer.SanitizeText(p.LastName)
	p.Address = sanitizer.SanitizeText(p.Address)
	p.Nationality = sanitizer.SanitizeText(p.Nationality)
	p.PreferredLanguage = sanitizer.SanitizeLower(p.PreferredLanguage)
	p.Phone = sanitizer.SanitizeOptionalPhone(p.Phone)
}

func (s *profileService) sanitizeMerchant(p *model.MerchantProfile) {
	p.UserID = sanitizer.SanitizeText(p.UserID)
	p.CompanyName = sanitizer.SanitizeText(p.CompanyName)
	p.ContactPerson = sanitizer.SanitizeText(p.ContactPerson)
	p.ContactPhone = sanitizer.SanitizeOptionalPhone(p.ContactPhone)
	p.ContactEmail = sanitizer.SanitizeEmail(p.ContactEmail)
	p.CompanyAddress = sanitizer.SanitizeText(p.CompanyAddress)
	p.CompanyCity = sanitizer.SanitizeText(p.CompanyCity)
	p.CompanyCountry = sanitizer.SanitizeText(p.CompanyCountry)
	p.CompanyPostalCode = sanitizer.SanitizeText(p.CompanyPostalCode)
	p.BusinessType = sanitizer.SanitizeText(p.BusinessType)
	p.CompanyRegistration = sanitizer.SanitizeText(p.CompanyRegistration)
	p.TaxID = sanitizer.SanitizeText(p.TaxID)
}
