package service

import (
	"context"
	"errors"
	"time"

	kycerrors "yxplore/internal/kyc/errors"
	"yxplore/internal/kyc/repository"
	"yxplore/internal/kyc/validator"
	profileserrors "yxplore/internal/profiles/errors"
	"yxplore/pkg/config"
	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/events"
	"yxplore/pkg/model"
	"yxplore/pkg/sanitizer"
	"yxplore/pkg/tracing"
	"yxplore/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "yxplore/kyc"

const (
	GuardValidationClosed  = "validation_closed"
	GuardValidationPending = "validation_already_pending"
	GuardNotEligible       = "kyc_not_eligible"
	GuardDowngrade         = "kyc_downgrade"
)

// ProfileStore is the part of the profile registry the workflow reads and writes.
type ProfileStore interface {
	FindSubject(ctx context.Context, ref model.ProfileRef) (model.KycSubject, error)
	SaveSubject(ctx context.Context, subject model.KycSubject) error
	FindAdminByID(ctx context.Context, id string) (*model.AdminProfile, error)
}

type KycService interface {
	// SubmitKycData applies allow-listed fields and documents, then advances
	// the profile by at most one KYC level.
	SubmitKycData(ctx context.Context, ref model.ProfileRef, fields map[string]string, documents map[string]model.DocumentRef) (*model.KycProgress, error)
	GetProgress(ctx context.Context, ref model.ProfileRef) (*model.KycProgress, error)

	CreateValidation(ctx context.Context, ref model.ProfileRef, level model.KycLevel, adminID, notes string) (*model.KYCValidation, error)
	ApproveValidation(ctx context.Context, validationID, adminID, notes string) (*model.KYCValidation, error)
	RejectValidation(ctx context.Context, validationID, adminID, notes string) (*model.KYCValidation, error)

	GetValidation(ctx context.Context, id string) (*model.KYCValidation, error)
	ListPending(ctx context.Context, limit int, offset int64) ([]*model.KYCValidation, int64, error)
	ListForProfile(ctx context.Context, ref model.ProfileRef) ([]*model.KYCValidation, error)
}

type kycService struct {
	repo      repository.ValidationRepository
	profiles  ProfileStore
	validator *validator.KycValidator
	events    events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewKycService(
	repo repository.ValidationRepository,
	profiles ProfileStore,
	validator *validator.KycValidator,
	publisher events.Publisher,
	cfg *config.Config,
) KycService {
	return &kycService{
		repo:      repo,
		profiles:  profiles,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *kycService) SubmitKycData(
	ctx context.Context,
	ref model.ProfileRef,
	fields map[string]string,
	documents map[string]model.DocumentRef,
) (progress *model.KycProgress, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "kyc.SubmitKycData", attribute.String("profile", ref.String()))
	defer func() { tracing.End(span, err) }()

	if err := s.validator.ValidateRef(ref); err != nil {
		return nil, validation.AppError("Invalid profile reference", err)
	}
	fields = sanitizeFields(fields)
	documents = s.stampDocuments(documents)
	if err := s.validator.ValidateDocuments(documents); err != nil {
		s.cfg.Log.Warn("KYC documents rejected", "profile", ref.String(), "error", err)
		return nil, validation.AppError("KYC documents validation failed", err)
	}

	var previous model.KycStatus
	err = s.retry(ctx, "submit", func(ctx context.Context) error {
		subject, err := s.findSubject(ctx, ref)
		if err != nil {
			return err
		}
		previous = subject.KycState()

		if err := subject.ApplyKycFields(fields); err != nil {
			return validation.AppError("KYC data validation failed", validation.Field(model.FieldBirthDate, err.Error()))
		}
		subject.ApplyDocuments(documents)
		if err := s.validator.ValidateSubject(subject); err != nil {
			return validation.AppError("KYC data validation failed", err)
		}

		now := s.timestamp()
		if next, ok := nextStatus(subject); ok {
			subject.SetKycState(next, now)
		} else {
			subject.SetKycState(previous, now)
		}
		if err := s.profiles.SaveSubject(ctx, subject); err != nil {
			return err
		}

		p := model.ProgressOf(subject)
		progress = &p
		return nil
	})
	if err != nil {
		s.logFailure("KYC submission failed", err, "profile", ref.String())
		return nil, err
	}

	s.cfg.Log.Info("KYC data submitted",
		"profile", ref.String(),
		"kyc_status", progress.Status,
		"completion", progress.CompletionPercentage,
	)
	if progress.Status != previous {
		progress.PreviousStatus = previous
		s.publishStatusChange(ctx, ref, previous, progress.Status, "")
	}
	return progress, nil
}

// nextStatus moves a profile one level forward when it qualifies. Rejected
// and fully approved profiles only change through an admin decision.
func nextStatus(subject model.KycSubject) (model.KycStatus, bool) {
	switch subject.KycState() {
	case model.KycPending, "":
		if subject.EligibleFor(model.KycLevelOne) {
			return model.KycL1Approved, true
		}
	case model.KycL1Approved:
		if subject.EligibleFor(model.KycLevelTwo) {
			return model.KycL2Approved, true
		}
	}
	return "", false
}

func (s *kycService) GetProgress(ctx context.Context, ref model.ProfileRef) (*model.KycProgress, error) {
	if err := s.validator.ValidateRef(ref); err != nil {
		return nil, validation.AppError("Invalid profile reference", err)
	}
	subject, err := s.findSubject(ctx, ref)
	if err != nil {
		return nil, err
	}
	progress := model.ProgressOf(subject)
	return &progress, nil
}

func (s *kycService) CreateValidation(
	ctx context.Context,
	ref model.ProfileRef,
	level model.KycLevel,
	adminID, notes string,
) (v *model.KYCValidation, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "kyc.CreateValidation",
		attribute.String("profile", ref.String()),
		attribute.Int("level", int(level)),
	)
	defer func() { tracing.End(span, err) }()

	if err := s.validator.ValidateRef(ref); err != nil {
		return nil, validation.AppError("Invalid profile reference", err)
	}
	if err := s.validator.ValidateLevel(level); err != nil {
		return nil, validation.AppError("Invalid KYC level", err)
	}
	if err := s.validator.ValidateNotes(&notes, false); err != nil {
		return nil, validation.AppError("Invalid notes", err)
	}
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}

	if _, err := s.findSubject(ctx, ref); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByProfile(ctx, ref)
	if err != nil {
		s.cfg.Log.Error("Failed to list kyc validations", "profile", ref.String(), "error", err)
		return nil, apperrors.Internal("Failed to create KYC validation", err)
	}
	for _, e := range existing {
		if e.Level == level && e.CanBeModified() {
			return nil, apperrors.StateConflict(GuardValidationPending, "A validation at this level is already pending",
				map[string]any{"validation_id": e.ID, "level": level})
		}
	}

	v = &model.KYCValidation{
		Profile:     ref,
		Level:       level,
		Status:      model.ValidationPending,
		ValidatedBy: adminID,
		Notes:       notes,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		s.cfg.Log.Error("Failed to create kyc validation", "profile", ref.String(), "error", err)
		return nil, apperrors.Internal("Failed to create KYC validation", err)
	}

	s.cfg.Log.Info("KYC validation created", "id", v.ID, "profile", ref.String(), "level", level, "admin_id", adminID)
	s.events.Publish(ctx, events.New(events.KycValidationCreated, v.ID, map[string]any{
		"profile": ref,
		"level":   level,
	}))
	return v, nil
}

func (s *kycService) ApproveValidation(ctx context.Context, validationID, adminID, notes string) (*model.KYCValidation, error) {
	if err := s.validator.ValidateNotes(&notes, false); err != nil {
		return nil, validation.AppError("Invalid notes", err)
	}
	return s.decide(ctx, "approve", validationID, adminID, notes, func(v *model.KYCValidation, subject model.KycSubject) (model.KycStatus, error) {
		if !subject.EligibleFor(v.Level) {
			return "", apperrors.StateConflict(GuardNotEligible, "Profile does not meet the requirements of this level",
				map[string]any{"level": v.Level, "missing_fields": subject.MissingKycFields()})
		}
		target := v.Level.ApprovedStatus()
		if subject.KycState().Rank() > target.Rank() {
			return "", apperrors.StateConflict(GuardDowngrade, "Profile is already approved at a higher level",
				map[string]any{"level": v.Level, "kyc_status": subject.KycState()})
		}
		v.Status = model.ValidationApproved
		return target, nil
	})
}

// RejectValidation refuses a validation. Notes are mandatory and checked
// before anything is read.
func (s *kycService) RejectValidation(ctx context.Context, validationID, adminID, notes string) (*model.KYCValidation, error) {
	if err := s.validator.ValidateNotes(&notes, true); err != nil {
		s.cfg.Log.Warn("KYC rejection without notes", "validation_id", validationID)
		return nil, validation.AppError("Rejection notes are required", err)
	}
	return s.decide(ctx, "reject", validationID, adminID, notes, func(v *model.KYCValidation, _ model.KycSubject) (model.KycStatus, error) {
		v.Status = model.ValidationRejected
		return model.KycRejected, nil
	})
}

// decision closes a validation and names the profile status it grants.
type decision func(v *model.KYCValidation, subject model.KycSubject) (model.KycStatus, error)

// decide closes the validation and sets the profile status in one
// transaction, replaying it when either row changed underneath.
func (s *kycService) decide(ctx context.Context, op, validationID, adminID, notes string, apply decision) (v *model.KYCValidation, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "kyc."+op, attribute.String("validation_id", validationID))
	defer func() { tracing.End(span, err) }()

	if validationID == "" {
		return nil, apperrors.InvalidInput("Validation ID cannot be empty")
	}
	if err := s.authorize(ctx, adminID); err != nil {
		return nil, err
	}

	var previous, granted model.KycStatus
	err = s.retry(ctx, op, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			current, err := s.repo.FindByID(sessCtx, validationID)
			if err != nil {
				return s.mapReadError(err, validationID)
			}
			if !current.CanBeModified() {
				return apperrors.StateConflict(GuardValidationClosed, "Validation has already been decided",
					map[string]any{"validation_id": current.ID, "status": current.Status})
			}
			subject, err := s.findSubject(sessCtx, current.Profile)
			if err != nil {
				return err
			}
			previous = subject.KycState()

			granted, err = apply(current, subject)
			if err != nil {
				return err
			}
			now := s.timestamp()
			current.ValidatedBy = adminID
			current.DecidedAt = &now
			if notes != "" {
				current.Notes = notes
			}
			if err := s.repo.Save(sessCtx, current); err != nil {
				return err
			}
			subject.SetKycState(granted, now)
			if err := s.profiles.SaveSubject(sessCtx, subject); err != nil {
				return err
			}
			v = current
			return nil
		})
	})
	if err != nil {
		s.logFailure("KYC decision failed", err, "validation_id", validationID, "operation", op)
		return nil, err
	}

	eventType := events.KycValidationApproved
	if v.Status == model.ValidationRejected {
		eventType = events.KycValidationRejected
	}
	s.cfg.Log.Info("KYC validation decided",
		"id", v.ID,
		"profile", v.Profile.String(),
		"status", v.Status,
		"kyc_status", granted,
		"admin_id", adminID,
	)
	s.events.Publish(ctx, events.New(eventType, v.ID, map[string]any{
		"profile": v.Profile,
		"level":   v.Level,
		"status":  v.Status,
	}))
	if granted != previous {
		s.publishStatusChange(ctx, v.Profile, previous, granted, v.ID)
	}
	return v, nil
}

func (s *kycService) GetValidation(ctx context.Context, id string) (*model.KYCValidation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Validation ID cannot be empty")
	}
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, id)
	}
	return v, nil
}

func (s *kycService) ListPending(ctx context.Context, limit int, offset int64) ([]*model.KYCValidation, int64, error) {
	total, err := s.repo.CountPending(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count pending validations", "error", err)
		return nil, 0, apperrors.Internal("Failed to count KYC validations", err)
	}
	list, err := s.repo.FindPending(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list pending validations", "limit", limit, "offset", offset, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve KYC validations", err)
	}
	return list, total, nil
}

func (s *kycService) ListForProfile(ctx context.Context, ref model.ProfileRef) ([]*model.KYCValidation, error) {
	if err := s.validator.ValidateRef(ref); err != nil {
		return nil, validation.AppError("Invalid profile reference", err)
	}
	list, err := s.repo.FindByProfile(ctx, ref)
	if err != nil {
		s.cfg.Log.Error("Failed to list kyc validations", "profile", ref.String(), "error", err)
		return nil, apperrors.Internal("Failed to retrieve KYC validations", err)
	}
	return list, nil
}

// --- Helpers ---

// authorize requires an admin profile allowed to validate KYC.
func (s *kycService) authorize(ctx context.Context, adminID string) error {
	if adminID == "" {
		return apperrors.InvalidInput("Admin ID cannot be empty")
	}
	admin, err := s.profiles.FindAdminByID(ctx, adminID)
	if err != nil {
		switch {
		case errors.Is(err, profileserrors.ErrNotFound):
			return apperrors.Forbidden("Only KYC validators can review profiles")
		case errors.Is(err, profileserrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid admin ID format")
		}
		s.cfg.Log.Error("Failed to load admin profile", "admin_id", adminID, "error", err)
		return apperrors.Internal("Failed to load admin profile", err)
	}
	if !admin.CanValidateKyc {
		s.cfg.Log.Warn("Admin is not allowed to validate KYC", "admin_id", adminID)
		return apperrors.Forbidden("Only KYC validators can review profiles")
	}
	return nil
}

func (s *kycService) findSubject(ctx context.Context, ref model.ProfileRef) (model.KycSubject, error) {
	subject, err := s.profiles.FindSubject(ctx, ref)
	if err != nil {
		switch {
		case errors.Is(err, profileserrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Profile", ref.String())
		case errors.Is(err, profileserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid profile ID format")
		}
		s.cfg.Log.Error("Failed to load profile", "profile", ref.String(), "error", err)
		return nil, apperrors.Internal("Failed to load profile", err)
	}
	return subject, nil
}

// retry replays fn while it loses optimistic version checks.
func (s *kycService) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := s.cfg.MaxTransitionRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if !isVersionConflict(err) {
			if err != nil && !apperrors.IsAppError(err) {
				return apperrors.Internal("Failed to update KYC state", err)
			}
			return err
		}
		s.cfg.Log.Debug("KYC version conflict, retrying", "operation", op, "attempt", attempt)
	}
	return apperrors.Conflict("Profile is being modified concurrently, please retry")
}

func isVersionConflict(err error) bool {
	return errors.Is(err, profileserrors.ErrVersionConflict) || errors.Is(err, kycerrors.ErrVersionConflict)
}

func (s *kycService) mapReadError(err error, id string) error {
	switch {
	case errors.Is(err, kycerrors.ErrNotFound):
		return apperrors.NotFoundWithID("KYC validation", id)
	case errors.Is(err, kycerrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid validation ID format")
	}
	s.cfg.Log.Error("Failed to load kyc validation", "id", id, "error", err)
	return apperrors.Internal("Failed to retrieve KYC validation", err)
}

func (s *kycService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *kycService) stampDocuments(docs map[string]model.DocumentRef) map[string]model.DocumentRef {
	out := make(map[string]model.DocumentRef, len(docs))
	for slot, doc := range docs {
		doc.FileName = sanitizer.SanitizeText(doc.FileName)
		doc.StorageKey = sanitizer.SanitizeText(doc.StorageKey)
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = s.timestamp()
		}
		out[sanitizer.SanitizeLower(slot)] = doc
	}
	return out
}

func sanitizeFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for name, value := range fields {
		name = sanitizer.SanitizeLower(name)
		switch name {
		case model.FieldPhone, model.FieldContactPhone:
			out[name] = sanitizer.SanitizeOptionalPhone(value)
		case model.FieldContactEmail:
			out[name] = sanitizer.SanitizeEmail(value)
		default:
			out[name] = sanitizer.SanitizeText(value)
		}
	}
	return out
}

func (s *kycService) publishStatusChange(ctx context.Context, ref model.ProfileRef, from, to model.KycStatus, validationID string) {
	s.cfg.Log.Info("KYC status changed", "profile", ref.String(), "from", from, "to", to)
	s.events.Publish(ctx, events.New(events.KycStatusChanged, ref.String(), map[string]any{
		"from":          from,
		"to":            to,
		"validation_id": validationID,
	}))
}

func (s *kycService) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if apperrors.HasCode(err, apperrors.CodeInternal) {
		s.cfg.Log.Error(msg, args...)
		return
	}
	s.cfg.Log.Warn(msg, args...)
}
