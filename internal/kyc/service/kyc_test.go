package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"yxplore/internal/kyc/validator"
	"yxplore/pkg/config"
	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/events"
	"yxplore/pkg/logger"
	"yxplore/pkg/model"
)

type testEnv struct {
	svc    *kycService
	store  *memoryStore
	events *events.Recorder
	admin  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Log:                  logger.Discard(),
		MaxTransitionRetries: config.DefaultMaxTransitionRetries,
	}
	env := &testEnv{store: newMemoryStore(), events: &events.Recorder{}}
	env.admin = env.store.addAdmin(model.AdminProfile{UserID: "admin-1", AdminLevel: model.AdminStandard, CanValidateKyc: true})
	env.svc = NewKycService(env.store, env.store, validator.NewKycValidator(cfg.Log), env.events, cfg).(*kycService)
	env.svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return env
}

var identityDoc = map[string]model.DocumentRef{
	model.DocIdentityDocument: {FileName: "passport.pdf", StorageKey: "kyc/c1/passport.pdf"},
}

func clientLevelOneFields() map[string]string {
	return map[string]string{
		model.FieldLastName:    "Dupont",
		model.FieldFirstName:   "Jean",
		model.FieldPhone:       "06 12 34 56 78",
		model.FieldBirthDate:   "1985-04-12",
		model.FieldNationality: "France",
	}
}

func TestSubmitKycData_ClientAdvancesOneLevelPerCall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.store.addClient(model.ClientProfile{UserID: "u1"})
	ref := model.ClientRef(id)

	fields := clientLevelOneFields()
	fields[model.FieldAddress] = "12 rue de la Paix, Paris"

	progress, err := env.svc.SubmitKycData(ctx, ref, fields, identityDoc)
	if err != nil {
		t.Fatalf("SubmitKycData: %v", err)
	}
	if progress.Status != model.KycL1Approved || progress.PreviousStatus != model.KycPending {
		t.Fatalf("expected PENDING -> KYC1_APPROVED, got %s -> %s", progress.PreviousStatus, progress.Status)
	}
	if progress.CompletionPercentage != 100 || len(progress.MissingFields) != 0 {
		t.Errorf("expected a complete profile, got %d%% missing %v", progress.CompletionPercentage, progress.MissingFields)
	}
	stored := env.store.client(id)
	if stored.Phone != "+33612345678" || stored.IdentityDocument == nil || stored.IdentityDocument.UploadedAt.IsZero() {
		t.Errorf("unexpected stored profile %+v", stored)
	}

	progress, err = env.svc.SubmitKycData(ctx, ref, nil, nil)
	if err != nil {
		t.Fatalf("second SubmitKycData: %v", err)
	}
	if progress.Status != model.KycL2Approved {
		t.Errorf("expected KYC2_APPROVED on the next call, got %s", progress.Status)
	}

	progress, err = env.svc.SubmitKycData(ctx, ref, nil, nil)
	if err != nil || progress.Status != model.KycL2Approved || progress.PreviousStatus != "" {
		t.Errorf("KYC2_APPROVED must stay put, got %+v %v", progress, err)
	}

	changes := 0
	for _, typ := range env.events.Types() {
		if typ == events.KycStatusChanged {
			changes++
		}
	}
	if changes != 2 {
		t.Errorf("expected 2 status change events, got %d", changes)
	}
}

func TestSubmitKycData_Rules(t *testing.T) {
	tests := []struct {
		name       string
		status     model.KycStatus
		fields     map[string]string
		docs       map[string]model.DocumentRef
		wantStatus model.KycStatus
	}{
		{name: "missing document stays pending", fields: clientLevelOneFields(), wantStatus: model.KycPending},
		{name: "missing phone stays pending", fields: map[string]string{model.FieldLastName: "Dupont"}, docs: identityDoc, wantStatus: model.KycPending},
		{name: "level one", fields: clientLevelOneFields(), docs: identityDoc, wantStatus: model.KycL1Approved},
		{name: "rejected is never auto changed", status: model.KycRejected, fields: clientLevelOneFields(), docs: identityDoc, wantStatus: model.KycRejected},
		{
			name:       "unknown fields are ignored",
			fields:     map[string]string{"kyc_status": "KYC2_APPROVED", "user_id": "someone-else"},
			wantStatus: model.KycPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			id := env.store.addClient(model.ClientProfile{UserID: "u1", KycStatus: tt.status})

			progress, err := env.svc.SubmitKycData(context.Background(), model.ClientRef(id), tt.fields, tt.docs)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if progress.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", progress.Status, tt.wantStatus)
			}
			if got := env.store.client(id); got.UserID != "u1" || got.KycStatus != tt.wantStatus {
				t.Errorf("unexpected stored profile %+v", got)
			}
		})
	}
}

func TestSubmitKycData_Merchant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.store.addMerchant(model.MerchantProfile{UserID: "m1", IsActive: true})
	ref := model.MerchantRef(id)

	docs := map[string]model.DocumentRef{
		model.DocBusinessLicense:     {FileName: "license.pdf", StorageKey: "kyc/m1/license.pdf"},
		model.DocCompanyRegistration: {FileName: "kbis.pdf", StorageKey: "kyc/m1/kbis.pdf"},
	}
	progress, err := env.svc.SubmitKycData(ctx, ref, map[string]string{model.FieldCompanyName: "Voyages Lumière"}, docs)
	if err != nil {
		t.Fatalf("SubmitKycData: %v", err)
	}
	if progress.Status != model.KycL1Approved {
		t.Fatalf("expected KYC1_APPROVED, got %s", progress.Status)
	}

	// 12 of 14 filled is below the 90% threshold even with the tax certificate.
	progress, err = env.svc.SubmitKycData(ctx, ref, map[string]string{
		model.FieldContactPerson:  "Claire Martin",
		model.FieldContactPhone:   "+33 1 23 45 67 89",
		model.FieldContactEmail:   "Claire@Voyages.fr",
		model.FieldCompanyAddress: "3 quai Voltaire",
		model.FieldCompanyCity:    "Lyon",
		model.FieldCompanyCountry: "France",
		model.FieldBusinessType:   "travel_agency",
		model.FieldCompanyReg:     "RCS 123 456 789",
	}, map[string]model.DocumentRef{
		model.DocTaxCertificate: {FileName: "tax.pdf", StorageKey: "kyc/m1/tax.pdf"},
	})
	if err != nil {
		t.Fatalf("SubmitKycData: %v", err)
	}
	if progress.Status != model.KycL1Approved || progress.CompletionPercentage >= model.MerchantL2Completion {
		t.Fatalf("expected to stay at KYC1_APPROVED below 90%%, got %s at %d%%", progress.Status, progress.CompletionPercentage)
	}

	progress, err = env.svc.SubmitKycData(ctx, ref, map[string]string{model.FieldTaxID: "FR12345678901"}, nil)
	if err != nil {
		t.Fatalf("SubmitKycData: %v", err)
	}
	if progress.Status != model.KycL2Approved {
		t.Errorf("expected KYC2_APPROVED, got %s at %d%%", progress.Status, progress.CompletionPercentage)
	}
	if stored := env.store.merchant(id); !stored.IsVerified || stored.ContactEmail != "claire@voyages.fr" {
		t.Errorf("unexpected stored merchant %+v", stored)
	}
}

func TestSubmitKycData_InvalidInputWritesNothing(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		docs   map[string]model.DocumentRef
	}{
		{name: "bad birth date", fields: map[string]string{model.FieldBirthDate: "12/04/1985"}},
		{name: "future birth date", fields: map[string]string{model.FieldBirthDate: "2999-01-01"}},
		{name: "bad phone", fields: map[string]string{model.FieldPhone: "12"}},
		{name: "document without storage key", docs: map[string]model.DocumentRef{model.DocIdentityDocument: {FileName: "id.pdf"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			id := env.store.addClient(model.ClientProfile{UserID: "u1"})

			_, err := env.svc.SubmitKycData(context.Background(), model.ClientRef(id), tt.fields, tt.docs)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
			if got := env.store.client(id); got.Version != 1 {
				t.Errorf("expected no write, got version %d", got.Version)
			}
		})
	}
}

func TestSubmitKycData_RetriesVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	id := env.store.addClient(model.ClientProfile{UserID: "u1"})

	raced := false
	env.store.beforeSaveSubj = func() {
		if !raced {
			raced = true
			env.store.bumpClient(id)
		}
	}

	progress, err := env.svc.SubmitKycData(context.Background(), model.ClientRef(id), clientLevelOneFields(), identityDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if progress.Status != model.KycL1Approved || env.store.client(id).Version != 3 {
		t.Errorf("expected the retry to land on top of the concurrent write, got %+v", env.store.client(id))
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.store.addClient(model.ClientProfile{UserID: "u1"})
	viewer := env.store.addAdmin(model.AdminProfile{UserID: "admin-2", AdminLevel: model.AdminModerator})

	v, err := env.svc.CreateValidation(ctx, model.ClientRef(client), model.KycLevelOne, env.admin, " first pass ")
	if err != nil {
		t.Fatalf("CreateValidation: %v", err)
	}
	if v.Status != model.ValidationPending || v.Notes != "first pass" || !v.CanBeModified() {
		t.Errorf("unexpected validation %+v", v)
	}
	if env.store.client(client).KycStatus != model.KycPending {
		t.Error("creating a validation must not touch the profile")
	}

	tests := []struct {
		name      string
		ref       model.ProfileRef
		level     model.KycLevel
		adminID   string
		wantCode  string
		wantGuard string
	}{
		{name: "duplicate pending", ref: model.ClientRef(client), level: model.KycLevelOne, adminID: env.admin, wantCode: apperrors.CodeStateConflict, wantGuard: GuardValidationPending},
		{name: "bad level", ref: model.ClientRef(client), level: 3, adminID: env.admin, wantCode: apperrors.CodeValidation},
		{name: "admin without permission", ref: model.ClientRef(client), level: model.KycLevelTwo, adminID: viewer, wantCode: apperrors.CodeForbidden},
		{name: "not an admin", ref: model.ClientRef(client), level: model.KycLevelTwo, adminID: "65f1c0a2b3d4e5f6071829ff", wantCode: apperrors.CodeForbidden},
		{name: "unknown profile", ref: model.MerchantRef("65f1c0a2b3d4e5f6071829aa"), level: model.KycLevelOne, adminID: env.admin, wantCode: apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateValidation(ctx, tt.ref, tt.level, tt.adminID, "")
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			if tt.wantGuard != "" && apperrors.Guard(err) != tt.wantGuard {
				t.Errorf("expected guard %s, got %s", tt.wantGuard, apperrors.Guard(err))
			}
		})
	}

	pending, total, err := env.svc.ListPending(ctx, 10, 0)
	if err != nil || total != 1 || len(pending) != 1 {
		t.Errorf("expected one pending validation, got %d/%d %v", len(pending), total, err)
	}
}

func TestApproveValidation_SetsProfileStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.store.addClient(model.ClientProfile{UserID: "u1"})
	ref := model.ClientRef(id)
	if _, err := env.svc.SubmitKycData(ctx, ref, clientLevelOneFields(), identityDoc); err != nil {
		t.Fatalf("SubmitKycData: %v", err)
	}
	if _, err := env.svc.SubmitKycData(ctx, ref, map[string]string{model.FieldAddress: "1 place Bellecour"}, nil); err != nil {
		t.Fatalf("SubmitKycData: %v", err)
	}
	// Auto progression stops at level two; force the profile back to test approval.
	p := env.store.client(id)
	p.KycStatus = model.KycPending
	env.store.clients[id] = p

	v, err := env.svc.CreateValidation(ctx, ref, model.KycLevelTwo, env.admin, "")
	if err != nil {
		t.Fatalf("CreateValidation: %v", err)
	}

	approved, err := env.svc.ApproveValidation(ctx, v.ID, env.admin, "documents verified")
	if err != nil {
		t.Fatalf("ApproveValidation: %v", err)
	}
	if approved.Status != model.ValidationApproved || approved.DecidedAt == nil || approved.ValidatedBy != env.admin {
		t.Errorf("unexpected validation %+v", approved)
	}
	if approved.CanBeModified() {
		t.Error("a decided validation must be immutable")
	}
	if got := env.store.client(id).KycStatus; got != model.KycL2Approved {
		t.Errorf("profile status = %s, want KYC2_APPROVED", got)
	}

	_, err = env.svc.ApproveValidation(ctx, v.ID, env.admin, "")
	if apperrors.Guard(err) != GuardValidationClosed {
		t.Errorf("expected validation_closed, got %v", err)
	}
	_, err = env.svc.RejectValidation(ctx, v.ID, env.admin, "changed my mind")
	if apperrors.Guard(err) != GuardValidationClosed {
		t.Errorf("expected validation_closed on reject, got %v", err)
	}

	types := env.events.Types()
	if types[len(types)-1] != events.KycStatusChanged || types[len(types)-2] != events.KycValidationApproved {
		t.Errorf("unexpected events %v", types)
	}
}

func TestApproveValidation_Guards(t *testing.T) {
	tests := []struct {
		name      string
		profile   model.ClientProfile
		level     model.KycLevel
		wantGuard string
	}{
		{
			name:      "not eligible",
			profile:   model.ClientProfile{UserID: "u1", LastName: "Dupont"},
			level:     model.KycLevelOne,
			wantGuard: GuardNotEligible,
		},
		{
			name: "downgrade",
			profile: model.ClientProfile{
				UserID: "u1", LastName: "Dupont", FirstName: "Jean", Phone: "+33612345678",
				BirthDate: ptr(time.Date(1985, 4, 12, 0, 0, 0, 0, time.UTC)), Nationality: "France",
				IdentityDocument: &model.DocumentRef{FileName: "id.pdf", StorageKey: "kyc/id.pdf"},
				KycStatus:        model.KycL2Approved,
			},
			level:     model.KycLevelOne,
			wantGuard: GuardDowngrade,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			id := env.store.addClient(tt.profile)
			v, err := env.svc.CreateValidation(context.Background(), model.ClientRef(id), tt.level, env.admin, "")
			if err != nil {
				t.Fatalf("CreateValidation: %v", err)
			}

			_, err = env.svc.ApproveValidation(context.Background(), v.ID, env.admin, "")
			if apperrors.Guard(err) != tt.wantGuard {
				t.Fatalf("expected guard %s, got %v", tt.wantGuard, err)
			}
			if got := env.store.validation(v.ID); got.Status != model.ValidationPending || got.Version != 1 {
				t.Errorf("validation must stay untouched, got %+v", got)
			}
			if got := env.store.client(id); got.KycStatus != tt.profile.KycStatus && tt.profile.KycStatus != "" {
				t.Errorf("profile status changed to %s", got.KycStatus)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestApproveValidation_RollsBackOnProfileFailure(t *testing.T) {
	env := newTestEnv(t)
	id := env.store.addMerchant(model.MerchantProfile{
		UserID:                 "m1",
		CompanyName:            "Voyages Lumière",
		BusinessLicense:        &model.DocumentRef{FileName: "l.pdf", StorageKey: "kyc/l.pdf"},
		CompanyRegistrationDoc: &model.DocumentRef{FileName: "k.pdf", StorageKey: "kyc/k.pdf"},
	})
	v, err := env.svc.CreateValidation(context.Background(), model.MerchantRef(id), model.KycLevelOne, env.admin, "")
	if err != nil {
		t.Fatalf("CreateValidation: %v", err)
	}

	env.store.saveSubjectErr = errors.New("write concern timeout")
	_, err = env.svc.ApproveValidation(context.Background(), v.ID, env.admin, "")
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
	if got := env.store.validation(v.ID); got.Status != model.ValidationPending {
		t.Errorf("validation must roll back with the profile, got %s", got.Status)
	}
	if got := env.store.merchant(id); got.KycStatus != model.KycPending {
		t.Errorf("profile must stay PENDING, got %s", got.KycStatus)
	}
}

func TestRejectValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.store.addClient(model.ClientProfile{UserID: "u1", KycStatus: model.KycL1Approved})
	v, err := env.svc.CreateValidation(ctx, model.ClientRef(id), model.KycLevelTwo, env.admin, "")
	if err != nil {
		t.Fatalf("CreateValidation: %v", err)
	}

	for _, notes := range []string{"", "   "} {
		reads := env.store.readCount()
		_, err := env.svc.RejectValidation(ctx, v.ID, env.admin, notes)
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR for %q, got %v", notes, err)
		}
		if env.store.readCount() != reads {
			t.Errorf("rejection without notes must fail before any read")
		}
	}

	rejected, err := env.svc.RejectValidation(ctx, v.ID, env.admin, "passport expired")
	if err != nil {
		t.Fatalf("RejectValidation: %v", err)
	}
	if rejected.Status != model.ValidationRejected || rejected.Notes != "passport expired" {
		t.Errorf("unexpected validation %+v", rejected)
	}
	if got := env.store.client(id).KycStatus; got != model.KycRejected {
		t.Errorf("profile status = %s, want REJECTED", got)
	}

	second, err := env.svc.CreateValidation(ctx, model.ClientRef(id), model.KycLevelOne, env.admin, "")
	if err != nil {
		t.Fatalf("CreateValidation: %v", err)
	}
	again, err := env.svc.RejectValidation(ctx, second.ID, env.admin, "still expired")
	if err != nil {
		t.Fatalf("rejecting a REJECTED profile again: %v", err)
	}
	if again.Status != model.ValidationRejected {
		t.Errorf("second validation status = %s, want REJECTED", again.Status)
	}
	if got := env.store.client(id).KycStatus; got != model.KycRejected {
		t.Errorf("profile status = %s, want REJECTED", got)
	}
	if _, err := env.svc.CreateValidation(ctx, model.ClientRef(id), model.KycLevelOne, env.admin, ""); err != nil {
		t.Errorf("no validation should be left pending: %v", err)
	}

	history, err := env.svc.ListForProfile(ctx, model.ClientRef(id))
	if err != nil || len(history) != 3 {
		t.Errorf("expected 3 validations for the profile, got %d %v", len(history), err)
	}
}

func TestGetValidation_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		id       string
		wantCode string
	}{
		{id: "", wantCode: apperrors.CodeInvalidInput},
		{id: "abc", wantCode: apperrors.CodeInvalidInput},
		{id: "65f1c0a2b3d4e5f6071829ff", wantCode: apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		if _, err := env.svc.GetValidation(context.Background(), tt.id); !apperrors.HasCode(err, tt.wantCode) {
			t.Errorf("%q: expected %s, got %v", tt.id, tt.wantCode, err)
		}
	}
}
