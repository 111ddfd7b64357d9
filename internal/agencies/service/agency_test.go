package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	agencieserrors "yxplore/internal/agencies/errors"
	"yxplore/internal/agencies/validator"
	profileserrors "yxplore/internal/profiles/errors"
	"yxplore/pkg/config"
	mongotx "yxplore/pkg/db/mongo"
	apperrors "yxplore/pkg/errors"
	"yxplore/pkg/events"
	"yxplore/pkg/logger"
	"yxplore/pkg/model"
)

const (
	agencyID   = "65f1c0a2b3d4e5f60718293b"
	merchantID = "65f1c0a2b3d4e5f60718293a"
)

type mockAgencyRepository struct {
	createFunc          func(ctx context.Context, a *model.Agency) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Agency, error)
	findByUUIDFunc      func(ctx context.Context, uuid string) (*model.Agency, error)
	findActiveFunc      func(ctx context.Context, limit int, offset int64) ([]*model.Agency, error)
	countActiveFunc     func(ctx context.Context) (int64, error)
	findFirstActiveFunc func(ctx context.Context) (*model.Agency, error)
	findByIDsFunc       func(ctx context.Context, ids []string) ([]*model.Agency, error)
	deactivateFunc      func(ctx context.Context, id string) error
	upsertFunc          func(ctx context.Context, a *model.MerchantAssignment) error
	deactivateAssignFn  func(ctx context.Context, merchantID, agencyID string) error
	byMerchantFunc      func(ctx context.Context, merchantID string) ([]*model.MerchantAssignment, error)
	responsibleFunc     func(ctx context.Context, agencyID string) ([]string, error)
}

func (m *mockAgencyRepository) Create(ctx context.Context, a *model.Agency) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	a.ID = agencyID
	return nil
}

func (m *mockAgencyRepository) FindByID(ctx context.Context, id string) (*model.Agency, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, agencieserrors.ErrNotFound
}

func (m *mockAgencyRepository) FindByUUID(ctx context.Context, uuid string) (*model.Agency, error) {
	if m.findByUUIDFunc != nil {
		return m.findByUUIDFunc(ctx, uuid)
	}
	return nil, agencieserrors.ErrNotFound
}

func (m *mockAgencyRepository) FindActive(ctx context.Context, limit int, offset int64) ([]*model.Agency, error) {
	if m.findActiveFunc != nil {
		return m.findActiveFunc(ctx, limit, offset)
	}
	return []*model.Agency{}, nil
}

func (m *mockAgencyRepository) CountActive(ctx context.Context) (int64, error) {
	if m.countActiveFunc != nil {
		return m.countActiveFunc(ctx)
	}
	return 0, nil
}

func (m *mockAgencyRepository) FindFirstActive(ctx context.Context) (*model.Agency, error) {
	if m.findFirstActiveFunc != nil {
		return m.findFirstActiveFunc(ctx)
	}
	return nil, agencieserrors.ErrNotFound
}

func (m *mockAgencyRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Agency, error) {
	if m.findByIDsFunc != nil {
		return m.findByIDsFunc(ctx, ids)
	}
	return []*model.Agency{}, nil
}

func (m *mockAgencyRepository) Deactivate(ctx context.Context, id string) error {
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id)
	}
	return nil
}

func (m *mockAgencyRepository) UpsertAssignment(ctx context.Context, a *model.MerchantAssignment) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, a)
	}
	return nil
}

func (m *mockAgencyRepository) DeactivateAssignment(ctx context.Context, merchantID, agencyID string) error {
	if m.deactivateAssignFn != nil {
		return m.deactivateAssignFn(ctx, merchantID, agencyID)
	}
	return nil
}

func (m *mockAgencyRepository) FindAssignmentsByMerchant(ctx context.Context, merchantID string) ([]*model.MerchantAssignment, error) {
	if m.byMerchantFunc != nil {
		return m.byMerchantFunc(ctx, merchantID)
	}
	return []*model.MerchantAssignment{}, nil
}

func (m *mockAgencyRepository) FindResponsibleMerchantIDs(ctx context.Context, agencyID string) ([]string, error) {
	if m.responsibleFunc != nil {
		return m.responsibleFunc(ctx, agencyID)
	}
	return []string{}, nil
}

func (m *mockAgencyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockMerchants struct {
	merchants map[string]*model.MerchantProfile
}

func (m *mockMerchants) FindMerchantByID(_ context.Context, id string) (*model.MerchantProfile, error) {
	if p, ok := m.merchants[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", profileserrors.ErrNotFound, id)
}

func newTestService(repo *mockAgencyRepository, merchants *mockMerchants) (AgencyService, *events.Recorder) {
	cfg := &config.Config{
		Log:                  logger.Discard(),
		DefaultAgencyName:    config.DefaultAgencyName,
		DefaultAgencyCountry: config.DefaultAgencyCountry,
		DefaultAgencyCity:    config.DefaultAgencyCity,
		DefaultAgencyAddress: config.DefaultAgencyAddress,
		DefaultAgencyIATA:    config.DefaultAgencyIATA,
		DefaultAgencyPhone:   config.DefaultAgencyPhone,
		DefaultAgencyEmail:   config.DefaultAgencyEmail,
	}
	if merchants == nil {
		merchants = &mockMerchants{}
	}
	rec := &events.Recorder{}
	return NewAgencyService(repo, merchants, validator.NewAgencyValidator(cfg.Log), rec, cfg), rec
}

func TestCreate(t *testing.T) {
	var stored *model.Agency
	repo := &mockAgencyRepository{
		createFunc: func(_ context.Context, a *model.Agency) error {
			a.ID = agencyID
			stored = a
			return nil
		},
	}
	svc, _ := newTestService(repo, nil)

	a := &model.Agency{
		Name:     "  Voyages   Lumière ",
		Country:  "France",
		City:     "Lyon",
		Address:  "2 place Bellecour",
		IATACode: " lys ",
		Phone:    "04 72 00 00 00",
		Email:    "Contact@Lumiere.TEST",
	}
	if err := svc.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored == nil || stored.ID != agencyID {
		t.Fatal("expected agency to be stored")
	}
	if a.Name != "Voyages Lumière" || a.IATACode != "LYS" || a.Email != "contact@lumiere.test" {
		t.Errorf("expected sanitized agency, got %+v", a)
	}
	if a.Phone != "+33472000000" {
		t.Errorf("expected E.164 phone, got %q", a.Phone)
	}
	if a.UUID == "" || !a.IsActive {
		t.Errorf("expected uuid and active flag, got %q %v", a.UUID, a.IsActive)
	}
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		agency   *model.Agency
		createFn func(context.Context, *model.Agency) error
		wantCode string
	}{
		{
			name:     "invalid iata code",
			agency:   &model.Agency{Name: "A1", Country: "FR", City: "Paris", Address: "x", IATACode: "PA"},
			wantCode: apperrors.CodeValidation,
		},
		{
			name:     "missing address",
			agency:   &model.Agency{Name: "A1", Country: "FR", City: "Paris"},
			wantCode: apperrors.CodeValidation,
		},
		{
			name:   "duplicate",
			agency: &model.Agency{Name: "A1", Country: "FR", City: "Paris", Address: "x", IATACode: "PAR"},
			createFn: func(context.Context, *model.Agency) error {
				return agencieserrors.ErrDuplicateAgency
			},
			wantCode: apperrors.CodeConflict,
		},
		{
			name:   "storage failure",
			agency: &model.Agency{Name: "A1", Country: "FR", City: "Paris", Address: "x"},
			createFn: func(context.Context, *model.Agency) error {
				return errors.New("connection reset")
			},
			wantCode: apperrors.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(&mockAgencyRepository{createFunc: tt.createFn}, nil)
			err := svc.Create(context.Background(), tt.agency)
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestDefaultAgency(t *testing.T) {
	t.Run("returns existing", func(t *testing.T) {
		existing := &model.Agency{ID: agencyID, Name: "Existing", IsActive: true}
		created := false
		repo := &mockAgencyRepository{
			findFirstActiveFunc: func(context.Context) (*model.Agency, error) { return existing, nil },
			createFunc: func(context.Context, *model.Agency) error {
				created = true
				return nil
			},
		}
		svc, _ := newTestService(repo, nil)

		got, err := svc.DefaultAgency(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != existing || created {
			t.Errorf("expected the existing agency without a create")
		}
	})

	t.Run("bootstraps from configuration", func(t *testing.T) {
		svc, _ := newTestService(&mockAgencyRepository{}, nil)

		got, err := svc.DefaultAgency(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Name != config.DefaultAgencyName || got.IATACode != config.DefaultAgencyIATA {
			t.Errorf("unexpected default agency %+v", got)
		}
		if got.Phone != "+33123456789" {
			t.Errorf("expected normalized phone, got %q", got.Phone)
		}
	})

	t.Run("lost bootstrap race", func(t *testing.T) {
		winner := &model.Agency{ID: agencyID, Name: "Winner", IsActive: true}
		calls := 0
		repo := &mockAgencyRepository{
			findFirstActiveFunc: func(context.Context) (*model.Agency, error) {
				calls++
				if calls == 1 {
					return nil, agencieserrors.ErrNotFound
				}
				return winner, nil
			},
			createFunc: func(context.Context, *model.Agency) error {
				return agencieserrors.ErrDuplicateAgency
			},
		}
		svc, _ := newTestService(repo, nil)

		got, err := svc.DefaultAgency(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != winner {
			t.Errorf("expected the concurrently created agency, got %+v", got)
		}
	})
}

func TestAssignMerchant(t *testing.T) {
	activeAgency := func(context.Context, string) (*model.Agency, error) {
		return &model.Agency{ID: agencyID, IsActive: true}, nil
	}

	tests := []struct {
		name       string
		merchant   *model.MerchantProfile
		findAgency func(context.Context, string) (*model.Agency, error)
		role       model.AssignmentRole
		wantCode   string
		wantRole   model.AssignmentRole
	}{
		{
			name:       "defaults to agent",
			merchant:   &model.MerchantProfile{ID: merchantID, IsActive: true},
			findAgency: activeAgency,
			wantRole:   model.RoleAgent,
		},
		{
			name:       "normalizes role",
			merchant:   &model.MerchantProfile{ID: merchantID, IsActive: true},
			findAgency: activeAgency,
			role:       "manager",
			wantRole:   model.RoleManager,
		},
		{
			name:       "unknown merchant",
			findAgency: activeAgency,
			wantCode:   apperrors.CodeNotFound,
		},
		{
			name:       "inactive merchant",
			merchant:   &model.MerchantProfile{ID: merchantID},
			findAgency: activeAgency,
			wantCode:   apperrors.CodeStateConflict,
		},
		{
			name:     "inactive agency",
			merchant: &model.MerchantProfile{ID: merchantID, IsActive: true},
			findAgency: func(context.Context, string) (*model.Agency, error) {
				return &model.Agency{ID: agencyID}, nil
			},
			wantCode: apperrors.CodeStateConflict,
		},
		{
			name:     "bad role",
			merchant: &model.MerchantProfile{ID: merchantID, IsActive: true},
			role:     "OWNER",
			wantCode: apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upserted := false
			repo := &mockAgencyRepository{
				findByIDFunc: tt.findAgency,
				upsertFunc: func(context.Context, *model.MerchantAssignment) error {
					upserted = true
					return nil
				},
			}
			merchants := &mockMerchants{merchants: map[string]*model.MerchantProfile{}}
			if tt.merchant != nil {
				merchants.merchants[tt.merchant.ID] = tt.merchant
			}
			svc, rec := newTestService(repo, merchants)

			a := &model.MerchantAssignment{MerchantID: merchantID, AgencyID: agencyID, Role: tt.role, IsResponsible: true}
			err := svc.AssignMerchant(context.Background(), a)

			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				if upserted {
					t.Error("expected no write on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !upserted || a.Role != tt.wantRole {
				t.Errorf("expected upsert with role %s, got %s", tt.wantRole, a.Role)
			}
			if types := rec.Types(); len(types) != 1 || types[0] != events.MerchantAssigned {
				t.Errorf("expected merchant_assigned event, got %v", types)
			}
		})
	}
}

func TestRemoveAssignment(t *testing.T) {
	repo := &mockAgencyRepository{
		deactivateAssignFn: func(_ context.Context, m, a string) error {
			if m == merchantID && a == agencyID {
				return nil
			}
			return agencieserrors.ErrAssignmentNotFound
		},
	}
	svc, rec := newTestService(repo, nil)

	if err := svc.RemoveAssignment(context.Background(), merchantID, agencyID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if types := rec.Types(); len(types) != 1 || types[0] != events.MerchantUnassigned {
		t.Errorf("expected merchant_unassigned event, got %v", types)
	}

	err := svc.RemoveAssignment(context.Background(), merchantID, "65f1c0a2b3d4e5f60718293c")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestListForMerchant(t *testing.T) {
	repo := &mockAgencyRepository{
		byMerchantFunc: func(context.Context, string) ([]*model.MerchantAssignment, error) {
			return []*model.MerchantAssignment{{AgencyID: "a1"}, {AgencyID: "a2"}}, nil
		},
		findByIDsFunc: func(_ context.Context, ids []string) ([]*model.Agency, error) {
			out := make([]*model.Agency, 0, len(ids))
			for _, id := range ids {
				out = append(out, &model.Agency{ID: id})
			}
			return out, nil
		},
	}
	svc, _ := newTestService(repo, nil)

	agencies, err := svc.ListForMerchant(context.Background(), merchantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agencies) != 2 || agencies[0].ID != "a1" || agencies[1].ID != "a2" {
		t.Errorf("unexpected agencies %+v", agencies)
	}
}

func TestGetByID_MapsErrors(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		repoErr  error
		wantCode string
	}{
		{name: "empty id", id: "", wantCode: apperrors.CodeInvalidInput},
		{name: "not found", id: agencyID, repoErr: agencieserrors.ErrNotFound, wantCode: apperrors.CodeNotFound},
		{name: "bad id", id: "xyz", repoErr: agencieserrors.ErrInvalidID, wantCode: apperrors.CodeInvalidInput},
		{name: "storage", id: agencyID, repoErr: errors.New("boom"), wantCode: apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockAgencyRepository{
				findByIDFunc: func(context.Context, string) (*model.Agency, error) { return nil, tt.repoErr },
			}
			svc, _ := newTestService(repo, nil)
			_, err := svc.GetByID(context.Background(), tt.id)
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestDeactivate(t *testing.T) {
	svc, rec := newTestService(&mockAgencyRepository{}, nil)
	if err := svc.Deactivate(context.Background(), agencyID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if types := rec.Types(); len(types) != 1 || types[0] != events.AgencyDeactivated {
		t.Errorf("expected agency_deactivated event, got %v", types)
	}
}
