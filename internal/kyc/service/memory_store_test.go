package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	kycerrors "yxplore/internal/kyc/errors"
	profileserrors "yxplore/internal/profiles/errors"
	mongotx "yxplore/pkg/db/mongo"
	"yxplore/pkg/model"
)

// memoryStore stands in for both the kyc_validations collection and the
// profile registry so one transaction can roll back writes to both.
type memoryStore struct {
	txMu        sync.Mutex
	mu          sync.Mutex
	seq         int
	validations map[string]model.KYCValidation
	clients     map[string]model.ClientProfile
	merchants   map[string]model.MerchantProfile
	admins      map[string]model.AdminProfile

	reads          int
	saveSubjectErr error
	beforeSaveSubj func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		validations: map[string]model.KYCValidation{},
		clients:     map[string]model.ClientProfile{},
		merchants:   map[string]model.MerchantProfile{},
		admins:      map[string]model.AdminProfile{},
	}
}

func (m *memoryStore) nextID() string {
	m.seq++
	return fmt.Sprintf("%024x", m.seq)
}

func (m *memoryStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	validations, clients, merchants := maps.Clone(m.validations), maps.Clone(m.clients), maps.Clone(m.merchants)
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.validations, m.clients, m.merchants = validations, clients, merchants
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryStore) addClient(p model.ClientProfile) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID()
	p.Version = 1
	if p.KycStatus == "" {
		p.KycStatus = model.KycPending
	}
	m.clients[p.ID] = p
	return p.ID
}

func (m *memoryStore) addMerchant(p model.MerchantProfile) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID()
	p.Version = 1
	if p.KycStatus == "" {
		p.KycStatus = model.KycPending
	}
	m.merchants[p.ID] = p
	return p.ID
}

func (m *memoryStore) addAdmin(p model.AdminProfile) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID()
	m.admins[p.ID] = p
	return p.ID
}

func (m *memoryStore) client(id string) model.ClientProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients[id]
}

func (m *memoryStore) merchant(id string) model.MerchantProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.merchants[id]
}

func (m *memoryStore) validation(id string) model.KYCValidation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validations[id]
}

func (m *memoryStore) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// --- ValidationRepository ---

func (m *memoryStore) Create(_ context.Context, v *model.KYCValidation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.nextID()
	v.Version = 1
	v.CreatedAt = time.Now().UTC()
	v.UpdatedAt = v.CreatedAt
	m.validations[v.ID] = *v
	return nil
}

func (m *memoryStore) FindByID(_ context.Context, id string) (*model.KYCValidation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if len(id) != 24 {
		return nil, fmt.Errorf("%w: %s", kycerrors.ErrInvalidID, id)
	}
	v, ok := m.validations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kycerrors.ErrNotFound, id)
	}
	return &v, nil
}

func (m *memoryStore) list(keep func(model.KYCValidation) bool) []*model.KYCValidation {
	out := []*model.KYCValidation{}
	for _, v := range m.validations {
		if keep(v) {
			v := v
			out = append(out, &v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryStore) FindPending(_ context.Context, limit int, offset int64) ([]*model.KYCValidation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.list(func(v model.KYCValidation) bool { return v.Status == model.ValidationPending })
	if int(offset) >= len(all) {
		return []*model.KYCValidation{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryStore) CountPending(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.list(func(v model.KYCValidation) bool { return v.Status == model.ValidationPending }))), nil
}

func (m *memoryStore) FindByProfile(_ context.Context, ref model.ProfileRef) ([]*model.KYCValidation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(v model.KYCValidation) bool { return v.Profile == ref }), nil
}

func (m *memoryStore) Save(_ context.Context, v *model.KYCValidation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.validations[v.ID]
	if !ok {
		return fmt.Errorf("%w: %s", kycerrors.ErrNotFound, v.ID)
	}
	if stored.Version != v.Version {
		return fmt.Errorf("%w: %s", kycerrors.ErrVersionConflict, v.ID)
	}
	v.Version++
	m.validations[v.ID] = *v
	return nil
}

// --- ProfileStore ---

func (m *memoryStore) FindSubject(_ context.Context, ref model.ProfileRef) (model.KycSubject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	switch ref.Kind {
	case model.KindClient:
		if p, ok := m.clients[ref.ID]; ok {
			return &p, nil
		}
	case model.KindMerchant:
		if p, ok := m.merchants[ref.ID]; ok {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", profileserrors.ErrNotFound, ref)
}

func (m *memoryStore) SaveSubject(_ context.Context, subject model.KycSubject) error {
	if m.beforeSaveSubj != nil {
		m.beforeSaveSubj()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveSubjectErr != nil {
		return m.saveSubjectErr
	}
	switch p := subject.(type) {
	case *model.ClientProfile:
		if m.clients[p.ID].Version != p.Version {
			return fmt.Errorf("%w: %s", profileserrors.ErrVersionConflict, p.ID)
		}
		p.Version++
		m.clients[p.ID] = *p
	case *model.MerchantProfile:
		if m.merchants[p.ID].Version != p.Version {
			return fmt.Errorf("%w: %s", profileserrors.ErrVersionConflict, p.ID)
		}
		p.Version++
		m.merchants[p.ID] = *p
	default:
		return errors.New("unsupported subject")
	}
	return nil
}

func (m *memoryStore) FindAdminByID(_ context.Context, id string) (*model.AdminProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	p, ok := m.admins[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", profileserrors.ErrNotFound, id)
	}
	return &p, nil
}

// bumpClient stands in for a concurrent writer.
func (m *memoryStore) bumpClient(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.clients[id]
	p.Version++
	m.clients[id] = p
}
