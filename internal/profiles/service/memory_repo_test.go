package service

import (
	"context"
	"fmt"
	"maps"
	"sync"

	profileserrors "yxplore/internal/profiles/errors"
	mongotx "yxplore/pkg/db/mongo"
	"yxplore/pkg/model"
)

// memoryProfileRepository mimics the Mongo repository, including rollback of
// every write made inside a failed transaction.
type memoryProfileRepository struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	seq       int
	clients   map[string]model.ClientProfile
	merchants map[string]model.MerchantProfile
	admins    map[string]model.AdminProfile
	accounts  map[string]model.UserAccount

	linkProfileFunc func(userID string, ref model.ProfileRef) error
}

func newMemoryRepo() *memoryProfileRepository {
	return &memoryProfileRepository{
		clients:   map[string]model.ClientProfile{},
		merchants: map[string]model.MerchantProfile{},
		admins:    map[string]model.AdminProfile{},
		accounts:  map[string]model.UserAccount{},
	}
}

func (m *memoryProfileRepository) nextID() string {
	m.seq++
	return fmt.Sprintf("%024x", m.seq)
}

func (m *memoryProfileRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	clients, merchants := maps.Clone(m.clients), maps.Clone(m.merchants)
	admins, accounts := maps.Clone(m.admins), maps.Clone(m.accounts)
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.clients, m.merchants, m.admins, m.accounts = clients, merchants, admins, accounts
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryProfileRepository) InsertClient(_ context.Context, p *model.ClientProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.UserID == p.UserID {
			return profileserrors.ErrProfileExists
		}
	}
	p.ID = m.nextID()
	p.Version = 1
	m.clients[p.ID] = *p
	return nil
}

func (m *memoryProfileRepository) InsertMerchant(_ context.Context, p *model.MerchantProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.merchants {
		if c.UserID == p.UserID {
			return profileserrors.ErrProfileExists
		}
	}
	p.ID = m.nextID()
	p.Version = 1
	m.merchants[p.ID] = *p
	return nil
}

func (m *memoryProfileRepository) InsertAdmin(_ context.Context, p *model.AdminProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID()
	m.admins[p.ID] = *p
	return nil
}

func (m *memoryProfileRepository) FindClientByID(_ context.Context, id string) (*model.ClientProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.clients[id]
	if !ok {
		return nil, profileserrors.ErrNotFound
	}
	return &p, nil
}

func (m *memoryProfileRepository) FindMerchantByID(_ context.Context, id string) (*model.MerchantProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.merchants[id]
	if !ok {
		return nil, profileserrors.ErrNotFound
	}
	return &p, nil
}

func (m *memoryProfileRepository) FindAdminByID(_ context.Context, id string) (*model.AdminProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.admins[id]
	if !ok {
		return nil, profileserrors.ErrNotFound
	}
	return &p, nil
}

func (m *memoryProfileRepository) FindSubject(ctx context.Context, ref model.ProfileRef) (model.KycSubject, error) {
	if ref.IsClient() {
		p, err := m.FindClientByID(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	p, err := m.FindMerchantByID(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (m *memoryProfileRepository) SaveSubject(_ context.Context, subject model.KycSubject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch p := subject.(type) {
	case *model.ClientProfile:
		if m.clients[p.ID].Version != p.Version {
			return profileserrors.ErrVersionConflict
		}
		p.Version++
		m.clients[p.ID] = *p
	case *model.MerchantProfile:
		if m.merchants[p.ID].Version != p.Version {
			return profileserrors.ErrVersionConflict
		}
		p.Version++
		m.merchants[p.ID] = *p
	}
	return nil
}

func (m *memoryProfileRepository) FindAccount(_ context.Context, userID string) (*model.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return nil, profileserrors.ErrAccountNotFound
	}
	return &a, nil
}

func (m *memoryProfileRepository) LinkProfile(_ context.Context, userID string, ref model.ProfileRef) error {
	if m.linkProfileFunc != nil {
		if err := m.linkProfileFunc(userID, ref); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[userID]
	if a.Kind != "" && a.Kind != ref.Kind {
		return profileserrors.ErrConflictingProfile
	}
	a.UserID = userID
	a.Kind = ref.Kind
	if ref.IsClient() {
		a.ClientProfileID = ref.ID
	} else {
		a.MerchantProfileID = ref.ID
	}
	m.accounts[userID] = a
	return nil
}

func (m *memoryProfileRepository) LinkAdmin(_ context.Context, userID, adminID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[userID]
	if a.AdminProfileID != "" {
		return profileserrors.ErrProfileExists
	}
	a.UserID = userID
	a.AdminProfileID = adminID
	m.accounts[userID] = a
	return nil
}

func (m *memoryProfileRepository) counts() (clients, merchants int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients), len(m.merchants)
}
