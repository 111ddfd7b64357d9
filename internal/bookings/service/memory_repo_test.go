package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "yxplore/internal/bookings/errors"
	mongotx "yxplore/pkg/db/mongo"
	"yxplore/pkg/model"
)

// memoryBookingRepository mimics the Mongo repository: unique references,
// unique passenger identities per booking, version checked saves and
// rollback of a failed transaction.
type memoryBookingRepository struct {
	txMu       sync.Mutex
	mu         sync.Mutex
	seq        int
	bookings   map[string]model.Booking
	references map[string]string
	passengers map[string][]model.Passenger
	details    map[string]model.BookingDetail

	// undo holds the inverse of every write made by the open transaction.
	inTx bool
	undo []func()

	// beforeSave runs ahead of the version check; it may change the stored
	// row to stand in for a concurrent writer.
	beforeSave func(stored *model.Booking)
	raced      map[string]model.Booking
}

func newMemoryRepo() *memoryBookingRepository {
	return &memoryBookingRepository{
		bookings:   map[string]model.Booking{},
		references: map[string]string{},
		passengers: map[string][]model.Passenger{},
		details:    map[string]model.BookingDetail{},
		raced:      map[string]model.Booking{},
	}
}

func (m *memoryBookingRepository) nextID() string {
	m.seq++
	return fmt.Sprintf("%024x", m.seq)
}

func (m *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	m.inTx = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inTx = false
		m.undo = nil
		clear(m.raced)
		m.mu.Unlock()
	}()
	if err := fn(nil); err != nil {
		m.mu.Lock()
		for i := len(m.undo) - 1; i >= 0; i-- {
			m.undo[i]()
		}
		// writes made by the simulated concurrent writer were committed
		for id, b := range m.raced {
			m.bookings[id] = b
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// record registers the inverse of a write. Callers hold mu.
func (m *memoryBookingRepository) record(fn func()) {
	if m.inTx {
		m.undo = append(m.undo, fn)
	}
}

// put stores b as is, bypassing every check.
func (m *memoryBookingRepository) put(b model.Booking) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = m.nextID()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	m.bookings[b.ID] = b
	if b.Reference != "" {
		m.references[b.Reference] = b.ID
	}
	return b.ID
}

func (m *memoryBookingRepository) get(id string) model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memoryBookingRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

func (m *memoryBookingRepository) passengerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, list := range m.passengers {
		n += len(list)
	}
	return n
}

func (m *memoryBookingRepository) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.references[b.Reference]; taken {
		return fmt.Errorf("%w: %s", bookingserrors.ErrDuplicateReference, b.Reference)
	}
	b.ID = m.nextID()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	m.bookings[b.ID] = *b
	m.references[b.Reference] = b.ID
	id, reference := b.ID, b.Reference
	m.record(func() {
		delete(m.bookings, id)
		delete(m.references, reference)
	})
	return nil
}

func (m *memoryBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(id) != 24 {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	return &b, nil
}

func (m *memoryBookingRepository) FindByReference(_ context.Context, reference string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.references[reference]; ok {
		b := m.bookings[id]
		return &b, nil
	}
	return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, reference)
}

func (m *memoryBookingRepository) matching(f model.BookingFilter) []*model.Booking {
	out := []*model.Booking{}
	for _, b := range m.bookings {
		if f.ClientID != "" && b.ClientID != f.ClientID ||
			f.MerchantID != "" && b.MerchantID != f.MerchantID ||
			f.AgencyID != "" && b.AgencyID != f.AgencyID ||
			f.Status != "" && b.Status != f.Status {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memoryBookingRepository) FindByFilter(_ context.Context, f model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(f)
	if int(offset) >= len(all) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryBookingRepository) CountByFilter(_ context.Context, f model.BookingFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.matching(f))), nil
}

func (m *memoryBookingRepository) FindExpirable(_ context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Booking{}
	for _, b := range m.bookings {
		if b.IsExpirable(now) && len(out) < limit {
			b := b
			out = append(out, &b)
		}
	}
	return out, nil
}

func (m *memoryBookingRepository) Save(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[b.ID]
	if !ok {
		return fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, b.ID)
	}
	if m.beforeSave != nil {
		m.beforeSave(&stored)
		m.bookings[b.ID] = stored
		m.raced[b.ID] = stored
	}
	if stored.Version != b.Version {
		return fmt.Errorf("%w: %s", bookingserrors.ErrVersionConflict, b.ID)
	}
	b.Version++
	b.UpdatedAt = time.Now().UTC()
	m.bookings[b.ID] = *b
	m.record(func() { m.bookings[stored.ID] = stored })
	return nil
}

func (m *memoryBookingRepository) InsertPassengers(_ context.Context, passengers []*model.Passenger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range passengers {
		bookingID, previous := p.BookingID, m.passengers[p.BookingID]
		m.record(func() { m.passengers[bookingID] = previous })
		for _, existing := range m.passengers[p.BookingID] {
			if existing.IdentityKey() == p.IdentityKey() {
				return bookingserrors.ErrDuplicatePassenger
			}
		}
		p.ID = m.nextID()
		m.passengers[p.BookingID] = append(m.passengers[p.BookingID], *p)
	}
	return nil
}

func (m *memoryBookingRepository) FindPassengers(_ context.Context, bookingID string) ([]*model.Passenger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Passenger{}
	for _, p := range m.passengers[bookingID] {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (m *memoryBookingRepository) InsertDetail(_ context.Context, d *model.BookingDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.nextID()
	previous, existed := m.details[d.BookingID]
	bookingID := d.BookingID
	m.record(func() {
		if existed {
			m.details[bookingID] = previous
			return
		}
		delete(m.details, bookingID)
	})
	m.details[d.BookingID] = *d
	return nil
}

func (m *memoryBookingRepository) FindDetail(_ context.Context, bookingID string) (*model.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.details[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrDetailNotFound, bookingID)
	}
	return &d, nil
}
