package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/domain"
)

// Memory is a process-local store with the same semantics as Repos. It backs
// DB_DRIVER=memory and the service tests.
type Memory struct {
	mu         sync.RWMutex
	users      map[int64]*domain.User
	appliances map[int64]*domain.Appliance
	readings   []domain.Reading
	nextID     int64
	now        func() time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock stamps created_at values with now.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		users:      make(map[int64]*domain.User),
		appliances: make(map[int64]*domain.Appliance),
		now:        now,
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	u.ID = m.id()
	u.CreatedAt = m.now().UTC()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) UserByTokenDigest(_ context.Context, digest string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.TokenDigest != nil && *u.TokenDigest == digest {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) SetTokenDigest(_ context.Context, userID int64, digest *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if digest == nil {
		u.TokenDigest = nil
		return nil
	}
	d := *digest
	u.TokenDigest = &d
	return nil
}

func (m *Memory) UpdateProfile(_ context.Context, userID int64, name, passwordHash *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return nil
}

func (m *Memory) ListAppliances(_ context.Context, ownerID int64) ([]domain.Appliance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Appliance{}
	for _, a := range m.appliances {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) CreateAppliance(_ context.Context, a *domain.Appliance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[a.OwnerID]; !ok {
		return domain.ErrInvalidArgument
	}
	a.ID = m.id()
	a.CreatedAt = m.now().UTC()
	cp := *a
	m.appliances[a.ID] = &cp
	return nil
}

// owned must be called with m.mu held.
func (m *Memory) owned(ownerID, id int64) (*domain.Appliance, bool) {
	a, ok := m.appliances[id]
	if !ok || a.OwnerID != ownerID {
		return nil, false
	}
	return a, true
}

func (m *Memory) GetAppliance(_ context.Context, ownerID, id int64) (*domain.Appliance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.owned(ownerID, id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) UpdateAppliance(_ context.Context, ownerID, id int64, upd domain.ApplianceUpdate) error {
	if upd.Empty() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.owned(ownerID, id)
	if !ok {
		return domain.ErrNotFound
	}
	if upd.Name.Set {
		a.Name = *upd.Name.Value
	}
	if upd.Type.Set {
		a.Type = clone(upd.Type.Value)
	}
	if upd.PowerRating.Set {
		a.PowerRating = *upd.PowerRating.Value
	}
	if upd.Room.Set {
		a.Room = clone(upd.Room.Value)
	}
	if upd.IsOn.Set {
		a.IsOn = *upd.IsOn.Value
	}
	return nil
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (m *Memory) DeleteAppliance(_ context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.owned(ownerID, id); !ok {
		return domain.ErrNotFound
	}
	delete(m.appliances, id)
	for i := range m.readings {
		if rd := &m.readings[i]; rd.ApplianceID != nil && *rd.ApplianceID == id {
			rd.ApplianceID = nil
		}
	}
	return nil
}

func (m *Memory) OwnedApplianceIDs(_ context.Context, ownerID int64, ids []int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []int64
	for _, id := range ids {
		if _, ok := m.owned(ownerID, id); ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *Memory) InsertReadings(_ context.Context, ownerID int64, readings []domain.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rd := range readings {
		if rd.ApplianceID != nil {
			if _, ok := m.appliances[*rd.ApplianceID]; !ok {
				return domain.ErrInvalidArgument
			}
		}
	}
	for i := range readings {
		readings[i].ID = m.id()
		readings[i].OwnerID = ownerID
		m.readings = append(m.readings, readings[i])
	}
	return nil
}

// sorted returns ownerID's readings in (ts, id) order. Caller holds m.mu.
func (m *Memory) sorted(ownerID int64) []domain.Reading {
	var out []domain.Reading
	for _, rd := range m.readings {
		if rd.OwnerID == ownerID {
			out = append(out, rd)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Memory) ReadingsBetween(_ context.Context, ownerID int64, start, end string, applianceID *int64) ([]domain.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Reading{}
	for _, rd := range m.sorted(ownerID) {
		if rd.Timestamp < start || rd.Timestamp > end {
			continue
		}
		if applianceID != nil && (rd.ApplianceID == nil || *rd.ApplianceID != *applianceID) {
			continue
		}
		out = append(out, rd)
	}
	return out, nil
}

func (m *Memory) LatestReadings(_ context.Context, ownerID int64, limit int) ([]domain.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.sorted(ownerID)
	out := []domain.Reading{}
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *Memory) Summarize(_ context.Context, ownerID int64, period domain.Period) ([]domain.SummaryBucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := make(map[string]float64)
	for _, rd := range m.sorted(ownerID) {
		label, err := period.Label(rd.Timestamp)
		if err != nil {
			return nil, err
		}
		totals[label] += rd.Consumption
	}
	out := make([]domain.SummaryBucket, 0, len(totals))
	for label, total := range totals {
		out = append(out, domain.SummaryBucket{Period: label, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}
