package appointment

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type memoryRepo struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]Appointment
}

func NewMemoryRepository() Repository {
	return &memoryRepo{appointments: make(map[uuid.UUID]Appointment)}
}

func (m *memoryRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[a.ID] = *a
	return nil
}

func (m *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

// List returns every appointment, newest first.
func (m *memoryRepo) List(_ context.Context) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = status
	m.appointments[id] = a
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.appointments, id)
	return nil
}
