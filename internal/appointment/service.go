package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medicare-backend/internal/user"

	"github.com/google/uuid"
)

// DoctorDirectory lists accounts by role. user.Repository satisfies it.
type DoctorDirectory interface {
	ListByRole(ctx context.Context, role user.Role) ([]user.User, error)
}

type Service interface {
	Book(ctx context.Context, patientID uuid.UUID, req Request) (*Appointment, error)
	List(ctx context.Context) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo    Repository
	doctors DoctorDirectory
	now     func() time.Time
}

func NewService(repo Repository, doctors DoctorDirectory) Service {
	return &service{repo: repo, doctors: doctors, now: time.Now}
}

// Book resolves the named doctor inside the requested department and
// stores a pending appointment for the patient.
func (s *service) Book(ctx context.Context, patientID uuid.UUID, req Request) (*Appointment, error) {
	if !req.complete() {
		return nil, ErrIncompleteForm
	}

	doctor, err := s.findDoctor(ctx, req)
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		DoctorID:        doctor.ID,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		NIC:             strings.TrimSpace(req.NIC),
		DOB:             strings.TrimSpace(req.DOB),
		Gender:          strings.TrimSpace(req.Gender),
		AppointmentDate: strings.TrimSpace(req.AppointmentDate),
		Department:      strings.TrimSpace(req.Department),
		Doctor:          Doctor{FirstName: doctor.FirstName, LastName: doctor.LastName},
		HasVisited:      req.HasVisited,
		Address:         strings.TrimSpace(req.Address),
		Status:          StatusPending,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) findDoctor(ctx context.Context, req Request) (*user.User, error) {
	doctors, err := s.doctors.ListByRole(ctx, user.RoleDoctor)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	var matches []user.User
	for _, d := range doctors {
		if strings.EqualFold(d.FirstName, strings.TrimSpace(req.DoctorFirstName)) &&
			strings.EqualFold(d.LastName, strings.TrimSpace(req.DoctorLastName)) &&
			strings.EqualFold(d.DoctorDepartment, strings.TrimSpace(req.Department)) {
			matches = append(matches, d)
		}
	}

	switch len(matches) {
	case 0:
		return nil, ErrDoctorNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, ErrDoctorConflict
	}
}

func (s *service) List(ctx context.Context) ([]Appointment, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
