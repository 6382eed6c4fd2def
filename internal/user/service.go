package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrIncompleteForm     = errors.New("incomplete form")
	ErrPasswordMismatch   = errors.New("password and confirmation differ")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Service interface {
	RegisterPatient(ctx context.Context, p Profile) (*User, error)
	Login(ctx context.Context, c Credentials) (*User, error)
	AddAdmin(ctx context.Context, p Profile) (*User, error)
	AddDoctor(ctx context.Context, p Profile) (*User, error)
	Doctors(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
}

type service struct {
	repo Repository
	cost int
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, cost: bcrypt.DefaultCost, now: time.Now}
}

func (s *service) RegisterPatient(ctx context.Context, p Profile) (*User, error) {
	p.DoctorDepartment = ""
	return s.create(ctx, p, RolePatient)
}

func (s *service) AddAdmin(ctx context.Context, p Profile) (*User, error) {
	p.DoctorDepartment = ""
	return s.create(ctx, p, RoleAdmin)
}

func (s *service) AddDoctor(ctx context.Context, p Profile) (*User, error) {
	if strings.TrimSpace(p.DoctorDepartment) == "" {
		return nil, ErrIncompleteForm
	}
	return s.create(ctx, p, RoleDoctor)
}

func (s *service) create(ctx context.Context, p Profile, role Role) (*User, error) {
	if !p.complete() {
		return nil, ErrIncompleteForm
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:               uuid.New(),
		FirstName:        strings.TrimSpace(p.FirstName),
		LastName:         strings.TrimSpace(p.LastName),
		Email:            normalizeEmail(p.Email),
		Phone:            strings.TrimSpace(p.Phone),
		NIC:              strings.TrimSpace(p.NIC),
		DOB:              strings.TrimSpace(p.DOB),
		Gender:           strings.TrimSpace(p.Gender),
		Role:             role,
		DoctorDepartment: strings.TrimSpace(p.DoctorDepartment),
		PasswordHash:     string(hash),
		CreatedAt:        s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the credentials against an account of the requested role.
func (s *service) Login(ctx context.Context, c Credentials) (*User, error) {
	if c.Email == "" || c.Password == "" || c.ConfirmPassword == "" || c.Role == "" {
		return nil, ErrIncompleteForm
	}
	if c.Password != c.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(c.Email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.Role != c.Role {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *service) Doctors(ctx context.Context) ([]User, error) {
	return s.repo.ListByRole(ctx, RoleDoctor)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}
