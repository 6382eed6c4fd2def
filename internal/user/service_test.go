package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() (*service, Repository) {
	repo := NewMemoryRepository()
	svc := NewService(repo).(*service)
	svc.cost = bcrypt.MinCost
	return svc, repo
}

func validProfile(email string) Profile {
	return Profile{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     email,
		Phone:     "9876543210",
		Password:  "password123",
		Gender:    "Female",
		DOB:       "1995-01-15",
		NIC:       "1234567890",
	}
}

func TestRegisterPatient(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	u, err := svc.RegisterPatient(ctx, validProfile(" Asha@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, RolePatient, u.Role)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.NotEqual(t, "password123", u.PasswordHash)

	stored, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, stored.Email)

	_, err = svc.RegisterPatient(ctx, validProfile("asha@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterPatient_IncompleteForm(t *testing.T) {
	svc, _ := newTestService()

	p := validProfile("a@example.com")
	p.NIC = "  "
	_, err := svc.RegisterPatient(context.Background(), p)
	assert.ErrorIs(t, err, ErrIncompleteForm)
}

func TestAddDoctor_RequiresDepartment(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddDoctor(ctx, validProfile("doc@example.com"))
	assert.ErrorIs(t, err, ErrIncompleteForm)

	p := validProfile("doc@example.com")
	p.DoctorDepartment = "Cardiology"
	doc, err := svc.AddDoctor(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, doc.Role)

	doctors, err := svc.Doctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Cardiology", doctors[0].DoctorDepartment)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddAdmin(ctx, validProfile("admin@example.com"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		creds   Credentials
		wantErr error
	}{
		{"ok", Credentials{"admin@example.com", "password123", "password123", RoleAdmin}, nil},
		{"email case", Credentials{"ADMIN@example.com", "password123", "password123", RoleAdmin}, nil},
		{"missing role", Credentials{"admin@example.com", "password123", "password123", ""}, ErrIncompleteForm},
		{"mismatch", Credentials{"admin@example.com", "password123", "password124", RoleAdmin}, ErrPasswordMismatch},
		{"wrong password", Credentials{"admin@example.com", "nope-nope", "nope-nope", RoleAdmin}, ErrInvalidCredentials},
		{"wrong role", Credentials{"admin@example.com", "password123", "password123", RolePatient}, ErrInvalidCredentials},
		{"unknown", Credentials{"ghost@example.com", "password123", "password123", RoleAdmin}, ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Login(ctx, tt.creds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, RoleAdmin, u.Role)
		})
	}
}
