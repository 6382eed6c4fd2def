package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "Patient"
	RoleAdmin   Role = "Admin"
	RoleDoctor  Role = "Doctor"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// User is an account of any role. PasswordHash never leaves the process.
type User struct {
	ID               uuid.UUID `json:"_id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	NIC              string    `json:"nic"`
	DOB              string    `json:"dob"`
	Gender           string    `json:"gender"`
	Role             Role      `json:"role"`
	DoctorDepartment string    `json:"doctorDepartment,omitempty"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Profile is the form shared by patient registration and the admin
// screens that add staff.
type Profile struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Password         string `json:"password"`
	Gender           string `json:"gender"`
	DOB              string `json:"dob"`
	NIC              string `json:"nic"`
	DoctorDepartment string `json:"doctorDepartment,omitempty"`
}

func (p Profile) complete() bool {
	for _, v := range []string{p.FirstName, p.LastName, p.Email, p.Phone, p.Password, p.Gender, p.DOB, p.NIC} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

type Credentials struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            Role   `json:"role"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
