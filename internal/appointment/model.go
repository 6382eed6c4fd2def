package appointment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

var (
	ErrIncompleteForm      = errors.New("incomplete appointment form")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorConflict      = errors.New("more than one doctor matches")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidStatus       = errors.New("invalid appointment status")
)

type Doctor struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Appointment struct {
	ID              uuid.UUID `json:"_id"`
	PatientID       uuid.UUID `json:"patientId"`
	DoctorID        uuid.UUID `json:"doctorId"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	NIC             string    `json:"nic"`
	DOB             string    `json:"dob"`
	Gender          string    `json:"gender"`
	AppointmentDate string    `json:"appointmentDate"`
	Department      string    `json:"department"`
	Doctor          Doctor    `json:"doctor"`
	HasVisited      bool      `json:"hasVisited"`
	Address         string    `json:"address"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Request is the booking form a patient submits.
type Request struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	NIC             string `json:"nic"`
	DOB             string `json:"dob"`
	Gender          string `json:"gender"`
	AppointmentDate string `json:"appointmentDate"`
	Department      string `json:"department"`
	DoctorFirstName string `json:"doctorFirstName"`
	DoctorLastName  string `json:"doctorLastName"`
	HasVisited      bool   `json:"hasVisited"`
	Address         string `json:"address"`
}

func (r Request) complete() bool {
	for _, v := range []string{
		r.FirstName, r.LastName, r.Email, r.Phone, r.NIC, r.DOB, r.Gender,
		r.AppointmentDate, r.Department, r.DoctorFirstName, r.DoctorLastName, r.Address,
	} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
