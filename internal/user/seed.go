package user

import (
	"context"
	"errors"
)

// DemoAccounts are created on startup when demo seeding is enabled.
var DemoAccounts = []struct {
	Role    Role
	Profile Profile
}{
	{RolePatient, Profile{
		FirstName: "Demo", LastName: "Patient", Email: "patient@demo.com", Phone: "9876543210",
		Password: "password123", Gender: "Male", DOB: "1995-01-15", NIC: "1234567890",
	}},
	{RoleDoctor, Profile{
		FirstName: "Sarah", LastName: "Johnson", Email: "doctor@demo.com", Phone: "9876543211",
		Password: "password123", Gender: "Female", DOB: "1985-05-20", NIC: "0987654321",
		DoctorDepartment: "Cardiology",
	}},
	{RoleAdmin, Profile{
		FirstName: "Admin", LastName: "User", Email: "admin@demo.com", Phone: "9876543212",
		Password: "admin123", Gender: "Male", DOB: "1980-03-10", NIC: "1122334455",
	}},
}

// SeedDemo creates the demo accounts, skipping any whose email exists.
// It returns how many were created.
func SeedDemo(ctx context.Context, svc Service) (int, error) {
	created := 0
	for _, acc := range DemoAccounts {
		var err error
		switch acc.Role {
		case RolePatient:
			_, err = svc.RegisterPatient(ctx, acc.Profile)
		case RoleDoctor:
			_, err = svc.AddDoctor(ctx, acc.Profile)
		case RoleAdmin:
			_, err = svc.AddAdmin(ctx, acc.Profile)
		}
		if errors.Is(err, ErrEmailTaken) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
