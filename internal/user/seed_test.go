package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemo_Idempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	n, err := SeedDemo(ctx, svc)
	require.NoError(t, err)
	assert.Equal(t, len(DemoAccounts), n)

	n, err = SeedDemo(ctx, svc)
	require.NoError(t, err)
	assert.Zero(t, n)

	admin, err := svc.Login(ctx, Credentials{Email: "admin@demo.com", Password: "admin123", ConfirmPassword: "admin123", Role: RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "Admin", admin.FirstName)

	doctors, err := svc.Doctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Cardiology", doctors[0].DoctorDepartment)
}
