package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRow(u User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "nic", "dob",
		"gender", "role", "doctor_department", "password_hash", "created_at"}).
		AddRow(u.ID.String(), u.FirstName, u.LastName, u.Email, u.Phone, u.NIC, u.DOB,
			u.Gender, string(u.Role), u.DoctorDepartment, u.PasswordHash, u.CreatedAt)
}

func TestPostgresRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	u := &User{ID: uuid.New(), Email: "a@example.com", Role: RolePatient, CreatedAt: time.Now()}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), u))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})
	assert.ErrorIs(t, repo.Create(context.Background(), u), ErrEmailTaken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	want := User{ID: uuid.New(), FirstName: "Sarah", Email: "doc@example.com", Role: RoleDoctor,
		DoctorDepartment: "Cardiology", CreatedAt: time.Now().UTC()}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("doc@example.com").
		WillReturnRows(userRow(want))

	got, err := repo.FindByEmail(context.Background(), "doc@example.com")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, RoleDoctor, got.Role)
	assert.Equal(t, "Cardiology", got.DoctorDepartment)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
