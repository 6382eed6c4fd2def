package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const appointmentCols = `id, patient_id, doctor_id, first_name, last_name, email, phone, nic, dob, gender,
	appointment_date, department, doctor_first_name, doctor_last_name, has_visited, address, status, created_at`

func (r *postgresRepo) Create(ctx context.Context, a *Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		a.ID, a.PatientID, a.DoctorID, a.FirstName, a.LastName, a.Email, a.Phone, a.NIC, a.DOB, a.Gender,
		a.AppointmentDate, a.Department, a.Doctor.FirstName, a.Doctor.LastName, a.HasVisited, a.Address,
		string(a.Status), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *postgresRepo) FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	return a, err
}

func (r *postgresRepo) List(ctx context.Context) ([]Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+appointmentCols+` FROM appointments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	return expectOne(res)
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (*Appointment, error) {
	var (
		a      Appointment
		status string
	)
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.FirstName, &a.LastName, &a.Email, &a.Phone,
		&a.NIC, &a.DOB, &a.Gender, &a.AppointmentDate, &a.Department, &a.Doctor.FirstName,
		&a.Doctor.LastName, &a.HasVisited, &a.Address, &status, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}
