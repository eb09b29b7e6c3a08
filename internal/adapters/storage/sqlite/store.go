// Package sqlite backs the bundled development API server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teknos/oncolly/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// ErrNotFound reports a missing row.
var ErrNotFound = errors.New("not found")

// User is one dev-server account row.
type User struct {
	ID           string
	Role         domain.Role
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
	DateOfBirth  string
}

// Patient maps the account row to the patient wire shape.
func (u User) Patient() domain.Patient {
	return domain.Patient{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		DateOfBirth: u.DateOfBirth,
	}
}

// Doctor maps the account row to the doctor wire shape.
func (u User) Doctor() domain.Doctor {
	return domain.Doctor{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// Store persists dev-server users, activities, and appointments.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenInMemory opens a throwaway in-memory database for tests.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate ensures the schema exists.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			role TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			date_of_birth TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			value TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activities_patient ON activities(patient_id, occurred_at);`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			doctor_id TEXT NOT NULL,
			patient_id TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled',
			title TEXT NOT NULL,
			doctor_notes TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_doctor ON appointments(doctor_id, start_time);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateUser inserts one account row.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	now := ts(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users(id, role, email, password_hash, first_name, last_name, phone_number, date_of_birth, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, string(u.Role), strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash,
		u.FirstName, u.LastName, u.PhoneNumber, u.DateOfBirth, now, now)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UserByEmail resolves one account by login email.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, role, email, password_hash, first_name, last_name, phone_number, date_of_birth
		FROM users WHERE email = ?
	`, strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// UserByID resolves one account by id.
func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, role, email, password_hash, first_name, last_name, phone_number, date_of_birth
		FROM users WHERE id = ?
	`, id)
	return scanUser(row)
}

// ListPatients lists all patient accounts ordered by name.
func (s *Store) ListPatients(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, email, password_hash, first_name, last_name, phone_number, date_of_birth
		FROM users WHERE role = ? ORDER BY last_name, first_name
	`, string(domain.RolePatient))
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdatePatient saves editable profile fields on one patient account.
func (s *Store) UpdatePatient(ctx context.Context, p domain.Patient) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = ?, last_name = ?, email = ?, phone_number = ?, date_of_birth = ?, updated_at = ?
		WHERE id = ? AND role = ?
	`, p.FirstName, p.LastName, strings.ToLower(strings.TrimSpace(p.Email)), p.PhoneNumber, p.DateOfBirth,
		ts(time.Now()), p.ID, string(domain.RolePatient))
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return translateNoRows(res)
}

// CreateActivity inserts one activity record.
func (s *Store) CreateActivity(ctx context.Context, rec domain.ActivityRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities(id, patient_id, activity_type, value, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.PatientID, rec.ActivityType, rec.Value, ts(rec.OccurredAt))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListActivitiesByPatient lists one patient's records, newest first.
func (s *Store) ListActivitiesByPatient(ctx context.Context, patientID string) ([]domain.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, activity_type, value, occurred_at
		FROM activities WHERE patient_id = ? ORDER BY occurred_at DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ActivityRecord
	for rows.Next() {
		var rec domain.ActivityRecord
		var occurredAt string
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.ActivityType, &rec.Value, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		rec.OccurredAt = parseTS(occurredAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ActivityByID resolves one record by id.
func (s *Store) ActivityByID(ctx context.Context, id string) (domain.ActivityRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, patient_id, activity_type, value, occurred_at
		FROM activities WHERE id = ?
	`, id)
	var rec domain.ActivityRecord
	var occurredAt string
	if err := row.Scan(&rec.ID, &rec.PatientID, &rec.ActivityType, &rec.Value, &occurredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ActivityRecord{}, ErrNotFound
		}
		return domain.ActivityRecord{}, fmt.Errorf("load activity: %w", err)
	}
	rec.OccurredAt = parseTS(occurredAt)
	return rec, nil
}

// DeleteActivity removes one record.
func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return translateNoRows(res)
}

// CreateAppointment inserts one agenda entry.
func (s *Store) CreateAppointment(ctx context.Context, a domain.Appointment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appointments(id, doctor_id, patient_id, start_time, end_time, status, title)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.DoctorID, a.PatientID, ts(a.StartTime), ts(a.EndTime), a.Status, a.Title)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// ListAppointmentsByDoctor lists one doctor's agenda, earliest first, with
// patient names joined in.
func (s *Store) ListAppointmentsByDoctor(ctx context.Context, doctorID string) ([]domain.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.doctor_id, a.patient_id, a.start_time, a.end_time, a.status, a.title,
			COALESCE(p.first_name || ' ' || p.last_name, ''),
			COALESCE(d.first_name || ' ' || d.last_name, '')
		FROM appointments a
		LEFT JOIN users p ON p.id = a.patient_id
		LEFT JOIN users d ON d.id = a.doctor_id
		WHERE a.doctor_id = ?
		ORDER BY a.start_time
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Appointment
	for rows.Next() {
		var a domain.Appointment
		var start, end string
		if err := rows.Scan(&a.ID, &a.DoctorID, &a.PatientID, &start, &end, &a.Status, &a.Title, &a.PatientName, &a.DoctorName); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		a.StartTime = parseTS(start)
		a.EndTime = parseTS(end)
		out = append(out, a)
	}
	return out, rows.Err()
}

// scanner covers sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &role, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.PhoneNumber, &u.DateOfBirth)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.ParseRole(role)
	return u, nil
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTS(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
