package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teknos/oncolly/internal/domain"
)

// sessionTTL bounds how long a persisted login stays valid without a fresh
// credential check.
const sessionTTL = 24 * time.Hour

// Service wires the activity catalogue, the remote API gateway, and the
// persisted session into the operations the screens call. It is owned by the
// single TUI update loop and never called concurrently.
type Service struct {
	registry *domain.Registry
	gw       Gateway
	sessions SessionStore
	idGen    IDGenerator
	clock    Clock

	session Session
	active  bool
}

// NewService constructs the application service.
func NewService(registry *domain.Registry, gw Gateway, sessions SessionStore, idGen IDGenerator, clock Clock) *Service {
	if registry == nil {
		registry = domain.DefaultRegistry()
	}
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		registry: registry,
		gw:       gw,
		sessions: sessions,
		idGen:    idGen,
		clock:    clock,
	}
}

// Registry exposes the fixed activity catalogue to the screens.
func (s *Service) Registry() *domain.Registry {
	return s.registry
}

// Session returns the active session.
func (s *Service) Session() (Session, bool) {
	return s.session, s.active
}

// Login checks credentials against the backend and persists the resulting
// session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, domain.ErrInvalidEmail
	}
	result, err := s.gw.Login(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	session := Session{
		Token:      result.Token,
		UserID:     result.UserID,
		Role:       result.Role,
		LoggedInAt: s.clock().UTC(),
	}
	s.gw.Authorize(session.Token)
	s.session = session
	s.active = true
	if s.sessions != nil {
		if err := s.sessions.Save(session); err != nil {
			return Session{}, fmt.Errorf("persist session: %w", err)
		}
	}
	return session, nil
}

// RestoreSession loads a persisted login younger than the session TTL.
// Expired sessions are cleared and reported as ErrSessionExpired.
func (s *Service) RestoreSession() (Session, bool, error) {
	if s.sessions == nil {
		return Session{}, false, nil
	}
	session, ok, err := s.sessions.Load()
	if err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return Session{}, false, nil
	}
	if s.clock().UTC().Sub(session.LoggedInAt) >= sessionTTL {
		if err := s.sessions.Clear(); err != nil {
			return Session{}, false, fmt.Errorf("clear expired session: %w", err)
		}
		return Session{}, false, ErrSessionExpired
	}
	s.gw.Authorize(session.Token)
	s.session = session
	s.active = true
	return session, true, nil
}

// Logout clears the persisted session and drops gateway authorization.
func (s *Service) Logout() error {
	s.session = Session{}
	s.active = false
	s.gw.Authorize("")
	if s.sessions == nil {
		return nil
	}
	if err := s.sessions.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SubmitActivity encodes the accumulated form entries into the submission
// envelope and hands it to the activity persistence endpoint. The form must
// have at least one entry.
func (s *Service) SubmitActivity(ctx context.Context, activityTypeID string, form domain.FormState) (domain.ActivityRecord, error) {
	if !s.active {
		return domain.ActivityRecord{}, ErrNotAuthenticated
	}
	if _, ok := s.registry.Lookup(activityTypeID); !ok {
		return domain.ActivityRecord{}, fmt.Errorf("%w: %q", ErrUnknownActivityType, activityTypeID)
	}
	encoded, err := form.Encode()
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	record, err := domain.NewActivityRecord(domain.RecordInput{
		ID:           s.idGen(),
		ActivityType: activityTypeID,
		Value:        encoded,
		PatientID:    s.session.UserID,
	}, s.clock())
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	if err := s.gw.CreateActivity(ctx, record); err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("create activity: %w", err)
	}
	return record, nil
}

// ListMyActivities fetches the logged-in patient's history, newest first.
func (s *Service) ListMyActivities(ctx context.Context) ([]domain.ActivityRecord, error) {
	if !s.active {
		return nil, ErrNotAuthenticated
	}
	return s.ListPatientActivities(ctx, s.session.UserID)
}

// ListPatientActivities fetches one patient's history, newest first.
func (s *Service) ListPatientActivities(ctx context.Context, patientID string) ([]domain.ActivityRecord, error) {
	records, err := s.gw.ListActivities(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OccurredAt.After(records[j].OccurredAt)
	})
	return records, nil
}

// DeleteActivity removes one persisted record.
func (s *Service) DeleteActivity(ctx context.Context, recordID string) error {
	if !s.active {
		return ErrNotAuthenticated
	}
	if err := s.gw.DeleteActivity(ctx, recordID); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// PatientProfile fetches the logged-in patient's profile.
func (s *Service) PatientProfile(ctx context.Context) (domain.Patient, error) {
	if !s.active {
		return domain.Patient{}, ErrNotAuthenticated
	}
	patient, err := s.gw.Patient(ctx, s.session.UserID)
	if err != nil {
		return domain.Patient{}, fmt.Errorf("patient profile: %w", err)
	}
	return patient, nil
}

// UpdatePatientProfile saves profile edits for the logged-in patient.
func (s *Service) UpdatePatientProfile(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	if !s.active {
		return domain.Patient{}, ErrNotAuthenticated
	}
	patient.ID = s.session.UserID
	if strings.TrimSpace(patient.Email) == "" || !strings.Contains(patient.Email, "@") {
		return domain.Patient{}, domain.ErrInvalidEmail
	}
	updated, err := s.gw.UpdatePatient(ctx, patient)
	if err != nil {
		return domain.Patient{}, fmt.Errorf("update patient profile: %w", err)
	}
	return updated, nil
}

// DoctorProfile fetches the logged-in doctor's profile.
func (s *Service) DoctorProfile(ctx context.Context) (domain.Doctor, error) {
	if !s.active {
		return domain.Doctor{}, ErrNotAuthenticated
	}
	doctor, err := s.gw.Doctor(ctx, s.session.UserID)
	if err != nil {
		return domain.Doctor{}, fmt.Errorf("doctor profile: %w", err)
	}
	return doctor, nil
}

// ListPatients fetches the doctor's patient roster, sorted by name.
func (s *Service) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	if !s.active {
		return nil, ErrNotAuthenticated
	}
	patients, err := s.gw.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	sort.SliceStable(patients, func(i, j int) bool {
		return strings.ToLower(patients[i].FullName()) < strings.ToLower(patients[j].FullName())
	})
	return patients, nil
}

// Agenda fetches the logged-in doctor's appointments, earliest first.
func (s *Service) Agenda(ctx context.Context) ([]domain.Appointment, error) {
	if !s.active {
		return nil, ErrNotAuthenticated
	}
	appointments, err := s.gw.ListAppointments(ctx, s.session.UserID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].StartTime.Before(appointments[j].StartTime)
	})
	return appointments, nil
}

// ScheduleAppointment creates one agenda entry for the logged-in doctor.
func (s *Service) ScheduleAppointment(ctx context.Context, in domain.AppointmentInput) (domain.Appointment, error) {
	if !s.active {
		return domain.Appointment{}, ErrNotAuthenticated
	}
	in.ID = s.idGen()
	in.DoctorID = s.session.UserID
	appointment, err := domain.NewAppointment(in)
	if err != nil {
		return domain.Appointment{}, err
	}
	if err := s.gw.CreateAppointment(ctx, appointment); err != nil {
		return domain.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	return appointment, nil
}
