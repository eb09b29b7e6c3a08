// Package httpapi provides the REST adapter for the bundled development
// API server. It mirrors the wire surface of the hosted Oncolly backend.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/teknos/oncolly/internal/adapters/server/auth"
	"github.com/teknos/oncolly/internal/adapters/storage/sqlite"
	"github.com/teknos/oncolly/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed
// request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the API subrouter mounted under `/api`.
type Handler struct {
	store *sqlite.Store
	auth  *auth.Authenticator
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse serves the user id as a bare number when it is numeric,
// matching what the hosted backend sends.
type loginResponse struct {
	ID    any    `json:"id"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

type patientDTO struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

type doctorDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type activityDTO struct {
	ID           string `json:"id"`
	ActivityType string `json:"activityType"`
	Value        string `json:"value"`
	OccurredAt   string `json:"occurredAt"`
	PatientID    string `json:"patientId,omitempty"`
}

type appointmentDTO struct {
	ID          string `json:"id"`
	DoctorID    string `json:"doctorId,omitempty"`
	DoctorName  string `json:"doctorName,omitempty"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName,omitempty"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Status      string `json:"status,omitempty"`
	Title       string `json:"title"`
}

// NewHandler constructs the API adapter over the local store.
func NewHandler(store *sqlite.Store, authenticator *auth.Authenticator) *Handler {
	return &Handler{
		store: store,
		auth:  authenticator,
	}
}

// ServeHTTP routes one API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)

	if path == "auth/login" {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleLogin(w, r)
		return
	}

	claims, err := h.authenticate(r)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, APIError{
			Code:    "invalid_token",
			Message: "missing or invalid bearer token",
		})
		return
	}

	switch {
	case path == "patients":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListPatients(w, r, claims)
	case strings.HasPrefix(path, "patients/"):
		id := strings.TrimPrefix(path, "patients/")
		switch r.Method {
		case http.MethodGet:
			h.handleGetPatient(w, r, claims, id)
		case http.MethodPut:
			h.handleUpdatePatient(w, r, claims, id)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPut)
		}
	case strings.HasPrefix(path, "doctors/"):
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleGetDoctor(w, r, strings.TrimPrefix(path, "doctors/"))
	case path == "activities":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCreateActivity(w, r, claims)
	case strings.HasPrefix(path, "activities/patient/"):
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListActivities(w, r, claims, strings.TrimPrefix(path, "activities/patient/"))
	case strings.HasPrefix(path, "activities/"):
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w, http.MethodDelete)
			return
		}
		h.handleDeleteActivity(w, r, claims, strings.TrimPrefix(path, "activities/"))
	case path == "appointments":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCreateAppointment(w, r, claims)
	case strings.HasPrefix(path, "appointments/doctor/"):
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListAppointments(w, r, claims, strings.TrimPrefix(path, "appointments/doctor/"))
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// authenticate verifies the bearer token on one request.
func (h *Handler) authenticate(r *http.Request) (auth.Claims, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return h.auth.Verify(strings.TrimSpace(raw))
}

// handleLogin serves POST `/auth/login`.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			err = auth.ErrBadCredentials
		}
		writeErrorFrom(w, err)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeErrorFrom(w, err)
		return
	}
	token, err := h.auth.Issue(user.ID, user.Role)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		ID:    wireUserID(user.ID),
		Role:  string(user.Role),
		Token: token,
	})
}

// handleListPatients serves GET `/patients`, doctor role only.
func (h *Handler) handleListPatients(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	if claims.Role != domain.RoleDoctor {
		writeForbidden(w)
		return
	}
	users, err := h.store.ListPatients(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	out := make([]patientDTO, 0, len(users))
	for _, u := range users {
		out = append(out, patientDTO(u.Patient()))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetPatient serves GET `/patients/{id}`, self or doctor.
func (h *Handler) handleGetPatient(w http.ResponseWriter, r *http.Request, claims auth.Claims, id string) {
	if claims.Role != domain.RoleDoctor && claims.UserID != id {
		writeForbidden(w)
		return
	}
	user, err := h.store.UserByID(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patientDTO(user.Patient()))
}

// handleUpdatePatient serves PUT `/patients/{id}`, self only.
func (h *Handler) handleUpdatePatient(w http.ResponseWriter, r *http.Request, claims auth.Claims, id string) {
	if claims.UserID != id {
		writeForbidden(w)
		return
	}
	var dto patientDTO
	if err := decodeJSONBody(r.Context(), w, r, &dto); err != nil {
		writeErrorFrom(w, err)
		return
	}
	dto.ID = id
	if err := h.store.UpdatePatient(r.Context(), domain.Patient(dto)); err != nil {
		writeErrorFrom(w, err)
		return
	}
	user, err := h.store.UserByID(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patientDTO(user.Patient()))
}

// handleGetDoctor serves GET `/doctors/{id}`.
func (h *Handler) handleGetDoctor(w http.ResponseWriter, r *http.Request, id string) {
	user, err := h.store.UserByID(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if user.Role != domain.RoleDoctor {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "doctor not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, doctorDTO(user.Doctor()))
}

// handleCreateActivity serves POST `/activities`.
func (h *Handler) handleCreateActivity(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	var dto activityDTO
	if err := decodeJSONBody(r.Context(), w, r, &dto); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if dto.PatientID == "" {
		dto.PatientID = claims.UserID
	}
	occurredAt, err := time.Parse(time.RFC3339, dto.OccurredAt)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "occurredAt must be RFC 3339",
		})
		return
	}
	record, err := domain.NewActivityRecord(domain.RecordInput{
		ID:           dto.ID,
		ActivityType: dto.ActivityType,
		Value:        dto.Value,
		PatientID:    dto.PatientID,
	}, occurredAt)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if err := h.store.CreateActivity(r.Context(), record); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, activityDTO{
		ID:           record.ID,
		ActivityType: record.ActivityType,
		Value:        record.Value,
		OccurredAt:   record.OccurredAt.Format(time.RFC3339),
		PatientID:    record.PatientID,
	})
}

// handleListActivities serves GET `/activities/patient/{id}`, self or doctor.
func (h *Handler) handleListActivities(w http.ResponseWriter, r *http.Request, claims auth.Claims, patientID string) {
	if claims.Role != domain.RoleDoctor && claims.UserID != patientID {
		writeForbidden(w)
		return
	}
	records, err := h.store.ListActivitiesByPatient(r.Context(), patientID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	out := make([]activityDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, activityDTO{
			ID:           rec.ID,
			ActivityType: rec.ActivityType,
			Value:        rec.Value,
			OccurredAt:   rec.OccurredAt.Format(time.RFC3339),
			PatientID:    rec.PatientID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeleteActivity serves DELETE `/activities/{id}`, owner or doctor.
func (h *Handler) handleDeleteActivity(w http.ResponseWriter, r *http.Request, claims auth.Claims, id string) {
	record, err := h.store.ActivityByID(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if claims.Role != domain.RoleDoctor && claims.UserID != record.PatientID {
		writeForbidden(w)
		return
	}
	if err := h.store.DeleteActivity(r.Context(), id); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateAppointment serves POST `/appointments`, doctor role only.
func (h *Handler) handleCreateAppointment(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	if claims.Role != domain.RoleDoctor {
		writeForbidden(w)
		return
	}
	var dto appointmentDTO
	if err := decodeJSONBody(r.Context(), w, r, &dto); err != nil {
		writeErrorFrom(w, err)
		return
	}
	appointment, err := domain.NewAppointment(domain.AppointmentInput{
		ID:        dto.ID,
		DoctorID:  claims.UserID,
		PatientID: dto.PatientID,
		StartTime: parseWireTime(dto.StartTime),
		EndTime:   parseWireTime(dto.EndTime),
		Title:     dto.Title,
	})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if err := h.store.CreateAppointment(r.Context(), appointment); err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointmentFromDomain(appointment))
}

// handleListAppointments serves GET `/appointments/doctor/{id}`, self only.
func (h *Handler) handleListAppointments(w http.ResponseWriter, r *http.Request, claims auth.Claims, doctorID string) {
	if claims.Role != domain.RoleDoctor || claims.UserID != doctorID {
		writeForbidden(w)
		return
	}
	appointments, err := h.store.ListAppointmentsByDoctor(r.Context(), doctorID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	out := make([]appointmentDTO, 0, len(appointments))
	for _, a := range appointments {
		out = append(out, appointmentFromDomain(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func appointmentFromDomain(a domain.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		DoctorName:  a.DoctorName,
		PatientID:   a.PatientID,
		PatientName: a.PatientName,
		StartTime:   a.StartTime.Format(time.RFC3339),
		EndTime:     a.EndTime.Format(time.RFC3339),
		Status:      a.Status,
		Title:       a.Title,
	}
}

// wireUserID serves numeric account ids as bare numbers.
func wireUserID(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func parseWireTime(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, auth.ErrBadCredentials):
		writeJSONError(w, http.StatusUnauthorized, APIError{
			Code:    "invalid_credentials",
			Message: "email or password is incorrect",
		})
	case errors.Is(err, auth.ErrInvalidToken):
		writeJSONError(w, http.StatusUnauthorized, APIError{
			Code:    "invalid_token",
			Message: "missing or invalid bearer token",
		})
	case errors.Is(err, sqlite.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, errBadRequestBody):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeForbidden writes a structured 403 response.
func writeForbidden(w http.ResponseWriter) {
	writeJSONError(w, http.StatusForbidden, APIError{
		Code:    "forbidden",
		Message: "not allowed for this account",
	})
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// errBadRequestBody marks malformed request payloads.
var errBadRequestBody = errors.New("invalid request body")

// decodeJSONBody decodes one required JSON request body.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(errBadRequestBody, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", errBadRequestBody)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
