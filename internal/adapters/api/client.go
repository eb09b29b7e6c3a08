// Package api implements the HTTP client for the remote Oncolly REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teknos/oncolly/internal/app"
	"github.com/teknos/oncolly/internal/domain"
)

// defaultTimeout bounds each request round trip.
const defaultTimeout = 15 * time.Second

// maxResponseBodyBytes limits decoded JSON payload size for fail-closed
// response handling.
const maxResponseBodyBytes int64 = 1 << 20

// Client talks to the Oncolly backend. The bearer token is set once per
// login; all calls are issued from the single TUI command loop.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
}

// New constructs a client for the given base URL.
func New(baseURL string) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Authorize sets the bearer token attached to subsequent requests. An empty
// token drops authorization.
func (c *Client) Authorize(token string) {
	c.token = strings.TrimSpace(token)
}

// Login checks credentials and returns the session grant.
func (c *Client) Login(ctx context.Context, email, password string) (app.LoginResult, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return app.LoginResult{}, err
	}
	return app.LoginResult{
		UserID: resp.ID.String(),
		Role:   domain.ParseRole(resp.Role),
		Token:  resp.Token,
	}, nil
}

// Patient fetches one patient profile.
func (c *Client) Patient(ctx context.Context, id string) (domain.Patient, error) {
	var dto patientDTO
	if err := c.do(ctx, http.MethodGet, "/api/patients/"+url.PathEscape(id), nil, &dto); err != nil {
		return domain.Patient{}, err
	}
	return dto.toDomain(), nil
}

// UpdatePatient saves profile edits.
func (c *Client) UpdatePatient(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	var dto patientDTO
	err := c.do(ctx, http.MethodPut, "/api/patients/"+url.PathEscape(patient.ID), patientFromDomain(patient), &dto)
	if err != nil {
		return domain.Patient{}, err
	}
	return dto.toDomain(), nil
}

// Doctor fetches one doctor profile.
func (c *Client) Doctor(ctx context.Context, id string) (domain.Doctor, error) {
	var dto doctorDTO
	if err := c.do(ctx, http.MethodGet, "/api/doctors/"+url.PathEscape(id), nil, &dto); err != nil {
		return domain.Doctor{}, err
	}
	return domain.Doctor(dto), nil
}

// ListPatients fetches the patient roster.
func (c *Client) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	var dtos []patientDTO
	if err := c.do(ctx, http.MethodGet, "/api/patients", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Patient, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, dto.toDomain())
	}
	return out, nil
}

// CreateActivity submits one activity record.
func (c *Client) CreateActivity(ctx context.Context, record domain.ActivityRecord) error {
	return c.do(ctx, http.MethodPost, "/api/activities", activityFromDomain(record), nil)
}

// ListActivities fetches one patient's recorded activities.
func (c *Client) ListActivities(ctx context.Context, patientID string) ([]domain.ActivityRecord, error) {
	var dtos []activityDTO
	if err := c.do(ctx, http.MethodGet, "/api/activities/patient/"+url.PathEscape(patientID), nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.ActivityRecord, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, dto.toDomain())
	}
	return out, nil
}

// DeleteActivity removes one persisted record.
func (c *Client) DeleteActivity(ctx context.Context, recordID string) error {
	return c.do(ctx, http.MethodDelete, "/api/activities/"+url.PathEscape(recordID), nil, nil)
}

// ListAppointments fetches one doctor's agenda.
func (c *Client) ListAppointments(ctx context.Context, doctorID string) ([]domain.Appointment, error) {
	var dtos []appointmentDTO
	if err := c.do(ctx, http.MethodGet, "/api/appointments/doctor/"+url.PathEscape(doctorID), nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Appointment, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, dto.toDomain())
	}
	return out, nil
}

// CreateAppointment creates one agenda entry.
func (c *Client) CreateAppointment(ctx context.Context, appointment domain.Appointment) error {
	return c.do(ctx, http.MethodPost, "/api/appointments", appointmentFromDomain(appointment), nil)
}

// do issues one JSON round trip and decodes the response into out when
// non-nil. Non-2xx responses become *Error values.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp.StatusCode, payload)
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
