package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/teknos/oncolly/internal/app"
	"github.com/teknos/oncolly/internal/domain"
)

// Service is the application surface the terminal client drives.
type Service interface {
	Registry() *domain.Registry
	Session() (app.Session, bool)
	Login(ctx context.Context, email, password string) (app.Session, error)
	RestoreSession() (app.Session, bool, error)
	Logout() error
	SubmitActivity(ctx context.Context, activityTypeID string, form domain.FormState) (domain.ActivityRecord, error)
	ListMyActivities(ctx context.Context) ([]domain.ActivityRecord, error)
	ListPatientActivities(ctx context.Context, patientID string) ([]domain.ActivityRecord, error)
	DeleteActivity(ctx context.Context, recordID string) error
	PatientProfile(ctx context.Context) (domain.Patient, error)
	UpdatePatientProfile(ctx context.Context, patient domain.Patient) (domain.Patient, error)
	DoctorProfile(ctx context.Context) (domain.Doctor, error)
	ListPatients(ctx context.Context) ([]domain.Patient, error)
	Agenda(ctx context.Context) ([]domain.Appointment, error)
	ScheduleAppointment(ctx context.Context, in domain.AppointmentInput) (domain.Appointment, error)
}

// screen identifies the active view.
type screen int

// screenLogin and related constants define the view set.
const (
	screenLogin screen = iota
	screenPicker
	screenForm
	screenHistory
	screenProfile
	screenRoster
	screenPatient
	screenAgenda
	screenAppointment
	screenAbout
)

// profile-form field indexes used for focused form actions.
const (
	profileFieldFirstName = iota
	profileFieldLastName
	profileFieldEmail
	profileFieldPhone
	profileFieldDOB
)

// appointment-form field indexes.
const (
	apptFieldPatient = iota
	apptFieldTitle
	apptFieldDate
	apptFieldStart
	apptFieldEnd
)

// Model is the single terminal client model. One screen is active at a
// time; every remote call runs as a tea.Cmd and reports back via a msg.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	dateFormat string
	showGlyphs bool

	screen  screen
	session app.Session
	authed  bool

	loginInputs []textinput.Model
	loginFocus  int

	types       []domain.ActivityType
	pickerIndex int

	form activityForm
	// formGen increments per opened form so stale stopwatch ticks are dropped.
	formGen int

	records        []domain.ActivityRecord
	historyIndex   int
	historyMine    bool
	historyPatient domain.Patient
	// pendingDelete holds the record id armed by the first delete press.
	pendingDelete string

	profile       domain.Patient
	profileInputs []textinput.Model
	profileFocus  int

	patients    []domain.Patient
	rosterIndex int
	agenda      []domain.Appointment
	agendaIndex int
	apptInputs  []textinput.Model
	apptFocus   int

	markdown markdownRenderer

	// inFlight debounces submits so a second enter cannot double-post.
	inFlight bool
}

// loginResultMsg carries the login outcome.
type loginResultMsg struct {
	session app.Session
	err     error
}

// sessionRestoredMsg carries a persisted session check.
type sessionRestoredMsg struct {
	session app.Session
	ok      bool
}

// recordsLoadedMsg carries one activity history listing.
type recordsLoadedMsg struct {
	patient domain.Patient
	mine    bool
	records []domain.ActivityRecord
	err     error
}

// profileLoadedMsg carries the logged-in patient profile.
type profileLoadedMsg struct {
	patient domain.Patient
	err     error
}

// profileSavedMsg carries a profile edit outcome.
type profileSavedMsg struct {
	patient domain.Patient
	err     error
}

// rosterLoadedMsg carries the doctor's patient roster.
type rosterLoadedMsg struct {
	patients []domain.Patient
	err      error
}

// agendaLoadedMsg carries the doctor's appointment agenda.
type agendaLoadedMsg struct {
	appointments []domain.Appointment
	err          error
}

// submitResultMsg carries an activity submission outcome.
type submitResultMsg struct {
	record domain.ActivityRecord
	err    error
}

// deleteResultMsg carries an activity deletion outcome.
type deleteResultMsg struct {
	err error
}

// appointmentResultMsg carries an appointment creation outcome.
type appointmentResultMsg struct {
	err error
}

// NewModel constructs the terminal client over the given service.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false

	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "email"
	email.CharLimit = 120
	email.Focus()
	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "password"
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword

	m := Model{
		svc:         svc,
		status:      "loading...",
		help:        h,
		keys:        newKeyMap(),
		dateFormat:  "2006-01-02 15:04",
		showGlyphs:  true,
		screen:      screenLogin,
		loginInputs: []textinput.Model{email, password},
		types:       svc.Registry().Types(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.restoreSession
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionRestoredMsg:
		if !msg.ok {
			m.status = "sign in"
			return m, nil
		}
		m.session = msg.session
		m.authed = true
		return m.enterHome()

	case loginResultMsg:
		m.inFlight = false
		if msg.err != nil {
			m.status = loginFailureStatus(msg.err)
			return m, nil
		}
		m.session = msg.session
		m.authed = true
		m.loginInputs[1].SetValue("")
		return m.enterHome()

	case recordsLoadedMsg:
		if msg.err != nil {
			m.status = "load history failed: " + msg.err.Error()
			return m, nil
		}
		m.records = msg.records
		m.historyMine = msg.mine
		m.historyPatient = msg.patient
		m.pendingDelete = ""
		m.historyIndex = clamp(m.historyIndex, 0, len(m.records)-1)
		if msg.mine {
			m.screen = screenHistory
		} else {
			m.screen = screenPatient
		}
		m.status = fmt.Sprintf("%d entries", len(m.records))
		return m, nil

	case profileLoadedMsg:
		if msg.err != nil {
			m.status = "load profile failed: " + msg.err.Error()
			return m, nil
		}
		m.profile = msg.patient
		m.startProfileForm()
		return m, nil

	case profileSavedMsg:
		m.inFlight = false
		if msg.err != nil {
			m.status = "save profile failed: " + msg.err.Error()
			return m, nil
		}
		m.profile = msg.patient
		m.status = "profile saved"
		return m.enterHome()

	case rosterLoadedMsg:
		if msg.err != nil {
			m.status = "load patients failed: " + msg.err.Error()
			return m, nil
		}
		m.patients = msg.patients
		m.rosterIndex = clamp(m.rosterIndex, 0, len(m.patients)-1)
		m.screen = screenRoster
		m.status = fmt.Sprintf("%d patients", len(m.patients))
		return m, nil

	case agendaLoadedMsg:
		if msg.err != nil {
			m.status = "load agenda failed: " + msg.err.Error()
			return m, nil
		}
		m.agenda = msg.appointments
		m.agendaIndex = clamp(m.agendaIndex, 0, len(m.agenda)-1)
		m.screen = screenAgenda
		m.status = fmt.Sprintf("%d appointments", len(m.agenda))
		return m, nil

	case submitResultMsg:
		m.inFlight = false
		if msg.err != nil {
			m.status = submitFailureStatus(msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("%s saved", m.form.activity.Title)
		m.form = activityForm{}
		m.screen = screenPicker
		return m, nil

	case deleteResultMsg:
		m.inFlight = false
		if msg.err != nil {
			m.status = "delete failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "entry deleted"
		if m.historyMine {
			return m, m.loadMyRecords
		}
		return m, m.loadPatientRecords(m.historyPatient)

	case appointmentResultMsg:
		m.inFlight = false
		if msg.err != nil {
			m.status = "schedule failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "appointment scheduled"
		return m, m.loadAgenda

	case stopwatchTickMsg:
		return m.handleStopwatchTick(msg)

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	default:
		return m, nil
	}
}

// handleKey routes one keypress to the active screen.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits, even inside forms.
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.screen {
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenForm:
		return m.handleFormKey(msg)
	case screenProfile:
		return m.handleProfileKey(msg)
	case screenAppointment:
		return m.handleAppointmentKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

// handleBrowseKey handles the list-style screens where plain letters are
// commands rather than text.
func (m Model) handleBrowseKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.back):
		if m.help.ShowAll {
			m.help.ShowAll = false
			return m, nil
		}
		return m.enterHome()
	case key.Matches(msg, m.keys.logout):
		return m.logout()
	case key.Matches(msg, m.keys.about):
		m.screen = screenAbout
		m.status = "about"
		return m, nil
	}

	switch m.screen {
	case screenPicker:
		return m.handlePickerKey(msg)
	case screenHistory, screenPatient:
		return m.handleHistoryKey(msg)
	case screenRoster:
		return m.handleRosterKey(msg)
	case screenAgenda:
		return m.handleAgendaKey(msg)
	default:
		return m, nil
	}
}

// handlePickerKey drives the patient activity picker.
func (m Model) handlePickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.moveDown):
		if m.pickerIndex < len(m.types)-1 {
			m.pickerIndex++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.pickerIndex > 0 {
			m.pickerIndex--
		}
		return m, nil
	case key.Matches(msg, m.keys.choose):
		if len(m.types) == 0 {
			return m, nil
		}
		m.startActivityForm(m.types[m.pickerIndex])
		return m, nil
	case key.Matches(msg, m.keys.history):
		m.status = "loading history..."
		return m, m.loadMyRecords
	case key.Matches(msg, m.keys.profile):
		m.status = "loading profile..."
		return m, m.loadProfile
	default:
		return m, nil
	}
}

// handleHistoryKey drives both the patient's own history and the doctor's
// per-patient detail listing.
func (m Model) handleHistoryKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.moveDown):
		if m.historyIndex < len(m.records)-1 {
			m.historyIndex++
			m.pendingDelete = ""
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.historyIndex > 0 {
			m.historyIndex--
			m.pendingDelete = ""
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.pendingDelete = ""
		if m.historyMine {
			return m, m.loadMyRecords
		}
		return m, m.loadPatientRecords(m.historyPatient)
	case key.Matches(msg, m.keys.deleteItem):
		if !m.historyMine || len(m.records) == 0 || m.inFlight {
			return m, nil
		}
		record := m.records[m.historyIndex]
		// First press arms the delete, second press on the same entry fires it.
		if m.pendingDelete != record.ID {
			m.pendingDelete = record.ID
			m.status = "press d again to delete"
			return m, nil
		}
		m.pendingDelete = ""
		m.inFlight = true
		m.status = "deleting..."
		return m, m.deleteRecord(record.ID)
	default:
		return m, nil
	}
}

// handleRosterKey drives the doctor's patient roster.
func (m Model) handleRosterKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.moveDown):
		if m.rosterIndex < len(m.patients)-1 {
			m.rosterIndex++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.rosterIndex > 0 {
			m.rosterIndex--
		}
		return m, nil
	case key.Matches(msg, m.keys.choose):
		if len(m.patients) == 0 {
			return m, nil
		}
		patient := m.patients[m.rosterIndex]
		m.status = "loading " + patient.FullName() + "..."
		return m, m.loadPatientRecords(patient)
	case key.Matches(msg, m.keys.agenda):
		m.status = "loading agenda..."
		return m, m.loadAgenda
	case key.Matches(msg, m.keys.reload):
		return m, m.loadRoster
	default:
		return m, nil
	}
}

// handleAgendaKey drives the doctor's agenda listing.
func (m Model) handleAgendaKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.moveDown):
		if m.agendaIndex < len(m.agenda)-1 {
			m.agendaIndex++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.agendaIndex > 0 {
			m.agendaIndex--
		}
		return m, nil
	case key.Matches(msg, m.keys.newEntry):
		m.startAppointmentForm()
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.loadAgenda
	default:
		return m, nil
	}
}

// handleLoginKey drives the credential form.
func (m Model) handleLoginKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.setLoginFocus((m.loginFocus + 1) % len(m.loginInputs))
		return m, nil
	case "shift+tab", "up":
		m.setLoginFocus((m.loginFocus + len(m.loginInputs) - 1) % len(m.loginInputs))
		return m, nil
	case "enter":
		if m.loginFocus < len(m.loginInputs)-1 {
			m.setLoginFocus(m.loginFocus + 1)
			return m, nil
		}
		return m.submitLogin()
	case "esc":
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
		return m, cmd
	}
}

// submitLogin validates and fires the login command.
func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.inFlight {
		return m, nil
	}
	email := strings.TrimSpace(m.loginInputs[0].Value())
	password := m.loginInputs[1].Value()
	if email == "" || password == "" {
		m.status = "email and password are required"
		return m, nil
	}
	m.inFlight = true
	m.status = "signing in..."
	return m, func() tea.Msg {
		session, err := m.svc.Login(context.Background(), email, password)
		return loginResultMsg{session: session, err: err}
	}
}

// setLoginFocus moves focus between the credential inputs.
func (m *Model) setLoginFocus(idx int) {
	m.loginFocus = idx
	for i := range m.loginInputs {
		if i == idx {
			m.loginInputs[i].Focus()
		} else {
			m.loginInputs[i].Blur()
		}
	}
}

// handleProfileKey drives the profile edit form.
func (m Model) handleProfileKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.enterHome()
	case "tab", "down":
		m.setProfileFocus((m.profileFocus + 1) % len(m.profileInputs))
		return m, nil
	case "shift+tab", "up":
		m.setProfileFocus((m.profileFocus + len(m.profileInputs) - 1) % len(m.profileInputs))
		return m, nil
	case "enter":
		if m.profileFocus < len(m.profileInputs)-1 {
			m.setProfileFocus(m.profileFocus + 1)
			return m, nil
		}
		return m.submitProfile()
	case "ctrl+s":
		return m.submitProfile()
	default:
		var cmd tea.Cmd
		m.profileInputs[m.profileFocus], cmd = m.profileInputs[m.profileFocus].Update(msg)
		return m, cmd
	}
}

// startProfileForm seeds the edit inputs from the loaded profile.
func (m *Model) startProfileForm() {
	fields := []struct {
		placeholder string
		value       string
	}{
		{"first name", m.profile.FirstName},
		{"last name", m.profile.LastName},
		{"email", m.profile.Email},
		{"phone number", m.profile.PhoneNumber},
		{"date of birth (YYYY-MM-DD)", m.profile.DateOfBirth},
	}
	inputs := make([]textinput.Model, 0, len(fields))
	for _, f := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = f.placeholder
		in.CharLimit = 120
		in.SetValue(f.value)
		inputs = append(inputs, in)
	}
	m.profileInputs = inputs
	m.profileFocus = 0
	m.setProfileFocus(0)
	m.screen = screenProfile
	m.status = "edit profile"
}

// setProfileFocus moves focus between the profile inputs.
func (m *Model) setProfileFocus(idx int) {
	m.profileFocus = idx
	for i := range m.profileInputs {
		if i == idx {
			m.profileInputs[i].Focus()
		} else {
			m.profileInputs[i].Blur()
		}
	}
}

// submitProfile validates and fires the profile save command.
func (m Model) submitProfile() (tea.Model, tea.Cmd) {
	if m.inFlight {
		return m, nil
	}
	edited := domain.Patient{
		ID:          m.profile.ID,
		FirstName:   strings.TrimSpace(m.profileInputs[profileFieldFirstName].Value()),
		LastName:    strings.TrimSpace(m.profileInputs[profileFieldLastName].Value()),
		Email:       strings.TrimSpace(m.profileInputs[profileFieldEmail].Value()),
		PhoneNumber: strings.TrimSpace(m.profileInputs[profileFieldPhone].Value()),
		DateOfBirth: strings.TrimSpace(m.profileInputs[profileFieldDOB].Value()),
	}
	if edited.Email == "" {
		m.status = "email is required"
		return m, nil
	}
	m.inFlight = true
	m.status = "saving profile..."
	return m, func() tea.Msg {
		patient, err := m.svc.UpdatePatientProfile(context.Background(), edited)
		return profileSavedMsg{patient: patient, err: err}
	}
}

// handleAppointmentKey drives the new-appointment form.
func (m Model) handleAppointmentKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenAgenda
		m.status = "agenda"
		return m, nil
	case "tab", "down":
		m.setApptFocus((m.apptFocus + 1) % len(m.apptInputs))
		return m, nil
	case "shift+tab", "up":
		m.setApptFocus((m.apptFocus + len(m.apptInputs) - 1) % len(m.apptInputs))
		return m, nil
	case "enter":
		if m.apptFocus < len(m.apptInputs)-1 {
			m.setApptFocus(m.apptFocus + 1)
			return m, nil
		}
		return m.submitAppointment()
	case "ctrl+s":
		return m.submitAppointment()
	default:
		var cmd tea.Cmd
		m.apptInputs[m.apptFocus], cmd = m.apptInputs[m.apptFocus].Update(msg)
		return m, cmd
	}
}

// startAppointmentForm opens a blank appointment form, defaulting the
// patient to the current roster selection when one exists.
func (m *Model) startAppointmentForm() {
	patientID := ""
	if len(m.patients) > 0 {
		patientID = m.patients[clamp(m.rosterIndex, 0, len(m.patients)-1)].ID
	}
	fields := []struct {
		placeholder string
		value       string
	}{
		{"patient id", patientID},
		{"title", ""},
		{"date (YYYY-MM-DD)", time.Now().Format("2006-01-02")},
		{"start (HH:MM)", ""},
		{"end (HH:MM)", ""},
	}
	inputs := make([]textinput.Model, 0, len(fields))
	for _, f := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = f.placeholder
		in.CharLimit = 80
		in.SetValue(f.value)
		inputs = append(inputs, in)
	}
	m.apptInputs = inputs
	m.apptFocus = 0
	m.setApptFocus(0)
	m.screen = screenAppointment
	m.status = "new appointment"
}

// setApptFocus moves focus between the appointment inputs.
func (m *Model) setApptFocus(idx int) {
	m.apptFocus = idx
	for i := range m.apptInputs {
		if i == idx {
			m.apptInputs[i].Focus()
		} else {
			m.apptInputs[i].Blur()
		}
	}
}

// submitAppointment parses the form and fires the schedule command.
func (m Model) submitAppointment() (tea.Model, tea.Cmd) {
	if m.inFlight {
		return m, nil
	}
	patientID := strings.TrimSpace(m.apptInputs[apptFieldPatient].Value())
	title := strings.TrimSpace(m.apptInputs[apptFieldTitle].Value())
	date := strings.TrimSpace(m.apptInputs[apptFieldDate].Value())
	startRaw := strings.TrimSpace(m.apptInputs[apptFieldStart].Value())
	endRaw := strings.TrimSpace(m.apptInputs[apptFieldEnd].Value())
	if patientID == "" || title == "" {
		m.status = "patient and title are required"
		return m, nil
	}
	start, err := time.Parse("2006-01-02 15:04", date+" "+startRaw)
	if err != nil {
		m.status = "start time must be HH:MM on a valid date"
		return m, nil
	}
	end, err := time.Parse("2006-01-02 15:04", date+" "+endRaw)
	if err != nil {
		m.status = "end time must be HH:MM"
		return m, nil
	}
	if !end.After(start) {
		m.status = "end must be after start"
		return m, nil
	}
	m.inFlight = true
	m.status = "scheduling..."
	in := domain.AppointmentInput{
		PatientID: patientID,
		Title:     title,
		StartTime: start,
		EndTime:   end,
	}
	return m, func() tea.Msg {
		_, err := m.svc.ScheduleAppointment(context.Background(), in)
		return appointmentResultMsg{err: err}
	}
}

// enterHome routes to the role-appropriate landing screen.
func (m Model) enterHome() (tea.Model, tea.Cmd) {
	if !m.authed {
		m.screen = screenLogin
		m.status = "sign in"
		return m, nil
	}
	if m.session.Role == domain.RoleDoctor {
		m.screen = screenRoster
		m.status = "loading patients..."
		return m, m.loadRoster
	}
	m.screen = screenPicker
	m.status = "what would you like to log?"
	return m, nil
}

// logout clears the session and returns to the login screen.
func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := m.svc.Logout(); err != nil {
		m.status = "logout failed: " + err.Error()
		return m, nil
	}
	m.authed = false
	m.session = app.Session{}
	m.records = nil
	m.patients = nil
	m.agenda = nil
	m.form = activityForm{}
	m.screen = screenLogin
	m.setLoginFocus(0)
	m.status = "signed out"
	return m, nil
}

// restoreSession checks for a persisted session inside its validity window.
func (m Model) restoreSession() tea.Msg {
	session, ok, err := m.svc.RestoreSession()
	if err != nil || !ok {
		return sessionRestoredMsg{}
	}
	return sessionRestoredMsg{session: session, ok: true}
}

// loadMyRecords fetches the logged-in patient's history.
func (m Model) loadMyRecords() tea.Msg {
	records, err := m.svc.ListMyActivities(context.Background())
	return recordsLoadedMsg{mine: true, records: records, err: err}
}

// loadPatientRecords fetches one roster patient's history.
func (m Model) loadPatientRecords(patient domain.Patient) tea.Cmd {
	return func() tea.Msg {
		records, err := m.svc.ListPatientActivities(context.Background(), patient.ID)
		return recordsLoadedMsg{patient: patient, records: records, err: err}
	}
}

// loadProfile fetches the logged-in patient profile.
func (m Model) loadProfile() tea.Msg {
	patient, err := m.svc.PatientProfile(context.Background())
	return profileLoadedMsg{patient: patient, err: err}
}

// loadRoster fetches the doctor's patient roster.
func (m Model) loadRoster() tea.Msg {
	patients, err := m.svc.ListPatients(context.Background())
	return rosterLoadedMsg{patients: patients, err: err}
}

// loadAgenda fetches the doctor's appointments.
func (m Model) loadAgenda() tea.Msg {
	appointments, err := m.svc.Agenda(context.Background())
	return agendaLoadedMsg{appointments: appointments, err: err}
}

// deleteRecord removes one history entry.
func (m Model) deleteRecord(recordID string) tea.Cmd {
	return func() tea.Msg {
		return deleteResultMsg{err: m.svc.DeleteActivity(context.Background(), recordID)}
	}
}

// loginFailureStatus keeps credential failures terse.
func loginFailureStatus(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "invalid_credentials") || strings.Contains(msg, "incorrect") {
		return "email or password is incorrect"
	}
	return "sign in failed: " + msg
}

// submitFailureStatus maps submission errors to a status line.
func submitFailureStatus(err error) string {
	switch {
	case err == nil:
		return ""
	case strings.Contains(err.Error(), domain.ErrEmptyForm.Error()):
		return "fill in at least one field"
	default:
		return "save failed: " + err.Error()
	}
}

// clamp bounds v to [minV, maxV], tolerating an empty range.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// truncate shortens s to at most limit runes with an ellipsis.
func truncate(s string, limit int) string {
	if limit <= 1 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// View renders the active screen.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress q to quit\n")
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	var body string
	switch m.screen {
	case screenLogin:
		body = m.viewLogin(muted, dim)
	case screenPicker:
		body = m.viewPicker(muted, dim)
	case screenForm:
		body = m.viewForm(muted, dim)
	case screenHistory, screenPatient:
		body = m.viewHistory(muted, dim)
	case screenProfile:
		body = m.viewProfile(muted, dim)
	case screenRoster:
		body = m.viewRoster(muted, dim)
	case screenAgenda:
		body = m.viewAgenda(muted, dim)
	case screenAppointment:
		body = m.viewAppointment(muted, dim)
	case screenAbout:
		body = m.viewAbout()
	}

	header := m.viewHeader(dim)
	helpBubble := m.help
	helpBubble.SetWidth(maxInt(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(maxInt(0, m.width)).
		Render(helpBubble.View(m.keys))

	content := header + "\n\n" + body
	if m.height > 0 {
		helpHeight := lipgloss.Height(helpLine)
		content = fitLines(content, maxInt(0, m.height-helpHeight))
	}
	v := tea.NewView(content + "\n" + helpLine)
	v.AltScreen = true
	return v
}

// viewHeader renders the title bar with account context and status.
func (m Model) viewHeader(dim color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)
	header := titleStyle.Render("oncolly")
	if m.authed {
		header += statusStyle.Render("  [" + strings.ToLower(string(m.session.Role)) + "]")
	}
	if strings.TrimSpace(m.status) != "" {
		header += statusStyle.Render("  " + m.status)
	}
	return header
}

// viewLogin renders the credential form.
func (m Model) viewLogin(muted, dim color.Color) string {
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Render("Sign in"),
		"",
		labelStyle.Render("email") + "     " + m.loginInputs[0].View(),
		labelStyle.Render("password") + "  " + m.loginInputs[1].View(),
		"",
		lipgloss.NewStyle().Foreground(dim).Render("enter to sign in • esc to quit"),
	}
	return strings.Join(lines, "\n")
}

// viewPicker renders the activity type picker.
func (m Model) viewPicker(muted, dim color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	lines := []string{titleStyle.Render("Log an activity"), ""}
	for idx, at := range m.types {
		label := at.Title
		if m.showGlyphs && at.Glyph != "" {
			label = at.Glyph + " " + label
		}
		if idx == m.pickerIndex {
			style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(at.Color))
			lines = append(lines, style.Render("> "+label))
		} else {
			lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("  "+label))
		}
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render("H history • P profile • A about"))
	return strings.Join(lines, "\n")
}

// viewHistory renders an activity listing, own or per-patient.
func (m Model) viewHistory(muted, dim color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	title := "My history"
	if !m.historyMine {
		title = m.historyPatient.FullName()
	}
	lines := []string{titleStyle.Render(title), ""}
	if len(m.records) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("no entries yet"))
	}
	for idx, record := range m.records {
		row := m.historyRow(record)
		if idx == m.historyIndex {
			lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Render("> "+row))
		} else {
			lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("  "+row))
		}
	}
	hint := "esc back"
	if m.historyMine {
		hint = "d delete • r reload • esc back"
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render(hint))
	return strings.Join(lines, "\n")
}

// historyRow formats one history entry, tolerating legacy plain-string
// values that predate the per-field payload.
func (m Model) historyRow(record domain.ActivityRecord) string {
	label := record.ActivityType
	if at, ok := m.svc.Registry().Lookup(record.ActivityType); ok {
		label = at.Title
		if m.showGlyphs && at.Glyph != "" {
			label = at.Glyph + " " + label
		}
	}
	summary := record.Value
	if fields, ok := record.Fields(); ok {
		parts := make([]string, 0, len(fields))
		if at, known := m.svc.Registry().Lookup(record.ActivityType); known {
			for _, comp := range at.Components {
				if v, present := fields[comp.FieldKey]; present {
					parts = append(parts, comp.FieldKey+"="+v)
				}
			}
		} else {
			for k, v := range fields {
				parts = append(parts, k+"="+v)
			}
		}
		summary = strings.Join(parts, "  ")
	}
	return fmt.Sprintf("%s  %s  %s",
		record.OccurredAt.Local().Format(m.dateFormat), label, truncate(summary, 48))
}

// viewProfile renders the profile edit form.
func (m Model) viewProfile(muted, dim color.Color) string {
	labels := []string{"first name", "last name", "email", "phone", "birth date"}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	lines := []string{titleStyle.Render("My profile"), ""}
	for idx, in := range m.profileInputs {
		label := fmt.Sprintf("%-11s", labels[idx])
		if idx == m.profileFocus {
			lines = append(lines, lipgloss.NewStyle().Bold(true).Render(label)+in.View())
		} else {
			lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render(label)+in.View())
		}
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render("ctrl+s save • esc back"))
	return strings.Join(lines, "\n")
}

// viewRoster renders the doctor's patient roster.
func (m Model) viewRoster(muted, dim color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	lines := []string{titleStyle.Render("Patients"), ""}
	if len(m.patients) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("no patients assigned"))
	}
	for idx, patient := range m.patients {
		row := patient.FullName()
		if patient.Email != "" {
			row += "  " + patient.Email
		}
		if idx == m.rosterIndex {
			lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Render("> "+row))
		} else {
			lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("  "+row))
		}
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render("enter activities • g agenda • A about"))
	return strings.Join(lines, "\n")
}

// viewAgenda renders the doctor's appointment agenda.
func (m Model) viewAgenda(muted, dim color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	lines := []string{titleStyle.Render("Agenda"), ""}
	if len(m.agenda) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("no upcoming appointments"))
	}
	for idx, appt := range m.agenda {
		row := fmt.Sprintf("%s – %s  %s  %s",
			appt.StartTime.Local().Format(m.dateFormat),
			appt.EndTime.Local().Format("15:04"),
			truncate(appt.Title, 28),
			appt.PatientName)
		if idx == m.agendaIndex {
			lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Render("> "+row))
		} else {
			lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render("  "+row))
		}
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render("n new • r reload • esc back"))
	return strings.Join(lines, "\n")
}

// viewAppointment renders the new-appointment form.
func (m Model) viewAppointment(muted, dim color.Color) string {
	labels := []string{"patient", "title", "date", "start", "end"}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	lines := []string{titleStyle.Render("New appointment"), ""}
	for idx, in := range m.apptInputs {
		label := fmt.Sprintf("%-9s", labels[idx])
		if idx == m.apptFocus {
			lines = append(lines, lipgloss.NewStyle().Bold(true).Render(label)+in.View())
		} else {
			lines = append(lines, lipgloss.NewStyle().Foreground(muted).Render(label)+in.View())
		}
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render("ctrl+s schedule • esc back"))
	return strings.Join(lines, "\n")
}

// viewAbout renders the glamour-formatted about page.
func (m Model) viewAbout() string {
	return m.markdown.render(aboutMarkdown, maxInt(24, m.width-4))
}

// fitLines pads or trims content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	for len(lines) < maxLines {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// maxInt returns the larger of two ints.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
