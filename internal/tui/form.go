package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/teknos/oncolly/internal/domain"
)

// stopwatchTickInterval drives the running stopwatch display refresh.
const stopwatchTickInterval = 100 * time.Millisecond

// activityForm holds one in-progress entry form. Every component writes
// into the shared values map; untouched fields never get a key, so the map
// itself is the submit payload.
type activityForm struct {
	activity    domain.ActivityType
	values      domain.FormState
	inputs      map[string]textinput.Model
	stopwatches map[string]*domain.Stopwatch
	focus       int
	gen         int
}

// stopwatchTickMsg refreshes one running stopwatch display. The gen field
// pins the tick to the form instance that scheduled it, so a tick left over
// from an abandoned form cannot re-arm a reopened one.
type stopwatchTickMsg struct {
	gen      int
	fieldKey string
}

// startActivityForm opens a blank form for the chosen activity type.
func (m *Model) startActivityForm(at domain.ActivityType) {
	m.formGen++
	form := activityForm{
		activity:    at,
		values:      domain.NewFormState(),
		inputs:      map[string]textinput.Model{},
		stopwatches: map[string]*domain.Stopwatch{},
		gen:         m.formGen,
	}
	for _, comp := range at.Components {
		switch comp.Kind {
		case domain.ComponentNumber, domain.ComponentText:
			in := textinput.New()
			in.Prompt = ""
			in.Placeholder = comp.Label
			in.CharLimit = 200
			if comp.Multiline {
				in.CharLimit = 1000
			}
			form.inputs[comp.FieldKey] = in
		case domain.ComponentStopwatch:
			form.stopwatches[comp.FieldKey] = &domain.Stopwatch{}
		}
	}
	m.form = form
	m.focusFormComponent(0)
	m.screen = screenForm
	m.status = at.Title
}

// focusFormComponent moves focus to the component at idx.
func (m *Model) focusFormComponent(idx int) {
	comps := m.form.activity.Components
	if len(comps) == 0 {
		return
	}
	m.form.focus = clamp(idx, 0, len(comps)-1)
	for i, comp := range comps {
		in, ok := m.form.inputs[comp.FieldKey]
		if !ok {
			continue
		}
		if i == m.form.focus {
			in.Focus()
		} else {
			in.Blur()
		}
		m.form.inputs[comp.FieldKey] = in
	}
}

// focusedComponent returns the component under the cursor.
func (m Model) focusedComponent() (domain.InputComponent, bool) {
	comps := m.form.activity.Components
	if len(comps) == 0 {
		return domain.InputComponent{}, false
	}
	return comps[clamp(m.form.focus, 0, len(comps)-1)], true
}

// handleFormKey drives the dynamic activity form.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	comp, ok := m.focusedComponent()
	if !ok {
		m.screen = screenPicker
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.form = activityForm{}
		m.screen = screenPicker
		m.status = "entry discarded"
		return m, nil
	case "tab", "down":
		m.focusFormComponent((m.form.focus + 1) % len(m.form.activity.Components))
		return m, nil
	case "shift+tab", "up":
		n := len(m.form.activity.Components)
		m.focusFormComponent((m.form.focus + n - 1) % n)
		return m, nil
	case "ctrl+s":
		return m.submitForm()
	}

	switch comp.Kind {
	case domain.ComponentStopwatch:
		return m.handleStopwatchKey(msg, comp)
	case domain.ComponentBoolean:
		return m.handleBooleanKey(msg, comp)
	default:
		return m.handleTextKey(msg, comp)
	}
}

// handleTextKey routes a keypress to the focused text or number input. The
// number kind drops any keypress carrying non-digit text, mirroring the
// digit-only filter of the entry forms.
func (m Model) handleTextKey(msg tea.KeyPressMsg, comp domain.InputComponent) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if m.form.focus < len(m.form.activity.Components)-1 {
			m.focusFormComponent(m.form.focus + 1)
			return m, nil
		}
		return m.submitForm()
	}
	if comp.Kind == domain.ComponentNumber && msg.Text != "" && !isDigits(msg.Text) {
		return m, nil
	}

	in := m.form.inputs[comp.FieldKey]
	var cmd tea.Cmd
	in, cmd = in.Update(msg)
	m.form.inputs[comp.FieldKey] = in

	// A field the user typed into and then emptied again reverts to
	// untouched, keeping the submit payload free of empty strings.
	if value := in.Value(); value == "" {
		delete(m.form.values, comp.FieldKey)
	} else {
		m.form.values.Set(comp.FieldKey, value)
	}
	return m, cmd
}

// Boolean answers store the label the user saw, so the saved payload
// reads the same as the button that was pressed.
const (
	booleanYesLabel = "YES"
	booleanNoLabel  = "NO"
)

// handleBooleanKey drives the yes/no component. The two answers are
// mutually exclusive: choosing one overwrites the other.
func (m Model) handleBooleanKey(msg tea.KeyPressMsg, comp domain.InputComponent) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h", "y":
		m.form.values.Set(comp.FieldKey, booleanYesLabel)
		return m, nil
	case "right", "l", "n":
		m.form.values.Set(comp.FieldKey, booleanNoLabel)
		return m, nil
	case "enter":
		if m.form.focus < len(m.form.activity.Components)-1 {
			m.focusFormComponent(m.form.focus + 1)
			return m, nil
		}
		return m.submitForm()
	default:
		return m, nil
	}
}

// handleStopwatchKey drives the stopwatch component: space toggles,
// x resets to zero.
func (m Model) handleStopwatchKey(msg tea.KeyPressMsg, comp domain.InputComponent) (tea.Model, tea.Cmd) {
	sw := m.form.stopwatches[comp.FieldKey]
	if sw == nil {
		return m, nil
	}
	switch msg.String() {
	case "space", "enter":
		now := time.Now()
		sw.Toggle(now)
		m.form.values.Set(comp.FieldKey, sw.Display(now))
		if sw.Running() {
			return m, m.stopwatchTick(comp.FieldKey)
		}
		return m, nil
	case "x":
		sw.Reset()
		m.form.values.Set(comp.FieldKey, domain.ZeroElapsed)
		return m, nil
	default:
		return m, nil
	}
}

// stopwatchTick schedules the next display refresh for one stopwatch.
func (m Model) stopwatchTick(fieldKey string) tea.Cmd {
	gen := m.form.gen
	return tea.Tick(stopwatchTickInterval, func(time.Time) tea.Msg {
		return stopwatchTickMsg{gen: gen, fieldKey: fieldKey}
	})
}

// handleStopwatchTick refreshes the display and keeps ticking while the
// stopwatch runs. Stale ticks from an abandoned form stop silently.
func (m Model) handleStopwatchTick(msg stopwatchTickMsg) (tea.Model, tea.Cmd) {
	if m.screen != screenForm || m.form.gen != msg.gen {
		return m, nil
	}
	sw := m.form.stopwatches[msg.fieldKey]
	if sw == nil || !sw.Running() {
		return m, nil
	}
	m.form.values.Set(msg.fieldKey, sw.Display(time.Now()))
	return m, m.stopwatchTick(msg.fieldKey)
}

// submitForm fires the submission command after the non-empty guard.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	if m.inFlight {
		return m, nil
	}
	if m.form.values.Empty() {
		m.status = "fill in at least one field"
		return m, nil
	}
	m.inFlight = true
	m.status = "saving..."
	activityID := m.form.activity.ID
	payload := m.form.values.Clone()
	return m, func() tea.Msg {
		record, err := m.svc.SubmitActivity(context.Background(), activityID, payload)
		return submitResultMsg{record: record, err: err}
	}
}

// viewForm renders the dynamic entry form for the chosen activity type.
func (m Model) viewForm(muted, dim color.Color) string {
	at := m.form.activity
	accent := lipgloss.Color(at.Color)
	title := at.Title
	if m.showGlyphs && at.Glyph != "" {
		title = at.Glyph + " " + title
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accent).Render(title), ""}

	for idx, comp := range at.Components {
		focused := idx == m.form.focus
		labelStyle := lipgloss.NewStyle().Foreground(muted)
		if focused {
			labelStyle = lipgloss.NewStyle().Bold(true)
		}
		name := comp.Label
		if name == "" {
			name = comp.FieldKey
		}
		label := labelStyle.Render(fmt.Sprintf("%-12s", name))

		switch comp.Kind {
		case domain.ComponentBoolean:
			lines = append(lines, label+m.renderBoolean(comp, accent, muted))
		case domain.ComponentStopwatch:
			display := domain.ZeroElapsed
			if v, ok := m.form.values.Value(comp.FieldKey); ok {
				display = v
			}
			row := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(display)
			if focused {
				row += lipgloss.NewStyle().Foreground(dim).Render("  space start/pause • x reset")
			}
			lines = append(lines, label+row)
		default:
			in := m.form.inputs[comp.FieldKey]
			lines = append(lines, label+in.View())
		}
	}

	lines = append(lines, "", lipgloss.NewStyle().Foreground(dim).Render("ctrl+s save • tab next field • esc discard"))
	return strings.Join(lines, "\n")
}

// renderBoolean draws the yes/no buttons with the chosen side highlighted.
func (m Model) renderBoolean(comp domain.InputComponent, accent, muted color.Color) string {
	value, touched := m.form.values.Value(comp.FieldKey)
	yes := lipgloss.NewStyle().Foreground(muted).Render("[ " + booleanYesLabel + " ]")
	no := lipgloss.NewStyle().Foreground(muted).Render("[ " + booleanNoLabel + " ]")
	if touched && value == booleanYesLabel {
		yes = lipgloss.NewStyle().Bold(true).Foreground(accent).Render("[ " + booleanYesLabel + " ]")
	}
	if touched && value == booleanNoLabel {
		no = lipgloss.NewStyle().Bold(true).Foreground(accent).Render("[ " + booleanNoLabel + " ]")
	}
	return yes + " " + no
}

// isDigits reports whether s contains only ASCII digits.
func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
