package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormState accumulates one entry form's in-progress answers keyed by field
// key. Only components the user actually interacted with have entries; an
// empty map is the valid "nothing entered" state.
type FormState map[string]string

// NewFormState constructs an empty form state owned by one screen instance.
func NewFormState() FormState {
	return FormState{}
}

// Set records the current value for one field key.
func (f FormState) Set(fieldKey, value string) {
	f[fieldKey] = value
}

// Value returns the recorded value for one field key.
func (f FormState) Value(fieldKey string) (string, bool) {
	v, ok := f[fieldKey]
	return v, ok
}

// Empty reports whether no field has been touched yet.
func (f FormState) Empty() bool {
	return len(f) == 0
}

// Clone copies the map so callers can snapshot submission state.
func (f FormState) Clone() FormState {
	out := make(FormState, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Encode serializes the accumulated entries as a flat JSON object. Untouched
// keys are absent from the output, never null or empty.
func (f FormState) Encode() (string, error) {
	if f.Empty() {
		return "", ErrEmptyForm
	}
	encoded, err := json.Marshal(map[string]string(f))
	if err != nil {
		return "", fmt.Errorf("encode form state: %w", err)
	}
	return string(encoded), nil
}

// DecodeFormValue parses a persisted activity value back into field entries.
// Legacy records predate the JSON payload format and hold a plain string;
// those report ok=false and must be rendered verbatim.
func DecodeFormValue(value string) (FormState, bool) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return nil, false
	}
	return FormState(fields), true
}
