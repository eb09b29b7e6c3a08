package domain

import (
	"fmt"
	"strings"
)

// ActivityType describes one loggable activity kind: display identity plus
// the ordered input components of its entry form. Entries are fixed at
// startup and never mutated afterwards.
type ActivityType struct {
	ID         string
	Title      string
	Glyph      string
	Color      string
	Components []InputComponent
}

// Registry exposes the fixed activity catalogue for ordered listing and
// lookup by id.
type Registry struct {
	ordered []ActivityType
	byID    map[string]ActivityType
}

// NewRegistry validates the catalogue table and builds the lookup index.
// Duplicate ids or duplicate field keys within one type fail construction.
func NewRegistry(types []ActivityType) (*Registry, error) {
	if len(types) == 0 {
		return nil, ErrInvalidActivityType
	}
	reg := &Registry{
		ordered: make([]ActivityType, 0, len(types)),
		byID:    make(map[string]ActivityType, len(types)),
	}
	for idx, at := range types {
		at.ID = strings.TrimSpace(at.ID)
		at.Title = strings.TrimSpace(at.Title)
		if at.ID == "" {
			return nil, fmt.Errorf("types[%d]: %w", idx, ErrInvalidActivityType)
		}
		if at.Title == "" {
			return nil, fmt.Errorf("types[%d] %q: %w", idx, at.ID, ErrInvalidTitle)
		}
		if _, ok := reg.byID[at.ID]; ok {
			return nil, fmt.Errorf("types[%d] %q: %w", idx, at.ID, ErrInvalidActivityType)
		}
		if len(at.Components) == 0 {
			return nil, fmt.Errorf("types[%d] %q: %w", idx, at.ID, ErrEmptyComponents)
		}
		seenKeys := make(map[string]struct{}, len(at.Components))
		for ci, comp := range at.Components {
			key := strings.TrimSpace(comp.FieldKey)
			if key == "" {
				return nil, fmt.Errorf("types[%d] %q components[%d]: %w", idx, at.ID, ci, ErrInvalidFieldKey)
			}
			if _, ok := seenKeys[key]; ok {
				return nil, fmt.Errorf("types[%d] %q components[%d] %q: %w", idx, at.ID, ci, key, ErrDuplicateFieldKey)
			}
			seenKeys[key] = struct{}{}
		}
		at.Components = append([]InputComponent(nil), at.Components...)
		reg.ordered = append(reg.ordered, at)
		reg.byID[at.ID] = at
	}
	return reg, nil
}

// Lookup resolves one activity type by id. Unknown ids report false.
func (r *Registry) Lookup(id string) (ActivityType, bool) {
	if r == nil {
		return ActivityType{}, false
	}
	at, ok := r.byID[strings.TrimSpace(id)]
	return at, ok
}

// Types returns the catalogue in declaration order.
func (r *Registry) Types() []ActivityType {
	if r == nil {
		return nil
	}
	out := make([]ActivityType, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len reports the catalogue size.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}

// defaultRegistry holds the built-in Oncolly activity catalogue.
var defaultRegistry = mustRegistry([]ActivityType{
	{
		ID:    "walking",
		Title: "Walking",
		Glyph: "🚶",
		Color: "39",
		Components: []InputComponent{
			StopwatchInput("duration"),
			NumberInput("distance", "Distance (km)"),
		},
	},
	{
		ID:    "exercise",
		Title: "Exercise",
		Glyph: "🏋",
		Color: "39",
		Components: []InputComponent{
			StopwatchInput("duration"),
			TextInput("exercises", "Exercises done"),
		},
	},
	{
		ID:    "eating",
		Title: "Eating",
		Glyph: "🍽",
		Color: "71",
		Components: []InputComponent{
			TextArea("meal", "What did you eat?"),
		},
	},
	{
		ID:    "depositions",
		Title: "Depositions",
		Glyph: "🚻",
		Color: "243",
		Components: []InputComponent{
			BooleanInput("done", "Any depositions today?"),
		},
	},
	{
		ID:    "medication",
		Title: "Medication",
		Glyph: "💊",
		Color: "243",
		Components: []InputComponent{
			TextInput("medication", "Medication name"),
			NumberInput("dose", "Dose (mg)"),
		},
	},
	{
		ID:    "sleep",
		Title: "Sleep",
		Glyph: "🛏",
		Color: "71",
		Components: []InputComponent{
			NumberInput("hours", "Hours slept"),
		},
	},
	{
		ID:    "hydration",
		Title: "Hydration",
		Glyph: "🥤",
		Color: "39",
		Components: []InputComponent{
			NumberInput("glasses", "Glasses of water"),
		},
	},
})

// DefaultRegistry returns the built-in activity catalogue.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// mustRegistry builds the static catalogue; the table is compile-time data,
// so a validation failure is a programmer error.
func mustRegistry(types []ActivityType) *Registry {
	reg, err := NewRegistry(types)
	if err != nil {
		panic(fmt.Sprintf("invalid activity catalogue: %v", err))
	}
	return reg
}
