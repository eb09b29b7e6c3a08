package tui

// Option configures the model at construction time.
type Option func(*Model)

// WithDateFormat overrides the timestamp layout used in history and agenda
// listings.
func WithDateFormat(layout string) Option {
	return func(m *Model) {
		if layout != "" {
			m.dateFormat = layout
		}
	}
}

// WithGlyphs toggles the activity glyphs in the picker and history views.
func WithGlyphs(show bool) Option {
	return func(m *Model) {
		m.showGlyphs = show
	}
}
