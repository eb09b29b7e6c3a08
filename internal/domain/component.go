package domain

// ComponentKind identifies one input component variant.
type ComponentKind string

const (
	ComponentNumber    ComponentKind = "number"
	ComponentText      ComponentKind = "text"
	ComponentBoolean   ComponentKind = "boolean"
	ComponentStopwatch ComponentKind = "stopwatch"
)

// componentKinds stores the closed variant set in declaration order.
var componentKinds = []ComponentKind{
	ComponentNumber,
	ComponentText,
	ComponentBoolean,
	ComponentStopwatch,
}

// ComponentKinds returns the closed set of input component variants.
func ComponentKinds() []ComponentKind {
	out := make([]ComponentKind, len(componentKinds))
	copy(out, componentKinds)
	return out
}

// InputComponent declares one field of an activity entry form. FieldKey is
// both the widget identity and the JSON key of the submitted payload entry.
type InputComponent struct {
	Kind      ComponentKind
	FieldKey  string
	Label     string
	Multiline bool
}

// NumberInput declares a digit-only entry field.
func NumberInput(fieldKey, label string) InputComponent {
	return InputComponent{Kind: ComponentNumber, FieldKey: fieldKey, Label: label}
}

// TextInput declares a single-line free text field.
func TextInput(fieldKey, label string) InputComponent {
	return InputComponent{Kind: ComponentText, FieldKey: fieldKey, Label: label}
}

// TextArea declares a multi-line free text field.
func TextArea(fieldKey, label string) InputComponent {
	return InputComponent{Kind: ComponentText, FieldKey: fieldKey, Label: label, Multiline: true}
}

// BooleanInput declares a mutually exclusive yes/no choice.
func BooleanInput(fieldKey, label string) InputComponent {
	return InputComponent{Kind: ComponentBoolean, FieldKey: fieldKey, Label: label}
}

// StopwatchInput declares an elapsed-time capture field.
func StopwatchInput(fieldKey string) InputComponent {
	return InputComponent{Kind: ComponentStopwatch, FieldKey: fieldKey}
}
