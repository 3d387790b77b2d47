package sinkconf

// Descriptor is the display metadata the UI needs to offer a sink type.
type Descriptor struct {
	Type        SinkType          `json:"sinkType"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Fields      []FieldDescriptor `json:"fields"`
}

// FieldDescriptor describes one editable field of a variant.
type FieldDescriptor struct {
	Path        string   `json:"path"`
	Label       string   `json:"label"`
	ValueType   string   `json:"valueType"` // "string", "string[]", "boolean", "password", "enum"
	Required    bool     `json:"required"`
	Sensitive   bool     `json:"sensitive,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}
