package widgets

import "strings"

// Naming maps widget identifiers to the names a renderer expects.
type Naming struct {
	// Prefix is prepended to derived names.
	Prefix string
	// Overrides replace the derived name of an identifier.
	Overrides map[string]string
	// Kebab keeps identifiers as-is instead of converting them to PascalCase.
	Kebab bool
}

var (
	// Web keeps kebab identifiers ("text-input").
	Web = Naming{Kebab: true}
	// Vue uses component names ("TextInput", "DateTimePicker").
	Vue = Naming{}
	// Mobile uses prefixed widget class names ("FormkitSelect").
	Mobile = Naming{Prefix: "Formkit"}
)

// Name returns the renderer name of id.
func (n Naming) Name(id string) string {
	if name, ok := n.Overrides[id]; ok {
		return name
	}
	if n.Kebab {
		return n.Prefix + id
	}
	return n.Prefix + Pascal(id)
}

// Pascal converts "date-time-picker" or "key_value" into "DateTimePicker" and
// "KeyValue".
func Pascal(id string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' || r == ' ' }) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
