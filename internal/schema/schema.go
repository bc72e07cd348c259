package schema

// Field describes a single column accepted for a resource.
type Field struct {
	Name     string
	Required bool
}

// Schema is the ordered set of fields a resource accepts.
type Schema []Field

// Names returns the declared field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for _, f := range s {
		names = append(names, f.Name)
	}
	return names
}

// Has reports whether name is declared in the schema.
func (s Schema) Has(name string) bool {
	for _, f := range s {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Validate reports whether every required field is present and non-nil in candidate.
// Types and ranges are not checked.
func Validate(candidate map[string]interface{}, s Schema) bool {
	if candidate == nil {
		return false
	}
	for _, f := range s {
		if !f.Required {
			continue
		}
		if v, ok := candidate[f.Name]; !ok || v == nil {
			return false
		}
	}
	return true
}

// ExtractValidFields returns a copy of candidate holding only schema-declared keys.
// Unknown keys are dropped so they can never reach an INSERT or UPDATE column list.
func ExtractValidFields(candidate map[string]interface{}, s Schema) map[string]interface{} {
	out := make(map[string]interface{}, len(s))
	for _, f := range s {
		if v, ok := candidate[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}
