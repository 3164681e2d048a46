package models

// FieldType is the logical type of a field value
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInteger   FieldType = "integer"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeDate      FieldType = "date"
	FieldTypeEnum      FieldType = "enum"
	FieldTypeReference FieldType = "reference"
)

// Valid reports whether t is a known field type
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeString, FieldTypeInteger, FieldTypeBoolean, FieldTypeDate, FieldTypeEnum, FieldTypeReference:
		return true
	}
	return false
}

// FieldSpec defines a single field within an entity type
type FieldSpec struct {
	Name     string    `yaml:"name" json:"name" validate:"required"`
	Type     FieldType `yaml:"type" json:"type" validate:"required"`
	Required bool      `yaml:"required,omitempty" json:"required,omitempty"`
	// Optional marks a reference field that may be null on first load.
	// Only meaningful for reference fields.
	Optional bool `yaml:"optional,omitempty" json:"optional,omitempty"`
	// Normalizer names the normalizer applied during validation. Boolean, date
	// and integer fields get their type normalizer implicitly.
	Normalizer string `yaml:"normalizer,omitempty" json:"normalizer,omitempty"`
	// Enum references a synonym table in the registry document
	Enum string `yaml:"enum,omitempty" json:"enum,omitempty"`
	// Target is the referenced entity type for reference fields
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
	// Derive computes the field value from other fields instead of copying
	// it from source. Evaluated after normalization.
	Derive string `yaml:"derive,omitempty" json:"derive,omitempty"`
}

// EntitySpec defines one entity type: its fields, unique key, external-ID
// template and (implicitly, via reference fields) its dependency set
type EntitySpec struct {
	Name       string      `yaml:"name" json:"name" validate:"required"`
	Fields     []FieldSpec `yaml:"fields" json:"fields" validate:"required,min=1,dive"`
	UniqueKey  []string    `yaml:"unique_key" json:"unique_key" validate:"required,min=1"`
	IDTemplate string      `yaml:"id_template" json:"id_template" validate:"required"`
}

// Field returns the field spec with the given name, or nil
func (e *EntitySpec) Field(name string) *FieldSpec {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// Dependencies returns the set of entity types referenced by mandatory
// (non-optional, non-self) reference fields
func (e *EntitySpec) Dependencies() []string {
	seen := make(map[string]bool)
	var deps []string
	for i := range e.Fields {
		f := &e.Fields[i]
		if f.Type != FieldTypeReference || f.Optional || f.Target == e.Name {
			continue
		}
		if !seen[f.Target] {
			seen[f.Target] = true
			deps = append(deps, f.Target)
		}
	}
	return deps
}

// EnumTable maps raw synonym spellings to canonical codes
type EnumTable struct {
	// Values maps a canonical code to its accepted spellings. The canonical
	// code itself is always accepted.
	Values map[string][]string `yaml:"values" json:"values" validate:"required"`
	// Default, when set, is the code returned for unmapped literals
	Default *string `yaml:"default,omitempty" json:"default,omitempty"`
}

// ValueFormats configures the value-shape normalizers for a registry
type ValueFormats struct {
	// DateLayouts are the accepted input shapes, in Go reference-time form.
	// Dates are canonicalized to 2006-01-02.
	DateLayouts []string `yaml:"date_layouts,omitempty" json:"date_layouts,omitempty"`
	// Truthy and Falsy are the accepted boolean spellings (matched
	// case-insensitively after trimming)
	Truthy []string `yaml:"truthy,omitempty" json:"truthy,omitempty"`
	Falsy  []string `yaml:"falsy,omitempty" json:"falsy,omitempty"`
}

// RegistryDocument is the on-disk shape of the registry: every entity type,
// the synonym tables, the value formats and the global processing order
type RegistryDocument struct {
	Version int `yaml:"version" json:"version"`
	// Order is the explicit processing order, edited by hand and trusted as
	// the source of truth. It is checked, not computed.
	Order []string `yaml:"order" json:"order" validate:"required,min=1"`
	// External names entity types that are not processed in this pipeline but
	// may be referenced by reference fields (assumed pre-existing downstream)
	External []string             `yaml:"external,omitempty" json:"external,omitempty"`
	Entities []EntitySpec         `yaml:"entities" json:"entities" validate:"required,min=1,dive"`
	Enums    map[string]EnumTable `yaml:"enums,omitempty" json:"enums,omitempty"`
	Formats  ValueFormats         `yaml:"formats,omitempty" json:"formats,omitempty"`
}
