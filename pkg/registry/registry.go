// Package registry loads the declarative entity-definition document and
// validates it into strongly typed, immutable in-memory structures. All
// authoring mistakes surface here as ConfigError, before any row is
// processed.
package registry

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/fern/pkg/externalid"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/rules"
)

var validate = validator.New()

// Default accepted value shapes, used when the document's formats section
// leaves them unset
var (
	defaultDateLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02", "Jan 2, 2006"}
	defaultTruthy      = []string{"true", "yes", "y", "1"}
	defaultFalsy       = []string{"false", "no", "n", "0"}
)

// Registry is the full, loaded set of entity definitions plus the validated
// processing order. Built once per run; immutable afterward.
type Registry struct {
	doc      models.RegistryDocument
	entities map[string]*models.EntitySpec
	position map[string]int
	external map[string]bool
	norms    *normalizers.Set
	enums    map[string]*normalizers.EnumResolver
	derived  map[string]map[string]*rules.Program
}

// Load reads and validates a registry document from disk
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry document: %w", err)
	}
	return Parse(data)
}

// Parse validates a registry document from its raw YAML bytes
func Parse(data []byte) (*Registry, error) {
	var doc models.RegistryDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newConfigError("malformed registry document: %v", err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, newConfigError("incomplete registry document: %v", err)
	}
	return build(doc)
}

func build(doc models.RegistryDocument) (*Registry, error) {
	r := &Registry{
		doc:      doc,
		entities: make(map[string]*models.EntitySpec),
		position: make(map[string]int),
		external: make(map[string]bool),
		norms:    normalizers.NewSet(),
		enums:    make(map[string]*normalizers.EnumResolver),
		derived:  make(map[string]map[string]*rules.Program),
	}

	r.registerFormats()

	for name, table := range doc.Enums {
		if len(table.Values) == 0 {
			return nil, newConfigError("enum table %q declares no values", name)
		}
		r.enums[name] = normalizers.NewEnumResolver(table)
	}

	for i := range doc.Entities {
		e := &doc.Entities[i]
		if _, dup := r.entities[e.Name]; dup {
			return nil, newConfigError("entity %q is defined twice", e.Name)
		}
		r.entities[e.Name] = e
	}

	for _, name := range doc.External {
		if _, clash := r.entities[name]; clash {
			return nil, newConfigError("entity %q is both defined and marked external", name)
		}
		r.external[name] = true
	}

	for i, name := range doc.Order {
		if _, ok := r.entities[name]; !ok {
			return nil, newConfigError("processing order names unknown entity %q", name)
		}
		if _, dup := r.position[name]; dup {
			return nil, newConfigError("entity %q appears twice in the processing order", name)
		}
		r.position[name] = i
	}
	for name := range r.entities {
		if _, ok := r.position[name]; !ok {
			return nil, newConfigError("entity %q is defined but missing from the processing order", name)
		}
	}

	evaluator := rules.NewEvaluator()
	for _, e := range r.entities {
		if err := r.checkEntity(e, evaluator); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) registerFormats() {
	layouts := r.doc.Formats.DateLayouts
	if len(layouts) == 0 {
		layouts = defaultDateLayouts
	}
	truthy := r.doc.Formats.Truthy
	falsy := r.doc.Formats.Falsy
	if len(truthy) == 0 {
		truthy = defaultTruthy
	}
	if len(falsy) == 0 {
		falsy = defaultFalsy
	}
	r.norms.Register("date", normalizers.NewDateNormalizer(layouts))
	r.norms.Register("boolean", normalizers.NewBooleanNormalizer(truthy, falsy))
}

// checkEntity validates one entity's fields, unique key, template and
// reference ordering
func (r *Registry) checkEntity(e *models.EntitySpec, evaluator *rules.Evaluator) error {
	fields := make(map[string]*models.FieldSpec, len(e.Fields))
	for i := range e.Fields {
		f := &e.Fields[i]
		if _, dup := fields[f.Name]; dup {
			return newConfigError("entity %q declares field %q twice", e.Name, f.Name)
		}
		fields[f.Name] = f

		if !f.Type.Valid() {
			return newConfigError("entity %q field %q has unknown type %q", e.Name, f.Name, f.Type)
		}
		if f.Normalizer != "" && !r.norms.Has(f.Normalizer) {
			return newConfigError("entity %q field %q references unknown normalizer %q", e.Name, f.Name, f.Normalizer)
		}

		switch f.Type {
		case models.FieldTypeEnum:
			if f.Enum == "" {
				return newConfigError("entity %q enum field %q names no synonym table", e.Name, f.Name)
			}
			if _, ok := r.enums[f.Enum]; !ok {
				return newConfigError("entity %q field %q references unknown enum table %q", e.Name, f.Name, f.Enum)
			}
		case models.FieldTypeReference:
			if f.Target == "" {
				return newConfigError("entity %q reference field %q names no target entity", e.Name, f.Name)
			}
			if err := r.checkReference(e, f); err != nil {
				return err
			}
		default:
			if f.Target != "" {
				return newConfigError("entity %q field %q has a target but is not a reference", e.Name, f.Name)
			}
			if f.Optional {
				return newConfigError("entity %q field %q is marked optional but is not a reference", e.Name, f.Name)
			}
		}

		if f.Derive != "" {
			prog, err := evaluator.Compile(f.Derive)
			if err != nil {
				return newConfigError("entity %q field %q: %v", e.Name, f.Name, err)
			}
			if r.derived[e.Name] == nil {
				r.derived[e.Name] = make(map[string]*rules.Program)
			}
			r.derived[e.Name][f.Name] = prog
		}
	}

	// Derived expressions may only reference the entity's own fields
	for fieldName, prog := range r.derived[e.Name] {
		for _, ref := range prog.Fields() {
			if _, ok := fields[ref]; !ok {
				return newConfigError("entity %q field %q derives from unknown field %q", e.Name, fieldName, ref)
			}
		}
	}

	for _, key := range e.UniqueKey {
		if _, ok := fields[key]; !ok {
			return newConfigError("entity %q unique key names unknown field %q", e.Name, key)
		}
	}

	placeholders, err := externalid.Placeholders(e.IDTemplate)
	if err != nil {
		return newConfigError("entity %q: %v", e.Name, err)
	}
	for _, ph := range placeholders {
		if _, ok := fields[ph]; !ok {
			return newConfigError("entity %q ID template references unknown field %q", e.Name, ph)
		}
	}

	return nil
}

// checkReference enforces the ordering invariant for a single reference
// field. Optional and self-referential edges are excluded: real entity
// graphs contain legitimate cycles and nullable back-references, and the
// hand-edited order is trusted rather than re-sorted (auto-sorting ties
// would break byte-identical output across registry edits).
func (r *Registry) checkReference(e *models.EntitySpec, f *models.FieldSpec) error {
	if f.Optional || f.Target == e.Name {
		return nil
	}
	if r.external[f.Target] {
		return nil
	}
	targetPos, inOrder := r.position[f.Target]
	if !inOrder {
		return newConfigError(
			"entity %q field %q references %q, which is neither in the processing order nor marked external",
			e.Name, f.Name, f.Target)
	}
	if targetPos >= r.position[e.Name] {
		return newConfigError(
			"entity %q must be ordered after %q (required by field %q)",
			e.Name, f.Target, f.Name)
	}
	return nil
}

// Order returns the processing order
func (r *Registry) Order() []string {
	out := make([]string, len(r.doc.Order))
	copy(out, r.doc.Order)
	return out
}

// Entity returns the spec for an entity type, or nil
func (r *Registry) Entity(name string) *models.EntitySpec {
	return r.entities[name]
}

// IsExternal reports whether a name is an explicitly external entity type
func (r *Registry) IsExternal(name string) bool {
	return r.external[name]
}

// Normalizers returns the set configured for this registry
func (r *Registry) Normalizers() *normalizers.Set {
	return r.norms
}

// Enum returns the resolver for a synonym table, or nil
func (r *Registry) Enum(name string) *normalizers.EnumResolver {
	return r.enums[name]
}

// Derived returns the compiled derive expression for a field, or nil
func (r *Registry) Derived(entity, field string) *rules.Program {
	return r.derived[entity][field]
}

// Document returns the raw loaded document, for the registry view endpoint
func (r *Registry) Document() models.RegistryDocument {
	return r.doc
}
