// Package validator applies the fixed-order, per-row validation pipeline:
// required-field presence, normalization, enum resolution, reference
// existence, uniqueness. A row contributes at most one exception, and
// exception rows never block, delay or alter the validation of any other
// row in the batch.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/fkcache"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/registry"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Validator partitions entity rows into a valid plane and an exception
// plane. It reads the FK cache but never writes it; the orchestrator owns
// cache mutation.
type Validator struct {
	reg    *registry.Registry
	logger ectologger.Logger
}

// New creates a validator over a loaded registry
func New(reg *registry.Registry, logger ectologger.Logger) *Validator {
	return &Validator{reg: reg, logger: logger}
}

// Validate runs every row of one entity through the pipeline. Checks are
// ordered so cheap, purely local ones run before the cache lookup and the
// run-scoped duplicate check.
func (v *Validator) Validate(ctx context.Context, entity *models.EntitySpec, rows []models.Row, cache *fkcache.Cache) ([]models.ValidRow, []models.ValidationException) {
	ctx, span := tracing.StartSpan(ctx, "validator.Validate")
	defer span.End()

	valid := make([]models.ValidRow, 0, len(rows))
	var exceptions []models.ValidationException
	seen := make(map[string]bool)

	for _, row := range rows {
		vr, exc := v.validateRow(entity, row, cache, seen)
		if exc != nil {
			exceptions = append(exceptions, *exc)
			continue
		}
		seen[vr.Key.String()] = true
		valid = append(valid, vr)
	}

	v.logger.WithContext(ctx).WithFields(map[string]any{
		"entity":     entity.Name,
		"rows":       len(rows),
		"valid":      len(valid),
		"exceptions": len(exceptions),
	}).Debug("validated entity rows")

	return valid, exceptions
}

// validateRow applies the checks in fixed order, short-circuiting at the
// first failure
func (v *Validator) validateRow(entity *models.EntitySpec, row models.Row, cache *fkcache.Cache, seen map[string]bool) (models.ValidRow, *models.ValidationException) {
	reject := func(category models.RuleCategory, format string, args ...any) (models.ValidRow, *models.ValidationException) {
		return models.ValidRow{}, &models.ValidationException{
			Entity:   entity.Name,
			Source:   row.Source,
			Category: category,
			Detail:   fmt.Sprintf(format, args...),
		}
	}

	// 1. Required-field presence. Derived fields are computed, not copied,
	// so presence does not apply to them; optional references may be null.
	for i := range entity.Fields {
		f := &entity.Fields[i]
		if !f.Required || f.Derive != "" {
			continue
		}
		if f.Type == models.FieldTypeReference && f.Optional {
			continue
		}
		if row.Value(f.Name) == "" {
			return reject(models.RuleMissingField, "required field %q is empty", f.Name)
		}
	}

	// 2. Normalization
	values := make(map[string]string, len(entity.Fields))
	norms := v.reg.Normalizers()
	for i := range entity.Fields {
		f := &entity.Fields[i]
		if f.Derive != "" {
			continue
		}
		raw := row.Value(f.Name)
		if raw == "" {
			values[f.Name] = ""
			continue
		}
		name := normalizerFor(f)
		if name == "" {
			values[f.Name] = raw
			continue
		}
		canonical, err := norms.Apply(raw, name)
		if err != nil {
			return reject(models.RuleFormatError, "field %q: %v", f.Name, err)
		}
		values[f.Name] = canonical
	}

	// 3. Enumeration/synonym resolution
	for i := range entity.Fields {
		f := &entity.Fields[i]
		if f.Type != models.FieldTypeEnum || f.Derive != "" || values[f.Name] == "" {
			continue
		}
		code, err := v.reg.Enum(f.Enum).Resolve(values[f.Name])
		if err != nil {
			return reject(models.RuleUnknownEnumValue, "field %q: %v", f.Name, err)
		}
		values[f.Name] = code
	}

	// Derived values are computed once the copied values are canonical, so
	// they can participate in references, the unique key and the ID template
	for i := range entity.Fields {
		f := &entity.Fields[i]
		if f.Derive == "" {
			continue
		}
		values[f.Name] = v.reg.Derived(entity.Name, f.Name).Evaluate(values)
	}

	// 4. Reference existence
	for i := range entity.Fields {
		f := &entity.Fields[i]
		if f.Type != models.FieldTypeReference {
			continue
		}
		value := values[f.Name]

		// Self-references are passed through unresolved: checking them
		// against the same batch would make one row's validity depend on a
		// sibling's, violating exception isolation
		if f.Target == entity.Name {
			continue
		}
		// External references are assumed pre-existing downstream
		if v.reg.IsExternal(f.Target) {
			continue
		}
		if value == "" {
			if f.Optional {
				continue
			}
			return reject(models.RuleOrphanReference, "field %q: empty reference to %q", f.Name, f.Target)
		}
		id, ok := cache.Resolve(f.Target, v.referenceKey(f.Target, value))
		if !ok {
			return reject(models.RuleOrphanReference, "field %q references %s %q, which has no exported ID", f.Name, f.Target, value)
		}
		values[f.Name] = id
	}

	// 5. Uniqueness/duplicate detection
	key := make(models.KeyTuple, len(entity.UniqueKey))
	for i, k := range entity.UniqueKey {
		key[i] = values[k]
	}
	if seen[key.String()] || cache.Has(entity.Name, key) {
		return reject(models.RuleDuplicateKey, "unique key %q already produced an external ID", key.Display())
	}

	return models.ValidRow{Row: row, Values: values, Key: key}, nil
}

// referenceKey converts a reference field value into the target entity's
// unique-key tuple. Multi-field keys are written as "a|b" in the source.
func (v *Validator) referenceKey(target, value string) models.KeyTuple {
	spec := v.reg.Entity(target)
	if spec == nil || len(spec.UniqueKey) <= 1 {
		return models.KeyTuple{value}
	}
	return models.KeyTuple(strings.Split(value, "|"))
}

// normalizerFor returns the effective normalizer name for a field: the
// explicit directive, or the type normalizer for boolean, date and integer
// fields
func normalizerFor(f *models.FieldSpec) string {
	if f.Normalizer != "" {
		return f.Normalizer
	}
	switch f.Type {
	case models.FieldTypeBoolean:
		return "boolean"
	case models.FieldTypeDate:
		return "date"
	case models.FieldTypeInteger:
		return "integer"
	}
	return ""
}
