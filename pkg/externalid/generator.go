// Package externalid derives the stable, human-legible identifier assigned
// to each valid row. Given the same input in the same row order, every
// generated ID is identical across runs on any machine.
package externalid

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Generator assigns external IDs for a single entity within a single run.
// It is not safe for concurrent use; rows are processed sequentially in
// arrival order, which is what makes disambiguation deterministic.
type Generator struct {
	entity     string
	template   string
	used       map[string]bool
	nextSuffix map[string]int
}

// New creates a generator for one entity type
func New(entity *models.EntitySpec) *Generator {
	return &Generator{
		entity:     entity.Name,
		template:   entity.IDTemplate,
		used:       make(map[string]bool),
		nextSuffix: make(map[string]int),
	}
}

// Generate derives the external ID for a row from its normalized values.
// The ID is the entity name joined to the slugified template rendering; when
// two distinct unique-key tuples slugify to the same base, later arrivals
// get the lowest unused integer suffix. Duplicate tuples never reach this
// point - the validator rejects them first.
func (g *Generator) Generate(values map[string]string) models.ExternalIDRecord {
	slug := Slugify(render(g.template, values))
	if slug == "" {
		slug = "row"
	}
	base := g.entity + "." + slug

	id := base
	if g.used[base] {
		n := g.nextSuffix[base]
		if n < 2 {
			n = 2
		}
		for {
			candidate := fmt.Sprintf("%s-%d", base, n)
			n++
			if !g.used[candidate] {
				id = candidate
				break
			}
		}
		g.nextSuffix[base] = n
	}
	g.used[id] = true

	return models.ExternalIDRecord{Entity: g.entity, ID: id}
}
