package step

import (
	"math"
	"sort"
)

// Point is a model-space coordinate.
type Point struct {
	X, Y, Z float64
}

// Bounds is an axis-aligned box around the document's points.
type Bounds struct {
	Min, Max Point
	Valid    bool
}

func (b *Bounds) extend(p Point) {
	if !b.Valid {
		b.Min, b.Max, b.Valid = p, p, true
		return
	}
	b.Min = Point{math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y), math.Min(b.Min.Z, p.Z)}
	b.Max = Point{math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y), math.Max(b.Max.Z, p.Z)}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Point {
	return Point{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2, (b.Min.Z + b.Max.Z) / 2}
}

// Extent returns the longest side of the box.
func (b Bounds) Extent() float64 {
	return math.Max(b.Max.X-b.Min.X, math.Max(b.Max.Y-b.Min.Y, b.Max.Z-b.Min.Z))
}

// TypeCount pairs an entity type with its number of instances.
type TypeCount struct {
	Type  string
	Count int
}

// Document is the opaque handle produced by a successful parse. It is
// immutable once returned from the reader.
type Document struct {
	Name        string
	Description string
	Schema      string
	Size        int
	Entities    int
	Points      []Point
	Bounds      Bounds
	types       map[string]int
}

// Types returns the entity types sorted by descending count, then name.
func (d *Document) Types() []TypeCount {
	if d == nil {
		return nil
	}
	out := make([]TypeCount, 0, len(d.types))
	for name, n := range d.types {
		out = append(out, TypeCount{Type: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Count returns the number of entities of the given type.
func (d *Document) Count(entityType string) int {
	if d == nil {
		return 0
	}
	return d.types[entityType]
}
