// Package rootio implements the format-independent reader core: a
// per-format schema registry, the index-chain accumulators mapping
// named fields onto lazy backing branches, and file-header parsing.
// Format packages instantiate it with their own schema tables.
package rootio

import (
	"sort"
	"strings"

	"github.com/km3py/km3go/ktree"
)

// Field binds an exposed field name to a backing path. For top-level
// aliases the path is relative to the schema's event path, for nested
// collection fields it is relative to the collection branch.
type Field struct {
	Name string
	Path string
}

// CollectionSchema declares the exposed fields of one nested
// collection, in order.
type CollectionSchema struct {
	Name   string
	Fields []Field
}

// Schema declares how a file format maps short field names onto branch
// paths. Schemas are static per format; they are filtered against the
// actual branch listing once per open, fields whose backing branch is
// absent in that file version are silently dropped.
type Schema struct {
	// EventPath is the branch-group prefix all event data lives under.
	EventPath string
	// ItemName names one record, for messages.
	ItemName string
	// SkipFields are internal or unsupported top-level keys excluded
	// from enumeration even when present.
	SkipFields []string
	// Aliases expose irregularly named branches under stable names.
	Aliases []Field
	// Nested declares the sub-collections with their field tables.
	Nested []CollectionSchema
	// NestedAliases expose nested collections under second names.
	NestedAliases []Field
}

// Collection is a filtered nested-collection schema bound to one file.
type Collection struct {
	Name   string
	Path   string
	Fields []Field
	paths  map[string]string // field name -> full branch path
}

// FieldNames lists the surviving field names in declaration order.
func (c *Collection) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// countField is the leaf used for length and count queries. Every
// collection table carries an id field; the first declared field backs
// collections that do not.
func (c *Collection) countField() (string, bool) {
	if path, ok := c.paths["id"]; ok {
		return path, true
	}
	if len(c.Fields) > 0 {
		return c.paths[c.Fields[0].Name], true
	}
	return "", false
}

// resolved is a schema filtered against one file's branch listing.
type resolved struct {
	keys    []string
	leaf    map[string]string      // name -> full branch path
	nested  map[string]*Collection // name (incl. aliases) -> collection
	counts  map[string]string      // "n_<name>" -> collection lookup name
	idPath  string                 // identity leaf for length queries
	entries int64
}

// filter resolves a schema against the file once. Missing alias
// targets and missing collection fields are dropped, per-file format
// drift is expected.
func (s *Schema) filter(f *ktree.File) (*resolved, error) {
	prefix := s.EventPath + "/"
	skip := make(map[string]bool, len(s.SkipFields))
	for _, k := range s.SkipFields {
		skip[k] = true
	}

	res := &resolved{
		leaf:   make(map[string]string),
		nested: make(map[string]*Collection),
		counts: make(map[string]string),
	}

	// Top-level keys in file order, one per branch-group component.
	seen := make(map[string]bool)
	var toplevel []string
	for _, key := range f.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		top := rest
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			top = rest[:i]
		}
		if !seen[top] {
			seen[top] = true
			toplevel = append(toplevel, top)
		}
	}

	for _, top := range toplevel {
		if skip[top] {
			continue
		}
		res.keys = append(res.keys, top)
		if f.Has(prefix + top) {
			res.leaf[top] = prefix + top
		}
	}
	for _, alias := range s.Aliases {
		target := prefix + alias.Path
		if f.Has(target) {
			res.keys = append(res.keys, alias.Name)
			res.leaf[alias.Name] = target
		}
	}

	for _, nested := range s.Nested {
		if !seen[nested.Name] {
			continue
		}
		col := &Collection{
			Name:  nested.Name,
			Path:  prefix + nested.Name,
			paths: make(map[string]string),
		}
		for _, field := range nested.Fields {
			full := col.Path + "/" + field.Path
			if f.Has(full) {
				col.Fields = append(col.Fields, field)
				col.paths[field.Name] = full
			}
		}
		res.nested[nested.Name] = col
		res.counts["n_"+nested.Name] = nested.Name
	}
	for _, alias := range s.NestedAliases {
		if col, ok := res.nested[alias.Path]; ok {
			res.nested[alias.Name] = col
			res.counts["n_"+alias.Name] = alias.Name
			res.keys = append(res.keys, alias.Name)
		}
	}
	for name := range res.counts {
		res.keys = append(res.keys, name)
	}
	// Count keys come from map iteration, keep enumeration stable.
	sort.Strings(res.keys[len(res.keys)-len(res.counts):])

	if path, ok := res.leaf["id"]; ok {
		res.idPath = path
		b, err := f.Branch(path)
		if err != nil {
			return nil, err
		}
		res.entries = b.Entries()
	}
	return res, nil
}
