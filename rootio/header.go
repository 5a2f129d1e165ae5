package rootio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/km3py/km3go/definitions"
)

// Value is one header token. Short rows are padded with explicitly
// missing values, never zeros.
type Value struct {
	Raw     string
	Missing bool
}

// Float converts the token, reporting false for missing or
// non-numeric values.
func (v Value) Float() (float64, bool) {
	if v.Missing {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int converts the token, reporting false for missing or non-integer
// values.
func (v Value) Int() (int64, bool) {
	if v.Missing {
		return 0, false
	}
	i, err := strconv.ParseInt(v.Raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

func (v Value) String() string {
	if v.Missing {
		return "<missing>"
	}
	return v.Raw
}

// Entry is one parsed header line: a key with named fields. A key not
// listed in the expected-field table with a single token stays scalar
// (no field names).
type Entry struct {
	Name   string
	Fields []string
	Values []Value
}

// Get returns the value of a named field.
func (e Entry) Get(field string) (Value, bool) {
	for i, name := range e.Fields {
		if name == field {
			return e.Values[i], true
		}
	}
	return Value{}, false
}

// Scalar returns the single unnamed value of a scalar entry.
func (e Entry) Scalar() (Value, bool) {
	if len(e.Fields) != 0 || len(e.Values) != 1 {
		return Value{}, false
	}
	return e.Values[0], true
}

func (e Entry) String() string {
	if v, ok := e.Scalar(); ok {
		return fmt.Sprintf("%s: %s", e.Name, v)
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s=%s", f, e.Values[i])
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(parts, ", "))
}

// Header is the parsed file-metadata block: a flat mapping from key to
// converted fields, built once per file.
type Header struct {
	keys    []string
	entries map[string]Entry
}

// ParseHeader tokenizes the embedded key/value text block against the
// expected-field table. Rows with fewer tokens than expected are
// padded with missing values; extra tokens get synthesized field_N
// names.
func ParseHeader(text string) *Header {
	h := &Header{entries: make(map[string]Entry)}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, rest, found := strings.Cut(line, ":")
		if !found {
			name = line
			rest = ""
		}
		name = strings.TrimSpace(name)
		tokens := strings.Fields(rest)
		fields := definitions.MCHeader[name]

		if len(tokens) == 1 && len(fields) == 0 {
			h.put(Entry{Name: name, Values: []Value{{Raw: tokens[0]}}})
			continue
		}

		n := len(tokens)
		if len(fields) > n {
			n = len(fields)
		}
		if n == 0 {
			continue
		}
		values := make([]Value, n)
		for i := range values {
			if i < len(tokens) {
				values[i] = Value{Raw: tokens[i]}
			} else {
				values[i] = Value{Missing: true}
			}
		}
		named := make([]string, n)
		copy(named, fields)
		for i := len(fields); i < n; i++ {
			named[i] = fmt.Sprintf("field_%d", i)
		}
		h.put(Entry{Name: name, Fields: named, Values: values})
	}
	return h
}

func (h *Header) put(e Entry) {
	if _, dup := h.entries[e.Name]; !dup {
		h.keys = append(h.keys, e.Name)
	}
	h.entries[e.Name] = e
}

// Keys lists the header keys in file order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Entry looks up one header line.
func (h *Header) Entry(name string) (Entry, bool) {
	e, ok := h.entries[name]
	return e, ok
}

// Get looks up a named field of a header line.
func (h *Header) Get(name, field string) (Value, bool) {
	e, ok := h.entries[name]
	if !ok {
		return Value{}, false
	}
	return e.Get(field)
}

func (h *Header) String() string {
	lines := []string{"MC Header:"}
	for _, key := range h.keys {
		lines = append(lines, "  "+h.entries[key].String())
	}
	return strings.Join(lines, "\n")
}
