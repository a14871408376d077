// Package models - class tables that map detector class indices to names.
package models

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrUnknownClass is returned when a class index has no entry in the table.
var ErrUnknownClass = errors.New("unknown class")

// OutputClass represents one detection label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int `json:"index" yaml:"index"`
	// The human-readable label.
	Name string `json:"name" yaml:"name"`
}

// ClassTable maps class indices to names. The zero value is an empty table.
type ClassTable struct {
	names map[int]string
}

// DefaultClasses is the two-class shark detector table.
var DefaultClasses = MustClassTable(map[int]string{
	0: "shark",
	1: "sawfish",
})

// NewClassTable validates and builds a class table.
//
// Arguments:
//   - names: Class index to class name. Indices must be non-negative and names
//     non-empty and unique.
//
// Returns:
//   - *ClassTable: The class table.
//   - error: An error describing the first invalid entry.
func NewClassTable(names map[int]string) (*ClassTable, error) {
	t := &ClassTable{names: make(map[int]string, len(names))}
	seen := make(map[string]int, len(names))
	for idx, name := range names {
		if idx < 0 {
			return nil, errors.Errorf("class index %d is negative", idx)
		}
		if name == "" {
			return nil, errors.Errorf("class %d has an empty name", idx)
		}
		if other, ok := seen[name]; ok {
			return nil, errors.Errorf("class name %q used by %d and %d", name, min(idx, other), max(idx, other))
		}
		t.names[idx] = name
		seen[name] = idx
	}
	return t, nil
}

// MustClassTable is like NewClassTable but panics on error.
func MustClassTable(names map[int]string) *ClassTable {
	t, err := NewClassTable(names)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the class name for idx.
func (t *ClassTable) Name(idx int) (string, error) {
	name, ok := t.names[idx]
	if !ok {
		return "", errors.Wrapf(ErrUnknownClass, "index %d", idx)
	}
	return name, nil
}

// Len returns the number of classes.
func (t *ClassTable) Len() int {
	return len(t.names)
}

// Classes returns every class ordered by index.
func (t *ClassTable) Classes() []OutputClass {
	out := make([]OutputClass, 0, len(t.names))
	for idx, name := range t.names {
		out = append(out, OutputClass{Index: idx, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// datasetFile is the subset of a YOLO dataset YAML we care about.
type datasetFile struct {
	Names yaml.Node `yaml:"names"`
}

// LoadClassTable reads the `names` entry of a YOLO dataset YAML. Both the list
// form (`names: [shark, sawfish]`) and the map form (`names: {0: shark}`) are
// accepted.
//
// Arguments:
//   - r: The YAML document.
//
// Returns:
//   - *ClassTable: The class table.
//   - error: An error if the document cannot be parsed or has no names.
//
// @example
// f, _ := os.Open("data.yaml")
// classes, err := LoadClassTable(f)
func LoadClassTable(r io.Reader) (*ClassTable, error) {
	var doc datasetFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse dataset yaml")
	}

	names := map[int]string{}
	switch doc.Names.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := doc.Names.Decode(&list); err != nil {
			return nil, errors.Wrap(err, "failed to decode names list")
		}
		for i, name := range list {
			names[i] = name
		}
	case yaml.MappingNode:
		if err := doc.Names.Decode(&names); err != nil {
			return nil, errors.Wrap(err, "failed to decode names map")
		}
	case 0:
		return nil, errors.New("dataset yaml has no names entry")
	default:
		return nil, errors.Errorf("names must be a list or a map, got yaml kind %d", doc.Names.Kind)
	}

	if len(names) == 0 {
		return nil, errors.New("dataset yaml lists no classes")
	}
	return NewClassTable(names)
}
