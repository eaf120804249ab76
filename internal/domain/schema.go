package domain

// Category classifies a registry entry the way the contracts package groups its exports.
type Category string

const (
	CategoryTypes      Category = "types"
	CategoryErrors     Category = "errors"
	CategoryVersioning Category = "versioning"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTypes, CategoryErrors, CategoryVersioning:
		return true
	}
	return false
}

// Entry is a single named export of a schema registry.
// Value holds the raw export; only type-definition values are extracted, anything
// else is skipped with a warning.
type Entry struct {
	Name     string
	Category Category
	Value    any
}

// Registry is the canonical, named collection of type definitions supplied to one
// generation run. It is treated as read-only data.
type Registry struct {
	// Name identifies the registry origin (file path, URL, server address).
	Name string
	// Version is the contract version declared by the source, if any.
	Version string
	// Entries are kept in declaration order; extraction preserves it.
	Entries []Entry
}

// SchemaDefinition is one extracted, lowered schema. It is immutable once built.
type SchemaDefinition struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	IR       Node     `json:"-"`
}
