package domain

import "fmt"

// Field identifies one embedded text field of an article.
type Field string

// Embedded fields.
const (
	FieldTitle    Field = "title"
	FieldAbstract Field = "abstract"
	FieldSummary  Field = "summary"
)

// AllFields lists every embedded field in canonical order.
var AllFields = []Field{FieldTitle, FieldAbstract, FieldSummary}

// IsValid returns true if the field is one of AllFields.
func (f Field) IsValid() bool {
	switch f {
	case FieldTitle, FieldAbstract, FieldSummary:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f Field) String() string {
	return string(f)
}

// Ordinal returns the field's position in AllFields, or -1.
func (f Field) Ordinal() int {
	for i, candidate := range AllFields {
		if candidate == f {
			return i
		}
	}
	return -1
}

// ParseField converts a string to a Field.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: unknown field %q", ErrInvalidInput, s)
	}
	return f, nil
}

// VectorRecord is one embedding of one article field.
// The sync coordinator is the only writer; the vector store owns storage.
type VectorRecord struct {
	ArticleKey string
	Field      Field
	Vector     []float32
}
