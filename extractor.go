package battletally

// DefaultField is the infobox parameter that holds a battle's result.
const DefaultField = "result"

// Field is an optionally present value extracted from a document.
type Field struct {
	Value string
	Valid bool // Valid is false when the field is absent
}

// Present returns a Field holding v.
func Present(v string) Field {
	return Field{Value: v, Valid: true}
}

// FieldExtractor pulls a single named field out of a markup document.
type FieldExtractor interface {
	// ExtractField returns the trimmed value of the named parameter of the
	// first infobox-like block in the document, or an absent Field.
	// Malformed markup yields an absent Field rather than an error.
	ExtractField(document string, name string) Field
}

// Classifier normalizes extracted text into an Outcome.
type Classifier interface {
	// Classify is total: absent fields map to OutcomeUnknown and text that
	// matches no rule maps to OutcomeOther.
	Classify(field Field) Outcome
}
