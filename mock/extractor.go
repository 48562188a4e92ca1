package mock

import "github.com/fwojciec/battletally"

var _ battletally.FieldExtractor = (*FieldExtractor)(nil)

// FieldExtractor is a mock implementation of battletally.FieldExtractor.
type FieldExtractor struct {
	ExtractFieldFn func(document, name string) battletally.Field
}

func (e *FieldExtractor) ExtractField(document, name string) battletally.Field {
	return e.ExtractFieldFn(document, name)
}

var _ battletally.Classifier = (*Classifier)(nil)

// Classifier is a mock implementation of battletally.Classifier.
type Classifier struct {
	ClassifyFn func(field battletally.Field) battletally.Outcome
}

func (c *Classifier) Classify(field battletally.Field) battletally.Outcome {
	return c.ClassifyFn(field)
}
