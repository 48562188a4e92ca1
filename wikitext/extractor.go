package wikitext

import (
	"strings"

	"github.com/fwojciec/battletally"
)

// DefaultMarker identifies infobox-like templates by name.
const DefaultMarker = "infobox"

// Ensure Extractor implements battletally.FieldExtractor.
var _ battletally.FieldExtractor = (*Extractor)(nil)

// Extractor reads a named parameter from the first infobox in a wikitext
// document.
type Extractor struct {
	// Marker is matched against lower-cased template names.
	// Defaults to DefaultMarker.
	Marker string
}

// NewExtractor creates an Extractor that looks for "infobox" templates.
func NewExtractor() *Extractor {
	return &Extractor{Marker: DefaultMarker}
}

// ExtractField implements battletally.FieldExtractor. Only the first
// infobox is consulted, even when a later one carries the field.
func (e *Extractor) ExtractField(document, name string) battletally.Field {
	marker := e.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	tpl := FirstNamed(Parse(document), marker)
	if tpl == nil {
		return battletally.Field{}
	}
	v, ok := tpl.Lookup(name)
	if !ok {
		return battletally.Field{}
	}
	return battletally.Present(strings.TrimSpace(v))
}

// FirstNamed returns the first template whose lower-cased name contains
// marker, or nil.
func FirstNamed(templates []Template, marker string) *Template {
	marker = strings.ToLower(marker)
	for i := range templates {
		if strings.Contains(strings.ToLower(templates[i].Name), marker) {
			return &templates[i]
		}
	}
	return nil
}
