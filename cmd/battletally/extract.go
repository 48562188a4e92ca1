package main

import (
	"fmt"

	"github.com/fwojciec/battletally"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	doc, err := deps.Fetcher.FetchDocument(deps.Ctx, c.Title)
	if err != nil {
		return err
	}

	field := deps.Extractor.ExtractField(doc, c.Field)
	outcome := deps.Classifier.Classify(field)

	value := field.Value
	if !field.Valid {
		value = "(absent)"
	}
	fmt.Fprintf(deps.Stdout, "title:   %s\n", c.Title)
	fmt.Fprintf(deps.Stdout, "%-8s %s\n", c.Field+":", value)
	fmt.Fprintf(deps.Stdout, "outcome: %s\n", outcome)
	fmt.Fprintf(deps.Stdout, "source:  %s\n", battletally.SourceURL(battletally.DefaultBaseURL, c.Title))
	return nil
}
