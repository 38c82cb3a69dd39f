// Package schema publishes JSON Schemas for the documents the service
// accepts and returns.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/hintaro/hintaro/internal/viral"
)

// Names of the published schemas.
const (
	Analysis = "analysis"
	Card     = "card"
)

// Names lists every published schema.
func Names() []string {
	names := make([]string, 0, len(documents))
	for name := range documents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type document struct {
	title string
	// Analyses carry upstream fields the service does not read.
	open bool
	v    any
}

var documents = map[string]document{
	Analysis: {title: "Hintaro analysis", open: true, v: viral.AnalysisRecord{}},
	Card:     {title: "Hintaro share card", v: viral.Card{}},
}

// For returns the named schema.
func For(name string) (*jsonschema.Schema, error) {
	doc, ok := documents[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q (want one of %v)", name, Names())
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  doc.open,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := reflector.Reflect(doc.v)
	s.Title = doc.title
	return s, nil
}

// JSON returns the named schema, indented.
func JSON(name string) ([]byte, error) {
	s, err := For(name)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema %s: %w", name, err)
	}
	return data, nil
}
