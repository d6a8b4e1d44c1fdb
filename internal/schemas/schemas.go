// Package schemas embeds the JSON Schemas of forgecheck documents.
package schemas

import (
	"embed"
	"fmt"
	"maps"
	"slices"
)

//go:embed *.schema.json
var files embed.FS

const baseURI = "https://wharflab.github.io/forgecheck/schemas/"

// Schema IDs.
const (
	EntrySchemaID   = baseURI + "entry.schema.json"
	FixtureSchemaID = baseURI + "fixture.schema.json"
	OutputSchemaID  = baseURI + "output.schema.json"
	ConfigSchemaID  = baseURI + "config.schema.json"
)

var fileByID = map[string]string{
	EntrySchemaID:   "entry.schema.json",
	FixtureSchemaID: "fixture.schema.json",
	OutputSchemaID:  "output.schema.json",
	ConfigSchemaID:  "config.schema.json",
}

// namedSchemas are the schemas users can print with `forgecheck schema NAME`.
var namedSchemas = map[string]string{
	"fixture": FixtureSchemaID,
	"output":  OutputSchemaID,
	"entry":   EntrySchemaID,
	"config":  ConfigSchemaID,
}

// AllSchemaIDs returns every embedded schema ID, sorted.
func AllSchemaIDs() []string {
	return slices.Sorted(maps.Keys(fileByID))
}

// Names returns the user-facing schema names, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(namedSchemas))
}

// SchemaIDByName maps a user-facing name such as "fixture" to its schema ID.
func SchemaIDByName(name string) (string, bool) {
	id, ok := namedSchemas[name]
	return id, ok
}

// ReadSchemaByID returns a copy of the schema document with the given ID.
func ReadSchemaByID(schemaID string) ([]byte, error) {
	name, ok := fileByID[schemaID]
	if !ok {
		return nil, fmt.Errorf("unknown schema ID %q", schemaID)
	}
	return files.ReadFile(name)
}
