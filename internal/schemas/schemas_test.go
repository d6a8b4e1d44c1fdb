package schemas_test

import (
	"encoding/json"
	"testing"

	"github.com/wharflab/forgecheck/internal/schemas"
)

func TestAllSchemaIDsAreReadable(t *testing.T) {
	t.Parallel()

	ids := schemas.AllSchemaIDs()
	if len(ids) == 0 {
		t.Fatal("AllSchemaIDs() returned no schema IDs")
	}

	for _, schemaID := range ids {
		data, err := schemas.ReadSchemaByID(schemaID)
		if err != nil {
			t.Fatalf("ReadSchemaByID(%q) error = %v", schemaID, err)
		}

		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("schema %q is not valid JSON: %v", schemaID, err)
		}
		if doc["$id"] != schemaID {
			t.Errorf("schema %q declares $id %v", schemaID, doc["$id"])
		}
	}
}

func TestSchemaIDByName(t *testing.T) {
	t.Parallel()

	for _, name := range schemas.Names() {
		id, ok := schemas.SchemaIDByName(name)
		if !ok {
			t.Fatalf("SchemaIDByName(%q) not found", name)
		}
		if _, err := schemas.ReadSchemaByID(id); err != nil {
			t.Errorf("ReadSchemaByID(%q) error = %v", id, err)
		}
	}

	if _, ok := schemas.SchemaIDByName("manifest"); ok {
		t.Error("SchemaIDByName(manifest) unexpectedly found")
	}
	if _, err := schemas.ReadSchemaByID("https://example.com/unknown.json"); err == nil {
		t.Error("ReadSchemaByID(unknown) expected error")
	}
}
