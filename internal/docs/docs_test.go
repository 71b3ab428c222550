package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestDocumentRendersAsJSON(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatal(err)
	}
	var parsed struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if parsed.BasePath != "/api/v1" {
		t.Fatalf("basePath = %q", parsed.BasePath)
	}
	for _, p := range []string{"/components/{id}/checkout", "/transactions/{key}/return", "/beneficiaries"} {
		if _, ok := parsed.Paths[p]; !ok {
			t.Errorf("missing path %s", p)
		}
	}
}
