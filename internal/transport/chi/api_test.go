package chi

import (
	"net/http"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

// TestHandler_RoutesMatchOpenAPI keeps the routing table in step with api/openapi.yaml.
func TestHandler_RoutesMatchOpenAPI(t *testing.T) {
	raw, err := os.ReadFile("../../../api/openapi.yaml")
	if err != nil {
		t.Fatalf("read openapi document: %v", err)
	}
	var doc struct {
		Paths map[string]map[string]struct {
			OperationID string `yaml:"operationId"`
		} `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("parse openapi document: %v", err)
	}

	var documented []string
	for path, ops := range doc.Paths {
		for method, op := range ops {
			if op.OperationID == "" {
				t.Errorf("%s %s has no operationId", method, path)
			}
			documented = append(documented, strings.ToUpper(method)+" "+path)
		}
	}

	router, ok := Handler(&Server{}).(chi.Router)
	if !ok {
		t.Fatal("Handler must return a chi router")
	}
	var routed []string
	err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routed = append(routed, method+" "+route)
		return nil
	})
	if err != nil {
		t.Fatalf("walk routes: %v", err)
	}

	sort.Strings(documented)
	sort.Strings(routed)
	if strings.Join(documented, "\n") != strings.Join(routed, "\n") {
		t.Errorf("routes differ from api/openapi.yaml\ndocumented:\n%s\nrouted:\n%s",
			strings.Join(documented, "\n"), strings.Join(routed, "\n"))
	}
}
