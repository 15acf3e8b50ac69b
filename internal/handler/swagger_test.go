package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func serveOpenAPI(t *testing.T) map[string]interface{} {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	req.Host = "planner.test"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := ServeOpenAPI3Spec(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "#/definitions/") {
		t.Error("Expected every $ref to point at #/components/schemas/")
	}

	var spec map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("Failed to decode spec: %v", err)
	}
	return spec
}

func operation(t *testing.T, spec map[string]interface{}, path, method string) map[string]interface{} {
	t.Helper()
	paths, _ := spec["paths"].(map[string]interface{})
	item, ok := paths[path].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected path %s in spec", path)
	}
	op, ok := item[method].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected %s %s in spec", method, path)
	}
	return op
}

func TestServeOpenAPI3Spec(t *testing.T) {
	spec := serveOpenAPI(t)

	if spec["openapi"] != "3.0.3" {
		t.Errorf("Expected openapi 3.0.3, got %v", spec["openapi"])
	}
	servers, _ := spec["servers"].([]interface{})
	if len(servers) != 1 {
		t.Fatalf("Expected one server, got %d", len(servers))
	}
	if url := servers[0].(map[string]interface{})["url"]; url != "http://planner.test/api/v1" {
		t.Errorf("Expected server url from request host, got %v", url)
	}

	for _, path := range []string{
		"/limits/period/{year}/{month}",
		"/limits/copy",
		"/budgets/period/{year}/{month}",
		"/reports/expenses-by-category",
		"/reports/comparison",
	} {
		operation(t, spec, path, "get")
	}

	components, _ := spec["components"].(map[string]interface{})
	schemas, _ := components["schemas"].(map[string]interface{})
	for _, name := range []string{"handler.LimitStatusResponse", "handler.BudgetStatusResponse", "handler.CategoryBreakdownResponse"} {
		if _, ok := schemas[name]; !ok {
			t.Errorf("Expected schema %s", name)
		}
	}
	if _, ok := components["securitySchemes"].(map[string]interface{})["BearerAuth"]; !ok {
		t.Error("Expected BearerAuth security scheme")
	}
}

func TestServeOpenAPI3Spec_BodyParamBecomesRequestBody(t *testing.T) {
	spec := serveOpenAPI(t)
	op := operation(t, spec, "/limits", "post")

	if params, ok := op["parameters"]; ok {
		t.Errorf("Expected no body parameter left in parameters, got %v", params)
	}
	body, ok := op["requestBody"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected requestBody")
	}
	schema := body["content"].(map[string]interface{})["application/json"].(map[string]interface{})["schema"].(map[string]interface{})
	if schema["$ref"] != "#/components/schemas/handler.SetLimitRequest" {
		t.Errorf("Unexpected request schema: %v", schema)
	}
	if body["required"] != true {
		t.Error("Expected requestBody to be required")
	}
}

func TestServeOpenAPI3Spec_ReceiptUploadIsMultipart(t *testing.T) {
	spec := serveOpenAPI(t)
	op := operation(t, spec, "/expenses/{id}/receipt", "post")

	params, _ := op["parameters"].([]interface{})
	if len(params) != 1 {
		t.Fatalf("Expected only the path parameter, got %v", params)
	}
	idParam := params[0].(map[string]interface{})
	if idParam["in"] != "path" || idParam["schema"].(map[string]interface{})["type"] != "integer" {
		t.Errorf("Unexpected path parameter: %v", idParam)
	}

	body := op["requestBody"].(map[string]interface{})
	form, ok := body["content"].(map[string]interface{})["multipart/form-data"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected multipart/form-data request body")
	}
	props := form["schema"].(map[string]interface{})["properties"].(map[string]interface{})
	receipt := props["receipt"].(map[string]interface{})
	if receipt["type"] != "string" || receipt["format"] != "binary" {
		t.Errorf("Expected binary receipt field, got %v", receipt)
	}

	responses := op["responses"].(map[string]interface{})
	created := responses["201"].(map[string]interface{})
	if _, ok := created["content"].(map[string]interface{})["application/json"]; !ok {
		t.Error("Expected 201 response schema under application/json content")
	}
}

func TestConvertSwagger2_NoContentResponse(t *testing.T) {
	raw := []byte(`{
		"swagger": "2.0",
		"basePath": "/api/v1",
		"info": {"title": "t"},
		"paths": {"/limits/{id}": {"delete": {
			"parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
			"responses": {"204": {"description": "No Content"}}
		}}}
	}`)

	spec, err := convertSwagger2(raw, "https://example.com")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if spec.Servers[0].URL != "https://example.com/api/v1" {
		t.Errorf("Unexpected server url %s", spec.Servers[0].URL)
	}
	op := spec.Paths["/limits/{id}"].(map[string]interface{})["delete"].(map[string]interface{})
	resp := op["responses"].(map[string]interface{})["204"].(map[string]interface{})
	if _, ok := resp["content"]; ok {
		t.Error("Expected no content for a 204 response")
	}
	if _, ok := op["requestBody"]; ok {
		t.Error("Expected no requestBody")
	}
}

func TestConvertSwagger2_InvalidJSON(t *testing.T) {
	if _, err := convertSwagger2([]byte("{"), ""); err == nil {
		t.Error("Expected error for malformed document")
	}
}
