package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dafibh/fortuna/planner-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec is the generated swagger document rewritten as OpenAPI 3.0
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server is an OpenAPI 3.0 server entry
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ServeOpenAPI3Spec serves the swag document converted to OpenAPI 3.0.
// The single server entry points at the host that served the request.
func ServeOpenAPI3Spec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return NewInternalError(c, "Failed to read API documentation")
	}

	origin := c.Scheme() + "://" + c.Request().Host
	spec, err := convertSwagger2([]byte(doc), origin)
	if err != nil {
		return NewInternalError(c, "Failed to convert API documentation")
	}
	return c.JSON(http.StatusOK, spec)
}

func convertSwagger2(raw []byte, origin string) (*OpenAPI3Spec, error) {
	var swagger2 map[string]interface{}
	if err := json.Unmarshal(raw, &swagger2); err != nil {
		return nil, fmt.Errorf("failed to parse swagger doc: %w", err)
	}

	info, _ := swagger2["info"].(map[string]interface{})
	basePath, _ := swagger2["basePath"].(string)

	paths := make(map[string]interface{})
	if src, ok := swagger2["paths"].(map[string]interface{}); ok {
		for route, item := range src {
			ops, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			converted := make(map[string]interface{}, len(ops))
			for method, op := range ops {
				if opMap, ok := op.(map[string]interface{}); ok {
					converted[method] = convertOperation(opMap)
				}
			}
			paths[route] = converted
		}
	}

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = transformRefs(definitions)
	}

	return &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    []Server{{URL: origin + basePath, Description: "Current host"}},
		Paths:      paths,
		Components: components,
	}, nil
}

// convertOperation moves body and formData parameters into requestBody and
// response schemas under content
func convertOperation(op map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for key, value := range op {
		switch key {
		case "parameters", "responses", "consumes", "produces":
		default:
			result[key] = transformRefs(value)
		}
	}

	consumes := stringList(op["consumes"], "application/json")
	produces := stringList(op["produces"], "application/json")

	var params []interface{}
	formProps := make(map[string]interface{})
	var formRequired []interface{}
	list, _ := op["parameters"].([]interface{})
	for _, p := range list {
		param, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		switch param["in"] {
		case "body":
			body := map[string]interface{}{
				"content": map[string]interface{}{
					consumes[0]: map[string]interface{}{"schema": transformRefs(param["schema"])},
				},
			}
			for _, field := range []string{"description", "required"} {
				if val, ok := param[field]; ok {
					body[field] = val
				}
			}
			result["requestBody"] = body
		case "formData":
			name, _ := param["name"].(string)
			formProps[name] = formSchema(param)
			if required, _ := param["required"].(bool); required {
				formRequired = append(formRequired, name)
			}
		default:
			params = append(params, transformParameter(param))
		}
	}
	if len(params) > 0 {
		result["parameters"] = params
	}
	if len(formProps) > 0 {
		schema := map[string]interface{}{"type": "object", "properties": formProps}
		if len(formRequired) > 0 {
			schema["required"] = formRequired
		}
		result["requestBody"] = map[string]interface{}{
			"required": len(formRequired) > 0,
			"content": map[string]interface{}{
				"multipart/form-data": map[string]interface{}{"schema": schema},
			},
		}
	}

	responses := make(map[string]interface{})
	if src, ok := op["responses"].(map[string]interface{}); ok {
		for code, r := range src {
			resp, ok := r.(map[string]interface{})
			if !ok {
				continue
			}
			converted := map[string]interface{}{"description": resp["description"]}
			if schema, ok := resp["schema"]; ok {
				converted["content"] = map[string]interface{}{
					produces[0]: map[string]interface{}{"schema": transformRefs(schema)},
				}
			}
			responses[code] = converted
		}
	}
	result["responses"] = responses
	return result
}

// transformParameter converts a path or query parameter, whose type fields
// move under schema in OpenAPI 3.0
func transformParameter(param map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			result[field] = val
		}
	}

	schema := make(map[string]interface{})
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			schema[field] = transformRefs(val)
		}
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}
	return result
}

func formSchema(param map[string]interface{}) map[string]interface{} {
	if param["type"] == "file" {
		return map[string]interface{}{"type": "string", "format": "binary"}
	}
	schema := map[string]interface{}{"type": param["type"]}
	if desc, ok := param["description"]; ok {
		schema["description"] = desc
	}
	return schema
}

// transformRefs rewrites $ref targets from #/definitions/ to #/components/schemas/
func transformRefs(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				result[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			result[key] = transformRefs(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = transformRefs(item)
		}
		return result
	default:
		return data
	}
}

func stringList(v interface{}, fallback string) []string {
	items, _ := v.([]interface{})
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{fallback}
	}
	return out
}
