// Package openapi serves an OpenAPI 3.0 description of the REST endpoints.
package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// Operation describes one endpoint. Schema names refer to
// components.schemas; empty means no body.
type Operation struct {
	Method         string
	Path           string // echo syntax, e.g. /api/v1/catalog/:table
	Summary        string
	Tag            string
	RequestSchema  string
	ResponseSchema string
	Query          []string
}

// Generator builds the OpenAPI document from registered operations and schemas.
type Generator struct {
	title   string
	version string
	baseURL string
	ops     []Operation
	schemas map[string]interface{}
}

func NewGenerator(title, version, baseURL string) *Generator {
	return &Generator{title: title, version: version, baseURL: baseURL, schemas: map[string]interface{}{
		"OperationOutcome": buildOperationOutcomeSchema(),
	}}
}

func (g *Generator) Add(ops ...Operation) {
	g.ops = append(g.ops, ops...)
}

// AddSchema registers a component schema under name.
func (g *Generator) AddSchema(name string, schema map[string]interface{}) {
	g.schemas[name] = schema
}

// Object is a shorthand for an object schema with a description and named
// properties of the given types (a "#/..." type becomes a $ref).
func Object(description string, props map[string]string) map[string]interface{} {
	properties := make(map[string]interface{}, len(props))
	for name, typ := range props {
		properties[name] = propertySchema(typ)
	}
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties":  properties,
	}
}

func propertySchema(typ string) map[string]interface{} {
	switch {
	case strings.HasPrefix(typ, "#/"):
		return map[string]interface{}{"$ref": typ}
	case strings.HasPrefix(typ, "[]"):
		return map[string]interface{}{"type": "array", "items": propertySchema(typ[2:])}
	default:
		return map[string]interface{}{"type": typ}
	}
}

// openAPIPath converts echo path params (:id) to OpenAPI ({id}) and returns
// the parameter names.
func openAPIPath(path string) (string, []string) {
	segments := strings.Split(path, "/")
	var params []string
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			params = append(params, s[1:])
			segments[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segments, "/"), params
}

func schemaRef(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

func (g *Generator) buildResponseWithSchema(description, schema string) map[string]interface{} {
	resp := map[string]interface{}{"description": description}
	if schema != "" {
		resp["content"] = map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schemaRef(schema)},
		}
	}
	return resp
}

func (g *Generator) operation(op Operation, pathParams []string) map[string]interface{} {
	var params []map[string]interface{}
	for _, p := range pathParams {
		params = append(params, map[string]interface{}{
			"name": p, "in": "path", "required": true, "schema": map[string]string{"type": "string"},
		})
	}
	for _, q := range op.Query {
		params = append(params, map[string]interface{}{
			"name": q, "in": "query", "required": false, "schema": map[string]string{"type": "string"},
		})
	}

	out := map[string]interface{}{
		"summary":     op.Summary,
		"operationId": operationID(op),
		"tags":        []string{op.Tag},
		"responses": map[string]interface{}{
			"200": g.buildResponseWithSchema("Success", op.ResponseSchema),
			"400": g.buildResponseWithSchema("Invalid request", "OperationOutcome"),
		},
	}
	if len(params) > 0 {
		out["parameters"] = params
	}
	if op.RequestSchema != "" {
		out["requestBody"] = map[string]interface{}{
			"required": true,
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{"schema": schemaRef(op.RequestSchema)},
			},
		}
	}
	return out
}

// operationID is method + path words in camel case, e.g. postApiV1Assessments.
func operationID(op Operation) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(op.Method))
	for _, part := range strings.FieldsFunc(op.Path, func(r rune) bool {
		return r == '/' || r == '-' || r == ':' || r == '_'
	}) {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

// GenerateSpec produces the OpenAPI 3.0 spec as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	ops := append([]Operation(nil), g.ops...)
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Path < ops[j].Path })

	paths := make(map[string]interface{})
	for _, op := range ops {
		p, params := openAPIPath(op.Path)
		item, _ := paths[p].(map[string]interface{})
		if item == nil {
			item = map[string]interface{}{}
			paths[p] = item
		}
		item[strings.ToLower(op.Method)] = g.operation(op, params)
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   g.title,
			"version": g.version,
		},
		"servers": []map[string]string{
			{"url": g.baseURL},
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": g.schemas,
		},
	}
}

func buildOperationOutcomeSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"resourceType": map[string]interface{}{"type": "string", "enum": []string{"OperationOutcome"}},
			"issue": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"severity":    map[string]interface{}{"type": "string"},
						"code":        map[string]interface{}{"type": "string"},
						"diagnostics": map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	}
}

// RegisterRoutes registers GET /openapi.json.
func (g *Generator) RegisterRoutes(e *echo.Echo) {
	e.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	})
}
