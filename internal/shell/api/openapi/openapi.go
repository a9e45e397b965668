// Package openapi builds the OpenAPI 3.0 document for the inspection API.
package openapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var (
	specOnce sync.Once
	spec     *openapi3.T
)

// Handler returns an HTTP handler that serves the OpenAPI document.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(Document()); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

// Document returns the API specification, built once and cached.
func Document() *openapi3.T {
	specOnce.Do(func() {
		spec = build()
	})
	return spec
}

func build() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Shipmate API",
			Version:     "1.0.0",
			Description: "Deployment topology declaration inspection API",
		},
		Paths: &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	addSchemas(doc)

	doc.Paths.Set("/health", &openapi3.PathItem{
		Get: operation("getHealth", "Liveness probe", "Health"),
	})
	doc.Paths.Set("/ready", &openapi3.PathItem{
		Get: operation("getReady", "Readiness probe", "Health"),
	})

	doc.Paths.Set("/api/v1/declarations", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "submitDeclaration",
			Summary:     "Parse, validate and store a declaration revision",
			Tags:        []string{"Declarations"},
			RequestBody: &openapi3.RequestBodyRef{
				Value: &openapi3.RequestBody{
					Required: true,
					Content: openapi3.Content{
						"application/json": &openapi3.MediaType{
							Schema: &openapi3.SchemaRef{
								Ref: "#/components/schemas/SubmitDeclarationRequest",
							},
						},
					},
				},
			},
			Responses: &openapi3.Responses{},
		},
	})

	doc.Paths.Set("/api/v1/declarations/{name}", &openapi3.PathItem{
		Get:        operation("getLatestRevision", "Latest revision of a declaration", "Declarations"),
		Parameters: pathParams("name"),
	})
	doc.Paths.Set("/api/v1/declarations/{name}/revisions", &openapi3.PathItem{
		Get:        operation("listRevisions", "List revisions of a declaration", "Declarations"),
		Parameters: pathParams("name"),
	})
	doc.Paths.Set("/api/v1/declarations/{name}/plan", &openapi3.PathItem{
		Get:        operation("getStartPlan", "Derived start-order plan", "Declarations"),
		Parameters: pathParams("name"),
	})
	doc.Paths.Set("/api/v1/declarations/{name}/services/{service}", &openapi3.PathItem{
		Get:        operation("resolveService", "Resolve a service by name", "Services"),
		Parameters: pathParams("name", "service"),
	})
	doc.Paths.Set("/api/v1/declarations/{name}/services/{service}/dependencies", &openapi3.PathItem{
		Get:        operation("getDependencies", "Direct predecessors of a service", "Services"),
		Parameters: pathParams("name", "service"),
	})
	doc.Paths.Set("/api/v1/declarations/{name}/services/{service}/mounts", &openapi3.PathItem{
		Get:        operation("getMounts", "Mount bindings of a service", "Services"),
		Parameters: pathParams("name", "service"),
	})
	doc.Paths.Set("/api/v1/declarations/{name}/services/{service}/ports", &openapi3.PathItem{
		Get:        operation("getPorts", "Published port bindings of a service", "Services"),
		Parameters: pathParams("name", "service"),
	})
	doc.Paths.Set("/api/v1/revisions/{id}", &openapi3.PathItem{
		Get:        operation("getRevision", "Fetch a stored revision by id", "Declarations"),
		Delete:     operation("deleteRevision", "Delete a stored revision", "Declarations"),
		Parameters: pathParams("id"),
	})

	return doc
}

func operation(id, summary, tag string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: id,
		Summary:     summary,
		Tags:        []string{tag},
		Responses:   &openapi3.Responses{},
	}
}

func pathParams(names ...string) openapi3.Parameters {
	params := make(openapi3.Parameters, 0, len(names))
	for _, name := range names {
		params = append(params, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:     name,
				In:       "path",
				Required: true,
				Schema: &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
			},
		})
	}
	return params
}

func addSchemas(doc *openapi3.T) {
	doc.Components.Schemas["SubmitDeclarationRequest"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"name": &openapi3.SchemaRef{
					Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
				},
				"manifest": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:        &openapi3.Types{"string"},
						Description: "Raw declaration manifest (compose dialect YAML)",
					},
				},
			},
			Required: []string{"name", "manifest"},
		},
	}

	doc.Components.Schemas["Error"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code": &openapi3.SchemaRef{
								Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
							},
							"message": &openapi3.SchemaRef{
								Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
							},
							"details": &openapi3.SchemaRef{
								Value: &openapi3.Schema{
									Type: &openapi3.Types{"array"},
									Items: &openapi3.SchemaRef{
										Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}
