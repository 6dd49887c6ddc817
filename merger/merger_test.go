package merger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasfold/oasfold/bundler"
	"github.com/oasfold/oasfold/internal/rawutil"
)

func testDoc(title, version string, root map[string]any) *bundler.ResolvedDocument {
	return &bundler.ResolvedDocument{
		Root:    root,
		Format:  "yaml",
		Title:   title,
		Version: version,
		OpenAPI: "3.0.3",
	}
}

func dig(t *testing.T, node any, keys ...string) any {
	t.Helper()
	for _, key := range keys {
		m, ok := node.(map[string]any)
		require.True(t, ok, "expected map at %q", key)
		node = m[key]
		require.NotNil(t, node, "missing key %q", key)
	}
	return node
}

func TestMergePathUnion(t *testing.T) {
	docs := []*bundler.ResolvedDocument{
		testDoc("Users API", "1.0.0", map[string]any{
			"openapi": "3.0.3",
			"info":    map[string]any{"title": "Users API", "version": "1.0.0"},
			"paths": map[string]any{
				"/users": map[string]any{
					"get": map[string]any{
						"responses": map[string]any{"200": map[string]any{"description": "ok"}},
					},
				},
			},
		}),
		testDoc("Orders API", "2.0.0", map[string]any{
			"openapi": "3.0.3",
			"info":    map[string]any{"title": "Orders API", "version": "2.0.0"},
			"paths": map[string]any{
				"/orders": map[string]any{
					"get": map[string]any{
						"responses": map[string]any{"200": map[string]any{"description": "ok"}},
					},
				},
			},
		}),
	}

	result, err := New(Config{}).Merge(docs)
	require.NoError(t, err)

	paths := dig(t, result.Document, "paths").(map[string]any)
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, "/users")
	assert.Contains(t, paths, "/orders")

	usersGet := dig(t, result.Document, "paths", "/users", "get").(map[string]any)
	assert.Equal(t, []any{"Users API"}, usersGet[ExtAggregatedFrom])
	ordersGet := dig(t, result.Document, "paths", "/orders", "get").(map[string]any)
	assert.Equal(t, []any{"Orders API"}, ordersGet[ExtAggregatedFrom])

	from := dig(t, result.Document, "info", ExtAggregatedFrom).([]any)
	require.Len(t, from, 2)
	assert.Equal(t, map[string]any{"title": "Users API", "version": "1.0.0"}, from[0])
	assert.Equal(t, map[string]any{"title": "Orders API", "version": "2.0.0"}, from[1])

	assert.Equal(t, "Users API", result.Title)
	assert.Empty(t, result.Warnings)
}

func TestMergeOperationsByPathAndMethod(t *testing.T) {
	docs := []*bundler.ResolvedDocument{
		testDoc("A", "1.0.0", map[string]any{
			"paths": map[string]any{
				"/items": map[string]any{
					"get": map[string]any{
						"summary": "list items",
						"parameters": []any{
							map[string]any{"name": "limit", "in": "query", "schema": map[string]any{"type": "integer"}},
						},
						"responses": map[string]any{"200": map[string]any{"description": "ok"}},
					},
				},
			},
		}),
		testDoc("B", "1.0.0", map[string]any{
			"paths": map[string]any{
				"/items": map[string]any{
					"get": map[string]any{
						"parameters": []any{
							map[string]any{"name": "limit", "in": "query", "schema": map[string]any{"type": "integer"}},
							map[string]any{"name": "offset", "in": "query", "schema": map[string]any{"type": "integer"}},
						},
						"responses": map[string]any{"404": map[string]any{"description": "missing"}},
					},
					"post": map[string]any{
						"responses": map[string]any{"201": map[string]any{"description": "created"}},
					},
				},
			},
		}),
	}

	result, err := New(Config{}).Merge(docs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MergedOperations)

	item := dig(t, result.Document, "paths", "/items").(map[string]any)
	assert.Contains(t, item, "get")
	assert.Contains(t, item, "post")

	get := item["get"].(map[string]any)
	assert.Equal(t, "list items", get["summary"])
	params := get["parameters"].([]any)
	require.Len(t, params, 2, "identical parameters must not duplicate")
	assert.Equal(t, []any{"A", "B"}, get[ExtAggregatedFrom])

	responses := get["responses"].(map[string]any)
	assert.Contains(t, responses, "200")
	assert.Contains(t, responses, "404")

	post := item["post"].(map[string]any)
	assert.Equal(t, []any{"B"}, post[ExtAggregatedFrom])
	assert.Empty(t, result.Warnings)
}

func TestMergeCompatibleSchemas(t *testing.T) {
	docs := []*bundler.ResolvedDocument{
		testDoc("A", "1.0.0", map[string]any{
			"paths": map[string]any{},
			"components": map[string]any{
				"schemas": map[string]any{
					"User": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":   map[string]any{"type": "string"},
							"name": map[string]any{"type": "string"},
						},
						"required": []any{"id"},
					},
				},
			},
		}),
		testDoc("B", "1.0.0", map[string]any{
			"paths": map[string]any{},
			"components": map[string]any{
				"schemas": map[string]any{
					"User": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":    map[string]any{"type": "string"},
							"email": map[string]any{"type": "string"},
						},
						"required": []any{"id", "email"},
					},
				},
			},
		}),
	}

	result, err := New(Config{}).Merge(docs)
	require.NoError(t, err)
	assert.Zero(t, result.SchemaRenames)

	user := dig(t, result.Document, "components", "schemas", "User").(map[string]any)
	props := user["properties"].(map[string]any)
	assert.Len(t, props, 3)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "email")
	assert.Equal(t, []any{"id", "email"}, user["required"])
}

func TestMergeLaterPropertyWins(t *testing.T) {
	docs := []*bundler.ResolvedDocument{
		testDoc("A", "1.0.0", map[string]any{
			"paths": map[string]any{},
			"components": map[string]any{
				"schemas": map[string]any{
					"User": map[string]any{
						"type":       "object",
						"properties": map[string]any{"id": map[string]any{"type": "string"}},
					},
				},
			},
		}),
		testDoc("B", "1.0.0", map[string]any{
			"paths": map[string]any{},
			"components": map[string]any{
				"schemas": map[string]any{
					"User": map[string]any{
						"type":       "object",
						"properties": map[string]any{"id": map[string]any{"type": "integer"}},
					},
				},
			},
		}),
	}

	result, err := New(Config{}).Merge(docs)
	require.NoError(t, err)

	id := dig(t, result.Document, "components", "schemas", "User", "properties", "id").(map[string]any)
	assert.Equal(t, "integer", id["type"])

	overrides := result.Warnings.ByCategory(WarnPropertyOverride)
	require.Len(t, overrides, 1)
	assert.Equal(t, "B", overrides[0].Source)
}

func TestMergeIncompatibleSchemaRenamed(t *testing.T) {
	docs := []*bundler.ResolvedDocument{
		testDoc("Users API", "1.0.0", map[string]any{
			"paths": map[string]any{},
			"components": map[string]any{
				"schemas": map[string]any{
					"Status": map[string]any{
						"type":       "object",
						"properties": map[string]any{"code": map[string]any{"type": "integer"}},
					},
				},
			},
		}),
		testDoc("Billing API", "1.0.0", map[string]any{
			"paths": map[string]any{
				"/invoices": map[string]any{
					"get": map[string]any{
						"responses": map[string]any{
							"200": map[string]any{
								"description": "ok",
								"content": map[string]any{
									"application/json": map[string]any{
										"schema": map[string]any{"$ref": "#/components/schemas/Invoice"},
									},
								},
							},
						},
					},
				},
			},
			"components": map[string]any{
				"schemas": map[string]any{
					"Status": map[string]any{"type": "string", "enum": []any{"open", "paid"}},
					"Invoice": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"status": map[string]any{"$ref": "#/components/schemas/Status"},
						},
					},
				},
			},
		}),
	}

	result, err := New(Config{}).Merge(docs)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SchemaRenames)

	schemas := dig(t, result.Document, "components", "schemas").(map[string]any)
	require.Contains(t, schemas, "Status")
	require.Contains(t, schemas, "Status_BillingAPI")
	require.Contains(t, schemas, "Invoice")

	// The original definition is untouched.
	status := schemas["Status"].(map[string]any)
	assert.Equal(t, "object", status["type"])

	// References inside the later document follow the rename.
	statusRef := dig(t, schemas, "Invoice", "properties", "status").(map[string]any)
	assert.Equal(t, "#/components/schemas/Status_BillingAPI", statusRef["$ref"])

	renames := result.Warnings.ByCategory(WarnSchemaIncompatible)
	require.Len(t, renames, 1)
	assert.Equal(t, "Status_BillingAPI", renames[0].Context["new_name"])
}

func TestMergeRenameNumericSuffix(t *testing.T) {
	incompat := func(typ string) map[string]any {
		return map[string]any{
			"paths": map[string]any{},
			"components": map[string]any{
				"schemas": map[string]any{"Token": map[string]any{"type": typ}},
			},
		}
	}

	docs := []*bundler.ResolvedDocument{
		testDoc("Core", "1.0.0", incompat("string")),
		testDoc("Edge", "1.0.0", incompat("integer")),
		testDoc("Edge", "1.0.0", incompat("boolean")),
	}

	result, err := New(Config{}).Merge(docs)
	require.NoError(t, err)

	schemas := dig(t, result.Document, "components", "schemas").(map[string]any)
	assert.Contains(t, schemas, "Token")
	assert.Contains(t, schemas, "Token_Edge")
	assert.Contains(t, schemas, "Token_Edge_2")
}

func TestMergeHeaderDeduplication(t *testing.T) {
	authParam := func() map[string]any {
		return map[string]any{
			"name":     "Authorization",
			"in":       "header",
			"required": true,
			"schema":   map[string]any{"type": "string"},
		}
	}
	docFor := func(title, path string) *bundler.ResolvedDocument {
		return testDoc(title, "1.0.0", map[string]any{
			"paths": map[string]any{
				path: map[string]any{
					"get": map[string]any{
						"parameters": []any{authParam()},
						"responses":  map[string]any{"200": map[string]any{"description": "ok"}},
					},
				},
			},
		})
	}

	result, err := New(Config{}).Merge([]*bundler.ResolvedDocument{
		docFor("A", "/users"),
		docFor("B", "/orders"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.HeaderComponents)

	shared := dig(t, result.Document, "components", "parameters", "Authorization").(map[string]any)
	assert.Equal(t, "header", shared["in"])

	for _, path := range []string{"/users", "/orders"} {
		params := dig(t, result.Document, "paths", path, "get", "parameters").([]any)
		require.Len(t, params, 1)
		ref := params[0].(map[string]any)
		assert.Equal(t, "#/components/parameters/Authorization", ref["$ref"])
	}
}

func TestMergeHeaderDedupSameOperation(t *testing.T) {
	docFor := func(title string) *bundler.ResolvedDocument {
		return testDoc(title, "1.0.0", map[string]any{
			"paths": map[string]any{
				"/things": map[string]any{
					"get": map[string]any{
						"parameters": []any{
							map[string]any{
								"name":   "X-Request-Id",
								"in":     "header",
								"schema": map[string]any{"type": "string"},
							},
						},
						"responses": map[string]any{"200": map[string]any{"description": "ok"}},
					},
				},
			},
		})
	}

	result, err := New(Config{}).Merge([]*bundler.ResolvedDocument{docFor("A"), docFor("B")})
	require.NoError(t, err)

	params := dig(t, result.Document, "paths", "/things", "get", "parameters").([]any)
	require.Len(t, params, 1, "merging identical operations must not duplicate the header")
	ref := params[0].(map[string]any)
	assert.Equal(t, "#/components/parameters/X-Request-Id", ref["$ref"])
}

func TestMergeHeaderDedupAcrossRefChains(t *testing.T) {
	// One spec references its header through components.parameters, the
	// other declares it inline. The shapes are equal once references are
	// expanded, so both must end up pointing at one shared component.
	refDoc := testDoc("A", "1.0.0", map[string]any{
		"paths": map[string]any{
			"/users": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"$ref": "#/components/parameters/TenantHeader"},
					},
					"responses": map[string]any{"200": map[string]any{"description": "ok"}},
				},
			},
		},
		"components": map[string]any{
			"parameters": map[string]any{
				"TenantHeader": map[string]any{
					"name":   "X-Tenant",
					"in":     "header",
					"schema": map[string]any{"type": "string"},
				},
			},
		},
	})
	inlineDoc := testDoc("B", "1.0.0", map[string]any{
		"paths": map[string]any{
			"/orders": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{
							"name":   "X-Tenant",
							"in":     "header",
							"schema": map[string]any{"type": "string"},
						},
					},
					"responses": map[string]any{"200": map[string]any{"description": "ok"}},
				},
			},
		},
	})

	result, err := New(Config{}).Merge([]*bundler.ResolvedDocument{refDoc, inlineDoc})
	require.NoError(t, err)

	// The inline occurrence is rewritten to the component the first spec
	// already contributed; no second component appears.
	params := dig(t, result.Document, "paths", "/orders", "get", "parameters").([]any)
	require.Len(t, params, 1)
	ref := params[0].(map[string]any)
	assert.Equal(t, "#/components/parameters/TenantHeader", ref["$ref"])

	components := dig(t, result.Document, "components", "parameters").(map[string]any)
	assert.Len(t, components, 1)
}

func TestMergeHeaderDedupDifferentComponentNames(t *testing.T) {
	// Both specs reference the same header shape, each through its own
	// components.parameters entry. The duplicates collapse into a single
	// component and every reference points at it.
	headerShape := func() map[string]any {
		return map[string]any{
			"name":   "X-Tenant",
			"in":     "header",
			"schema": map[string]any{"type": "string"},
		}
	}
	docA := testDoc("A", "1.0.0", map[string]any{
		"paths": map[string]any{
			"/users": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"$ref": "#/components/parameters/TenantHeader"},
					},
					"responses": map[string]any{"200": map[string]any{"description": "ok"}},
				},
			},
		},
		"components": map[string]any{
			"parameters": map[string]any{"TenantHeader": headerShape()},
		},
	})
	docB := testDoc("B", "1.0.0", map[string]any{
		"paths": map[string]any{
			"/orders": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"$ref": "#/components/parameters/TenantHdr"},
					},
					"responses": map[string]any{"200": map[string]any{"description": "ok"}},
				},
			},
		},
		"components": map[string]any{
			"parameters": map[string]any{"TenantHdr": headerShape()},
		},
	})

	result, err := New(Config{}).Merge([]*bundler.ResolvedDocument{docA, docB})
	require.NoError(t, err)

	components := dig(t, result.Document, "components", "parameters").(map[string]any)
	require.Len(t, components, 1)

	var refs []string
	for _, path := range []string{"/users", "/orders"} {
		params := dig(t, result.Document, "paths", path, "get", "parameters").([]any)
		require.Len(t, params, 1)
		refs = append(refs, params[0].(map[string]any)["$ref"].(string))
	}
	assert.Equal(t, refs[0], refs[1])

	warnings := result.Warnings.ByCategory(WarnHeaderDeduplicated)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "X-Tenant")
}

func TestMergeSingleOccurrenceHeaderStaysInline(t *testing.T) {
	result, err := New(Config{}).Merge([]*bundler.ResolvedDocument{
		testDoc("A", "1.0.0", map[string]any{
			"paths": map[string]any{
				"/one": map[string]any{
					"get": map[string]any{
						"parameters": []any{
							map[string]any{"name": "X-Only", "in": "header", "schema": map[string]any{"type": "string"}},
						},
						"responses": map[string]any{"200": map[string]any{"description": "ok"}},
					},
				},
			},
		}),
		testDoc("B", "1.0.0", map[string]any{"paths": map[string]any{}}),
	})
	require.NoError(t, err)
	assert.Zero(t, result.HeaderComponents)

	params := dig(t, result.Document, "paths", "/one", "get", "parameters").([]any)
	param := params[0].(map[string]any)
	assert.Equal(t, "X-Only", param["name"])
	assert.NotContains(t, param, "$ref")
}

func TestMergeComponentFirstWins(t *testing.T) {
	docFor := func(title, description string) *bundler.ResolvedDocument {
		return testDoc(title, "1.0.0", map[string]any{
			"paths": map[string]any{},
			"components": map[string]any{
				"responses": map[string]any{
					"NotFound": map[string]any{"description": description},
				},
			},
		})
	}

	result, err := New(Config{}).Merge([]*bundler.ResolvedDocument{
		docFor("A", "missing"),
		docFor("B", "not here"),
	})
	require.NoError(t, err)

	notFound := dig(t, result.Document, "components", "responses", "NotFound").(map[string]any)
	assert.Equal(t, "missing", notFound["description"])

	kept := result.Warnings.ByCategory(WarnComponentKeptFirst)
	require.Len(t, kept, 1)
	assert.Equal(t, "B", kept[0].Source)
}

func TestMergeParameterConflictKeepsEarlier(t *testing.T) {
	docFor := func(title string, required bool) *bundler.ResolvedDocument {
		return testDoc(title, "1.0.0", map[string]any{
			"paths": map[string]any{
				"/users": map[string]any{
					"get": map[string]any{
						"parameters": []any{
							map[string]any{
								"name":     "limit",
								"in":       "query",
								"required": required,
								"schema":   map[string]any{"type": "integer"},
							},
						},
						"responses": map[string]any{"200": map[string]any{"description": "ok"}},
					},
				},
			},
		})
	}

	result, err := New(Config{}).Merge([]*bundler.ResolvedDocument{
		docFor("A", false),
		docFor("B", true),
	})
	require.NoError(t, err)

	params := dig(t, result.Document, "paths", "/users", "get", "parameters").([]any)
	require.Len(t, params, 1)
	assert.Equal(t, false, params[0].(map[string]any)["required"])

	conflicts := result.Warnings.ByCategory(WarnParameterConflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "B", conflicts[0].Source)
}

func TestMergeMediaTypeConflictKeepsEarlier(t *testing.T) {
	docFor := func(title, schemaType string) *bundler.ResolvedDocument {
		return testDoc(title, "1.0.0", map[string]any{
			"paths": map[string]any{
				"/users": map[string]any{
					"post": map[string]any{
						"requestBody": map[string]any{
							"content": map[string]any{
								"application/json": map[string]any{
									"schema": map[string]any{"type": schemaType},
								},
							},
						},
						"responses": map[string]any{"201": map[string]any{"description": "created"}},
					},
				},
			},
		})
	}

	result, err := New(Config{}).Merge([]*bundler.ResolvedDocument{
		docFor("A", "object"),
		docFor("B", "string"),
	})
	require.NoError(t, err)

	schema := dig(t, result.Document, "paths", "/users", "post", "requestBody", "content", "application/json", "schema").(map[string]any)
	assert.Equal(t, "object", schema["type"])
	require.Len(t, result.Warnings.ByCategory(WarnMediaTypeConflict), 1)
}

func TestMergeTitleOverride(t *testing.T) {
	docs := []*bundler.ResolvedDocument{
		testDoc("A", "1.0.0", map[string]any{"paths": map[string]any{}}),
		testDoc("B", "1.0.0", map[string]any{"paths": map[string]any{}}),
	}

	result, err := New(Config{AggregateTitle: "Platform API", AggregateVersion: "3.1.4"}).Merge(docs)
	require.NoError(t, err)
	assert.Equal(t, "Platform API", result.Title)
	assert.Equal(t, "Platform API", dig(t, result.Document, "info", "title"))
	assert.Equal(t, "3.1.4", dig(t, result.Document, "info", "version"))
}

func TestMergeNoDocuments(t *testing.T) {
	_, err := New(Config{}).Merge(nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "at least one resolved document")
}

func TestMergeInputsNotModified(t *testing.T) {
	rootFor := func(typ string) map[string]any {
		return map[string]any{
			"paths": map[string]any{
				"/a": map[string]any{
					"get": map[string]any{
						"responses": map[string]any{"200": map[string]any{"description": "ok"}},
					},
				},
			},
			"components": map[string]any{
				"schemas": map[string]any{"Thing": map[string]any{"type": typ}},
			},
		}
	}

	first := rootFor("string")
	second := rootFor("integer")
	firstCopy := rawutil.CopyMap(first)
	secondCopy := rawutil.CopyMap(second)

	_, err := New(Config{}).Merge([]*bundler.ResolvedDocument{
		testDoc("A", "1.0.0", first),
		testDoc("B", "1.0.0", second),
	})
	require.NoError(t, err)

	assert.Equal(t, firstCopy, first)
	assert.Equal(t, secondCopy, second)
}

func TestMergeTagsUnion(t *testing.T) {
	docs := []*bundler.ResolvedDocument{
		testDoc("A", "1.0.0", map[string]any{
			"paths": map[string]any{},
			"tags": []any{
				map[string]any{"name": "users", "description": "user ops"},
			},
		}),
		testDoc("B", "1.0.0", map[string]any{
			"paths": map[string]any{},
			"tags": []any{
				map[string]any{"name": "users", "description": "other"},
				map[string]any{"name": "orders"},
			},
		}),
	}

	result, err := New(Config{}).Merge(docs)
	require.NoError(t, err)

	tags := dig(t, result.Document, "tags").([]any)
	require.Len(t, tags, 2)
	assert.Equal(t, "user ops", tags[0].(map[string]any)["description"])
	assert.Equal(t, "orders", tags[1].(map[string]any)["name"])
}
