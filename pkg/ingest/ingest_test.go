package ingest

import "testing"

func TestDetectFormats(t *testing.T) {
	oaContent := []byte(`openapi: 3.0.0`)
	pmContent := []byte(`{"info": {"schema": "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"}}`)

	if !DetectOpenAPI(oaContent) {
		t.Error("expected openapi content to be detected")
	}
	if !DetectPostman(pmContent) {
		t.Error("expected postman content to be detected")
	}
}

func TestOpenAPIBuildsEndpoints(t *testing.T) {
	doc := []byte(`
openapi: 3.0.0
info:
  title: demo
  version: "1.0"
paths:
  /users/{id}:
    get:
      operationId: getUser
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
      responses:
        "200":
          description: ok
        "404":
          description: not found
`)
	c, err := OpenAPI(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(c.Endpoints))
	}
	ep := c.Endpoints[0]
	if ep.Method != "GET" || ep.Path != "/users/{id}" {
		t.Errorf("unexpected endpoint %+v", ep)
	}
	if len(ep.Parameters) != 1 || ep.Parameters[0].Name != "id" {
		t.Errorf("expected one path parameter named id, got %+v", ep.Parameters)
	}
	if len(ep.ExpectedStatuses) != 2 {
		t.Errorf("expected 2 expected statuses, got %v", ep.ExpectedStatuses)
	}
}

func TestPostmanBuildsEndpoints(t *testing.T) {
	doc := []byte(`{
		"info": {"name": "demo", "schema": "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"},
		"item": [
			{
				"name": "get user",
				"request": {
					"method": "GET",
					"url": {"raw": "https://api.example.com/users?active=true", "query": [{"key": "active", "value": "true"}]}
				}
			}
		]
	}`)
	c, err := Postman(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(c.Endpoints))
	}
	if c.Endpoints[0].Method != "GET" {
		t.Errorf("unexpected method %q", c.Endpoints[0].Method)
	}
	if len(c.Endpoints[0].Parameters) != 1 || c.Endpoints[0].Parameters[0].Name != "active" {
		t.Errorf("expected one query parameter named active, got %+v", c.Endpoints[0].Parameters)
	}
}
