// Package ingest builds a contract.Contract from a real API description —
// OpenAPI 3 or a Postman collection — so the module ships runnable demos
// and tests without a hand-typed Contract literal. This is a convenience
// adapter, separate from the core fuzzing loop.
package ingest

import (
	"fmt"
	"strings"

	"github.com/pb33f/libopenapi"
	base "github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
)

// DetectOpenAPI is a cheap heuristic used to pick a parser before handing
// content to the real one.
func DetectOpenAPI(content []byte) bool {
	s := string(content)
	return strings.Contains(s, "openapi") || strings.Contains(s, "swagger")
}

// OpenAPI builds a Contract from an OpenAPI 3.x document. It walks the
// libopenapi high-level model and produces contract.Endpoint values
// directly, one ingest step rather than parse-then-graph-build.
func OpenAPI(content []byte) (contract.Contract, error) {
	document, err := libopenapi.NewDocument(content)
	if err != nil {
		return contract.Contract{}, fmt.Errorf("ingest: parse openapi document: %w", err)
	}

	model, err := document.BuildV3Model()
	if err != nil {
		return contract.Contract{}, fmt.Errorf("ingest: build openapi v3 model: %w", err)
	}

	var c contract.Contract
	for pair := model.Model.Paths.PathItems.First(); pair != nil; pair = pair.Next() {
		path := pair.Key()
		item := pair.Value()

		ops := map[string]*v3.Operation{
			"GET":    item.Get,
			"POST":   item.Post,
			"PUT":    item.Put,
			"DELETE": item.Delete,
			"PATCH":  item.Patch,
		}

		for method, op := range ops {
			if op == nil {
				continue
			}
			c.Endpoints = append(c.Endpoints, buildEndpoint(method, path, op))
		}
	}

	return c, nil
}

func buildEndpoint(method, path string, op *v3.Operation) contract.Endpoint {
	ep := contract.Endpoint{
		ID:     method + " " + path,
		Path:   path,
		Method: method,
	}

	for _, p := range op.Parameters {
		if p == nil {
			continue
		}
		ep.Parameters = append(ep.Parameters, contract.Parameter{
			Name:     p.Name,
			Location: locationFromIn(p.In),
			TypeTag:  typeTagFromSchema(p.Schema),
			Required: p.Required != nil && *p.Required,
		})
	}

	if op.RequestBody != nil {
		ep.Parameters = append(ep.Parameters, contract.Parameter{
			Name:     "body",
			Location: contract.LocationBody,
			TypeTag:  contract.TypeOther,
		})
	}

	if op.Responses != nil {
		for pair := op.Responses.Codes.First(); pair != nil; pair = pair.Next() {
			var code int
			if n, err := fmt.Sscanf(pair.Key(), "%d", &code); err == nil && n == 1 && code > 0 && code < 1000 {
				ep.ExpectedStatuses = append(ep.ExpectedStatuses, uint16(code))
			}
		}
	}

	return ep
}

func locationFromIn(in string) contract.Location {
	switch in {
	case "path":
		return contract.LocationPath
	case "header":
		return contract.LocationHeader
	case "query":
		return contract.LocationQuery
	default:
		return contract.LocationQuery
	}
}

func typeTagFromSchema(schema *base.SchemaProxy) contract.TypeTag {
	if schema == nil || schema.Schema() == nil {
		return contract.TypeOther
	}
	s := schema.Schema()
	if len(s.Type) == 0 {
		return contract.TypeOther
	}
	switch s.Type[0] {
	case "integer":
		return contract.TypeInteger
	case "number":
		return contract.TypeNumber
	case "string":
		if s.Format == "email" {
			return contract.TypeEmail
		}
		if s.Format == "date" || s.Format == "date-time" {
			return contract.TypeDate
		}
		return contract.TypeString
	default:
		return contract.TypeOther
	}
}
