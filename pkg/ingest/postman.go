package ingest

import (
	"strings"

	postman "github.com/rbretecher/go-postman-collection"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
)

// DetectPostman mirrors spec_ingester/postman_parser.go's heuristic.
func DetectPostman(content []byte) bool {
	s := string(content)
	return strings.Contains(s, "_postman_id") || (strings.Contains(s, "info") && strings.Contains(s, "schema"))
}

// Postman builds a Contract from a Postman 2.1 collection. Folders nest
// requests recursively the same way spec_ingester/postman_parser.go walked
// them; each leaf request becomes one contract.Endpoint.
func Postman(content []byte) (contract.Contract, error) {
	collection, err := postman.ParseCollection(strings.NewReader(string(content)))
	if err != nil {
		return contract.Contract{}, err
	}

	var c contract.Contract
	collectPostmanItems(collection.Items, &c)
	return c, nil
}

func collectPostmanItems(items []*postman.Items, c *contract.Contract) {
	for _, item := range items {
		if item.IsGroup() {
			collectPostmanItems(item.Items, c)
			continue
		}
		if item.Request == nil {
			continue
		}
		c.Endpoints = append(c.Endpoints, buildPostmanEndpoint(item))
	}
}

func buildPostmanEndpoint(item *postman.Items) contract.Endpoint {
	req := item.Request
	ep := contract.Endpoint{
		ID:     item.Name,
		Method: string(req.Method),
	}
	if req.URL != nil {
		ep.Path = req.URL.Raw
	}

	for _, h := range req.Header {
		ep.Parameters = append(ep.Parameters, contract.Parameter{
			Name:     h.Key,
			Location: contract.LocationHeader,
			TypeTag:  contract.TypeString,
		})
	}
	if req.URL != nil {
		for _, q := range req.URL.Query {
			ep.Parameters = append(ep.Parameters, contract.Parameter{
				Name:     q.Key,
				Location: contract.LocationQuery,
				TypeTag:  contract.TypeString,
			})
		}
	}
	if req.Body != nil {
		ep.Parameters = append(ep.Parameters, contract.Parameter{
			Name:     "body",
			Location: contract.LocationBody,
			TypeTag:  contract.TypeOther,
		})
	}

	return ep
}
