package orchestrator

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
	"github.com/blackcoderx/contractfuzz/pkg/payload"
	"github.com/blackcoderx/contractfuzz/pkg/transport"
)

// buildRequest substitutes p at param.Location in ep's request shape.
func buildRequest(ep contract.Endpoint, param contract.Parameter, p payload.Payload) transport.RequestSpec {
	spec := transport.RequestSpec{
		Method:  ep.Method,
		URL:     ep.Path,
		Headers: map[string]string{},
		Cookies: map[string]string{},
	}

	rendered := renderScalar(p.Value)

	switch param.Location {
	case contract.LocationPath:
		spec.URL = strings.ReplaceAll(spec.URL, "{"+param.Name+"}", url.PathEscape(rendered))
	case contract.LocationQuery:
		sep := "?"
		if strings.Contains(spec.URL, "?") {
			sep = "&"
		}
		spec.URL += sep + url.QueryEscape(param.Name) + "=" + url.QueryEscape(rendered)
	case contract.LocationHeader:
		spec.Headers[param.Name] = rendered
	case contract.LocationBody:
		body := map[string]interface{}{param.Name: toJSONValue(p.Value)}
		b, err := json.Marshal(body)
		if err == nil {
			spec.Body = b
			spec.Headers["Content-Type"] = "application/json"
		}
	}

	return spec
}

func renderScalar(v contract.Value) string {
	switch v.Kind {
	case contract.KindString:
		return v.Str
	case contract.KindInt:
		return fmt.Sprintf("%d", v.Int)
	case contract.KindFloat:
		return fmt.Sprintf("%v", v.Float)
	case contract.KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case contract.KindNull:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toJSONValue(v contract.Value) interface{} {
	switch v.Kind {
	case contract.KindNull:
		return nil
	case contract.KindBool:
		return v.Bool
	case contract.KindInt:
		return v.Int
	case contract.KindFloat:
		return v.Float
	case contract.KindString:
		return v.Str
	case contract.KindBytes:
		return string(v.Bytes)
	case contract.KindArray:
		out := make([]interface{}, len(v.Array))
		for i, item := range v.Array {
			out[i] = toJSONValue(item)
		}
		return out
	case contract.KindObject:
		out := make(map[string]interface{}, len(v.Object))
		for _, kv := range v.Object {
			out[kv.Name] = toJSONValue(kv.Value)
		}
		return out
	default:
		return nil
	}
}
