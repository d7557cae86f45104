// Package contract describes the immutable API surface the fuzzer drives:
// endpoints, their parameters, and the schemas/baselines used to judge a
// response. A Contract is produced by an ingestion adapter (pkg/ingest) or
// assembled by hand and never mutated once a session starts.
package contract

import "encoding/json"

// TypeTag is the semantic type a parameter carries. It drives which payload
// family pkg/payload generates for it.
type TypeTag string

const (
	TypeString     TypeTag = "string"
	TypeInteger    TypeTag = "integer"
	TypeNumber     TypeTag = "number"
	TypeEmail      TypeTag = "email"
	TypeJWT        TypeTag = "jwt"
	TypeID         TypeTag = "id"
	TypeCSRF       TypeTag = "csrf"
	TypeMoney      TypeTag = "money"
	TypeDate       TypeTag = "date"
	TypeFile       TypeTag = "file"
	TypePagination TypeTag = "pagination"
	TypeEnum       TypeTag = "enum"
	TypeOther      TypeTag = "other"
)

// Location is where a parameter is carried on the wire.
type Location string

const (
	LocationQuery  Location = "query"
	LocationPath   Location = "path"
	LocationHeader Location = "header"
	LocationBody   Location = "body"
)

// Constraints narrows the payload space for a Parameter.
type Constraints struct {
	MinLength       *int
	MaxLength       *int
	MinValue        *float64
	MaxValue        *float64
	EnumMembers     []string
	CustomBoundary  []string
	Format          string // format hint, e.g. "uuid", "email"
}

// Parameter is one typed input slot of an Endpoint.
type Parameter struct {
	Name        string
	Location    Location
	TypeTag     TypeTag
	Required    bool
	Constraints Constraints
}

// SchemaFormat constrains a string ExpectedSchema node.
type SchemaFormat string

const (
	FormatEmail SchemaFormat = "email"
	FormatUUID  SchemaFormat = "uuid"
	FormatDate  SchemaFormat = "date"
	FormatURI   SchemaFormat = "uri"
	FormatIPv4  SchemaFormat = "ipv4"
)

// ExpectedSchema is a small recursive description of an expected response
// body shape. It is deliberately not a full JSON Schema document — pkg/validator
// lowers it into one (JSONSchemaDocument) so it can reuse a real validation
// engine (xeipuuv/gojsonschema), and walks it directly only when that
// engine reports an error.
type ExpectedSchema struct {
	Type       string // "object", "array", "string", "integer", "number", "boolean", "null"
	Format     SchemaFormat
	Pattern    string
	Properties map[string]*ExpectedSchema
	Required   []string
	Items      *ExpectedSchema
}

// Baseline is a captured ResponseData used as a deviation reference. It is a
// single sample, not a median of N, and it is supplied with the contract:
// nothing in this module captures one from observed responses.
type Baseline struct {
	Status    uint16
	SizeBytes int64
	ElapsedMs int64
}

// Endpoint is one operation the fuzzer targets.
type Endpoint struct {
	ID               string
	Path             string
	Method           string
	Parameters       []Parameter
	ExpectedStatuses []uint16
	ExpectedSchema   *ExpectedSchema
	AuthRole         string
	Baseline         Baseline
}

// Contract is the validated, immutable description of the API under test.
type Contract struct {
	Endpoints []Endpoint
}

// Kind discriminates the tagged union Value carries: a dynamic-typed
// payload value is a tagged variant rather than an interface{} grab-bag,
// so every consumer switches exhaustively on Kind instead of type-asserting.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindObject
	KindArray
)

// KV is one object field inside a Value of KindObject.
type KV struct {
	Name  string
	Value Value
}

// Value is a dynamically-typed payload value. Exactly one of the typed
// fields is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Bytes  []byte
	Object []KV
	Array  []Value
}

// IsNil reports whether v is the zero/null value.
func (v Value) IsNil() bool { return v.Kind == KindNull }

// JSONSchemaDocument renders s as a standalone JSON Schema document. Every
// ExpectedSchema field (type/format/pattern/properties/required/items) maps
// onto the JSON Schema keyword of the same name, so it reports false only
// for a nil schema or a marshalling failure.
func (s *ExpectedSchema) JSONSchemaDocument() ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	doc := s.toJSONSchema()
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (s *ExpectedSchema) toJSONSchema() map[string]interface{} {
	m := map[string]interface{}{}
	if s.Type != "" {
		m["type"] = s.Type
	}
	if s.Format != "" {
		m["format"] = string(s.Format)
	}
	if s.Pattern != "" {
		m["pattern"] = s.Pattern
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	if len(s.Properties) > 0 {
		props := map[string]interface{}{}
		for name, child := range s.Properties {
			props[name] = child.toJSONSchema()
		}
		m["properties"] = props
	}
	if s.Items != nil {
		m["items"] = s.Items.toJSONSchema()
	}
	return m
}
