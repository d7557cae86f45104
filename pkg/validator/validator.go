// Package validator classifies a response against its declared contract —
// status class, schema conformance, a fixed family of error signatures, and
// anomalies relative to both the response itself and a captured baseline.
//
// The signature table generalizes the per-category payload scans scattered
// across security_scanner.Fuzzer (fuzzSQLInjection, fuzzXSS, ...) into one
// data-driven regex table, the way owasp_checks.go's per-OWASP-category
// functions were themselves one table of checks run uniformly over every
// endpoint. schema_conformance/tool.go only ever simulated the comparison
// it describes ("we would ... compare with a JSON Schema validator"); this
// package is where that comparison actually happens, backed by
// xeipuuv/gojsonschema.
package validator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
	"github.com/blackcoderx/contractfuzz/pkg/finding"
	"github.com/blackcoderx/contractfuzz/pkg/transport"
)

// signature pairs a compiled pattern with the fixed name/severity it
// reports under.
type signature struct {
	name     string
	severity finding.Severity
	pattern  *regexp.Regexp
}

var signatureTable = []signature{
	{"sql_injection", finding.SeverityCritical, regexp.MustCompile(`(?i)sql syntax|mysql_fetch|ORA-\d{5}|PG::\w*Error|sqlite3\.\w*Error|unclosed quotation mark|you have an error in your sql`)},
	{"xss", finding.SeverityHigh, regexp.MustCompile(`(?i)<script[^>]*>.*</script>|onerror\s*=\s*["']?alert`)},
	{"path_traversal", finding.SeverityHigh, regexp.MustCompile(`(?i)root:.*:0:0:|\[extensions\]|no such file or directory`)},
	{"information_disclosure", finding.SeverityMedium, regexp.MustCompile(`(?i)stack trace|traceback \(most recent|at [\w.]+\(\w+\.go:\d+\)|panic:|exception in thread`)},
	{"auth_bypass", finding.SeverityCritical, regexp.MustCompile(`(?i)"role"\s*:\s*"admin"|unauthorized_but_rendered|welcome,? admin`)},
	{"csrf_vulnerability", finding.SeverityMedium, regexp.MustCompile(`(?i)csrf token (missing|invalid) but request succeeded`)},
	{"jwt_vulnerability", finding.SeverityCritical, regexp.MustCompile(`(?i)"alg"\s*:\s*"none"|signature verification (skipped|disabled)`)},
	{"rate_limit_bypass", finding.SeverityMedium, regexp.MustCompile(`(?i)x-ratelimit-remaining:\s*-\d+`)},
	{"business_logic", finding.SeverityMedium, regexp.MustCompile(`(?i)negative (quantity|amount|balance) accepted`)},
	{"deserialization", finding.SeverityCritical, regexp.MustCompile(`(?i)java\.io\.(invalidclass|objectstream)exception|__reduce__|pickle\.loads`)},
}

const (
	slowResponseMs      = 5000
	largeResponseBytes  = 5 * 1024 * 1024
	timingDeviationMult = 3.0
	sizeDeviationMult   = 3.0
)

var securityHeaders = []string{
	"x-frame-options",
	"x-xss-protection",
	"x-content-type-options",
	"content-security-policy",
	"strict-transport-security",
}

// Assessment is the full result of validating one response against its
// endpoint contract.
type Assessment struct {
	StatusClass      string
	ExpectedStatus   bool
	SchemaCompliant  bool
	Signatures       []finding.ErrorSignature
	Anomalies        []finding.Anomaly
	Confidence       float64
	Valid            bool
}

// StatusClass buckets an HTTP status into its 1xx..5xx class name.
func StatusClass(status uint16) string {
	switch status / 100 {
	case 1:
		return "1xx"
	case 2:
		return "2xx"
	case 3:
		return "3xx"
	case 4:
		return "4xx"
	case 5:
		return "5xx"
	default:
		return "unknown"
	}
}

// Validate assesses resp against ep's expected status/schema and baseline.
func Validate(ep contract.Endpoint, resp transport.ResponseData) Assessment {
	a := Assessment{StatusClass: StatusClass(resp.Status)}

	a.ExpectedStatus = matchesExpectedStatus(resp.Status)
	a.SchemaCompliant = checkSchema(ep, resp)
	a.Signatures = matchSignatures(resp.Body)
	a.Anomalies = append(intrinsicAnomalies(resp), baselineAnomalies(ep, resp)...)
	a.Confidence = confidence(a)
	a.Valid = a.ExpectedStatus && a.SchemaCompliant && len(a.Signatures) == 0

	return a
}

// matchesExpectedStatus buckets status into its class and reports the
// bucket's expectedness: 2xx/3xx/4xx are expected, 1xx/5xx/unknown are not.
// This is independent of any endpoint-declared status list.
func matchesExpectedStatus(status uint16) bool {
	switch StatusClass(status) {
	case "2xx", "3xx", "4xx":
		return true
	default:
		return false
	}
}

func matchSignatures(body []byte) []finding.ErrorSignature {
	var out []finding.ErrorSignature
	text := string(body)
	for _, sig := range signatureTable {
		if loc := sig.pattern.FindString(text); loc != "" {
			out = append(out, finding.ErrorSignature{Name: sig.name, Severity: sig.severity, Evidence: loc})
		}
	}
	return out
}

func intrinsicAnomalies(resp transport.ResponseData) []finding.Anomaly {
	var out []finding.Anomaly

	if resp.ElapsedMs >= slowResponseMs {
		out = append(out, finding.Anomaly{Kind: "slow_response", Severity: finding.SeverityLow, Detail: "response exceeded slow-response threshold"})
	}
	if resp.SizeBytes >= largeResponseBytes {
		out = append(out, finding.Anomaly{Kind: "large_response", Severity: finding.SeverityLow, Detail: "response exceeded large-response threshold"})
	}
	missingAll := true
	for _, h := range securityHeaders {
		if _, ok := resp.Headers.Get(h); ok {
			missingAll = false
			break
		}
	}
	if missingAll {
		out = append(out, finding.Anomaly{Kind: "missing_security_headers", Severity: finding.SeverityMedium, Detail: "all security headers absent"})
	}
	if resp.Status >= 500 {
		out = append(out, finding.Anomaly{Kind: "server_error", Severity: finding.SeverityMedium, Detail: "server responded with 5xx"})
	}
	return out
}

func baselineAnomalies(ep contract.Endpoint, resp transport.ResponseData) []finding.Anomaly {
	var out []finding.Anomaly
	b := ep.Baseline
	if b.ElapsedMs == 0 && b.SizeBytes == 0 && b.Status == 0 {
		return out
	}

	if b.ElapsedMs > 0 && float64(resp.ElapsedMs) > float64(b.ElapsedMs)*timingDeviationMult {
		out = append(out, finding.Anomaly{Kind: "timing_anomaly", Severity: finding.SeverityLow, Detail: "elapsed time far exceeds baseline"})
	}
	if b.SizeBytes > 0 && float64(resp.SizeBytes) > float64(b.SizeBytes)*sizeDeviationMult {
		out = append(out, finding.Anomaly{Kind: "size_anomaly", Severity: finding.SeverityLow, Detail: "response size far exceeds baseline"})
	}
	if b.Status != 0 && resp.Status != b.Status {
		out = append(out, finding.Anomaly{Kind: "status_anomaly", Severity: finding.SeverityMedium, Detail: "status diverges from baseline"})
	}
	return out
}

// confidence scores how legitimate the response looks: start at 0.5, adjust
// by fixed deltas for status/schema/signature/anomaly outcomes, clamp to
// [0,1].
func confidence(a Assessment) float64 {
	score := 0.5

	if a.ExpectedStatus {
		score += 0.2
	} else {
		score -= 0.1
	}
	if a.SchemaCompliant {
		score += 0.2
	} else {
		score -= 0.3
	}
	for _, sig := range a.Signatures {
		switch sig.Severity {
		case finding.SeverityCritical:
			score -= 0.3
		case finding.SeverityHigh:
			score -= 0.2
		}
	}
	for _, an := range a.Anomalies {
		switch an.Severity {
		case finding.SeverityCritical:
			score -= 0.2
		case finding.SeverityHigh:
			score -= 0.1
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// checkSchema validates resp.Body against ep.ExpectedSchema. A nil schema
// is trivially compliant. The schema is lowered to a JSON Schema document
// and checked with gojsonschema; the direct recursive walk in conforms runs
// only when gojsonschema returns an error (for example an uncompilable
// pattern, or a body that is not JSON, which then fails to decode here as
// well). That walk checks types, required fields, properties, and items,
// but not format or pattern.
func checkSchema(ep contract.Endpoint, resp transport.ResponseData) bool {
	if ep.ExpectedSchema == nil {
		return true
	}
	if len(resp.Body) == 0 {
		return ep.ExpectedSchema.Type == ""
	}

	if doc, ok := ep.ExpectedSchema.JSONSchemaDocument(); ok {
		schemaLoader := gojsonschema.NewBytesLoader(doc)
		docLoader := gojsonschema.NewBytesLoader(resp.Body)
		result, err := gojsonschema.Validate(schemaLoader, docLoader)
		if err == nil {
			return result.Valid()
		}
	}

	var decoded interface{}
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return false
	}
	return conforms(ep.ExpectedSchema, decoded)
}

func conforms(schema *contract.ExpectedSchema, value interface{}) bool {
	if schema == nil {
		return true
	}

	switch schema.Type {
	case "object":
		m, ok := value.(map[string]interface{})
		if !ok {
			return false
		}
		for _, req := range schema.Required {
			if _, present := m[req]; !present {
				return false
			}
		}
		for name, propSchema := range schema.Properties {
			if v, present := m[name]; present && !conforms(propSchema, v) {
				return false
			}
		}
		return true
	case "array":
		arr, ok := value.([]interface{})
		if !ok {
			return false
		}
		if schema.Items == nil {
			return true
		}
		for _, item := range arr {
			if !conforms(schema.Items, item) {
				return false
			}
		}
		return true
	case "string":
		_, ok := value.(string)
		return ok
	case "number", "integer":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "":
		return true
	default:
		return strings.EqualFold(schema.Type, "null") && value == nil
	}
}
