package validator

import (
	"testing"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
	"github.com/blackcoderx/contractfuzz/pkg/finding"
	"github.com/blackcoderx/contractfuzz/pkg/transport"
)

func endpoint() contract.Endpoint {
	return contract.Endpoint{
		ID:               "get-user",
		Path:             "/api/users/{id}",
		Method:           "GET",
		ExpectedStatuses: []uint16{200},
		ExpectedSchema: &contract.ExpectedSchema{
			Type:     "object",
			Required: []string{"id", "name"},
			Properties: map[string]*contract.ExpectedSchema{
				"id":   {Type: "number"},
				"name": {Type: "string"},
			},
		},
	}
}

func response(status uint16, body string) transport.ResponseData {
	h := transport.NewHeader()
	h.Add("X-Content-Type-Options", "nosniff")
	h.Add("X-Frame-Options", "DENY")
	h.Add("Content-Security-Policy", "default-src 'self'")
	return transport.ResponseData{
		Status:    status,
		Headers:   h,
		Body:      []byte(body),
		SizeBytes: int64(len(body)),
		ElapsedMs: 10,
	}
}

func TestValidateCleanResponseIsValid(t *testing.T) {
	a := Validate(endpoint(), response(200, `{"id":1,"name":"ada"}`))
	if !a.Valid {
		t.Fatalf("expected clean response to be valid, got %+v", a)
	}
	if len(a.Signatures) != 0 {
		t.Errorf("expected no signatures, got %v", a.Signatures)
	}
}

func TestSQLInjectionSignatureDropsConfidenceAndValidity(t *testing.T) {
	a := Validate(endpoint(), response(500, "SQL syntax error near DROP TABLE users"))
	if a.Valid {
		t.Errorf("expected sql-error response to be invalid")
	}
	found := false
	for _, s := range a.Signatures {
		if s.Name == "sql_injection" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sql_injection signature, got %+v", a.Signatures)
	}
}

// TestSignatureConfidenceMonotonicity checks that adding a critical-severity
// signature never raises confidence relative to an otherwise identical
// clean response.
func TestSignatureConfidenceMonotonicity(t *testing.T) {
	clean := Validate(endpoint(), response(200, `{"id":1,"name":"ada"}`))
	withSig := Validate(endpoint(), response(200, `{"id":1,"name":"ada SQL syntax error"}`))

	if withSig.Confidence > clean.Confidence {
		t.Errorf("confidence must not increase when a signature is matched: clean=%v withSig=%v", clean.Confidence, withSig.Confidence)
	}
}

// TestSchemaSoundness checks that a body missing a required field is never
// schema-compliant, regardless of status code.
func TestSchemaSoundness(t *testing.T) {
	missingField := Validate(endpoint(), response(200, `{"id":1}`))
	if missingField.SchemaCompliant {
		t.Errorf("expected missing required field to fail schema conformance")
	}

	wrongType := Validate(endpoint(), response(200, `{"id":"not-a-number","name":"ada"}`))
	if wrongType.SchemaCompliant {
		t.Errorf("expected wrong-typed field to fail schema conformance")
	}
}

func TestConfidenceClampedToUnitInterval(t *testing.T) {
	a := Validate(endpoint(), response(500, "SQL syntax error; <script>alert('xss')</script> panic: runtime error"))
	if a.Confidence < 0 || a.Confidence > 1 {
		t.Errorf("confidence must stay within [0,1], got %v", a.Confidence)
	}
}

func TestBaselineDeviationDetectsTimingAnomaly(t *testing.T) {
	ep := endpoint()
	ep.Baseline = contract.Baseline{Status: 200, SizeBytes: 100, ElapsedMs: 50}

	slow := response(200, `{"id":1,"name":"ada"}`)
	slow.ElapsedMs = 500

	a := Validate(ep, slow)
	found := false
	for _, an := range a.Anomalies {
		if an.Kind == "timing_anomaly" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected timing_anomaly against baseline, got %+v", a.Anomalies)
	}
}

// TestUnexpectedStatusReducesConfidence checks that a 5xx response — the
// status class the bucket rule always marks unexpected — scores lower than
// an otherwise identical 2xx response, regardless of what the endpoint
// declares in ExpectedStatuses.
func TestUnexpectedStatusReducesConfidence(t *testing.T) {
	expected := Validate(endpoint(), response(200, `{"id":1,"name":"ada"}`))
	unexpected := Validate(endpoint(), response(503, `{"id":1,"name":"ada"}`))

	if unexpected.Confidence >= expected.Confidence {
		t.Errorf("unexpected status should score lower: expected=%v unexpected=%v", expected.Confidence, unexpected.Confidence)
	}
}

// TestStatusClassBucketIsIndependentOfEndpoint checks that ExpectedStatus
// follows the response's status class alone: a 201 is expected even when
// the endpoint only ever declared 200, and a 1xx is never expected even
// with no declared statuses at all.
func TestStatusClassBucketIsIndependentOfEndpoint(t *testing.T) {
	ep := endpoint() // ExpectedStatuses: []uint16{200}
	a := Validate(ep, response(201, `{"id":1,"name":"ada"}`))
	if !a.ExpectedStatus {
		t.Errorf("expected 201 to be scored as an expected status despite ExpectedStatuses=[200]")
	}

	bare := contract.Endpoint{ID: "no-statuses-declared"}
	b := Validate(bare, response(100, ""))
	if b.ExpectedStatus {
		t.Errorf("expected 1xx to never be scored as an expected status")
	}
}

// TestMissingAllSecurityHeadersFlagsMediumAnomaly checks that the combined
// absence of all five security headers reports one medium-severity anomaly,
// and that a response missing only some of them reports none.
func TestMissingAllSecurityHeadersFlagsMediumAnomaly(t *testing.T) {
	bare := transport.ResponseData{Status: 200, Headers: transport.NewHeader(), Body: []byte(`{}`)}
	a := Validate(endpoint(), bare)

	found := 0
	for _, an := range a.Anomalies {
		if an.Kind == "missing_security_headers" {
			found++
			if an.Severity != finding.SeverityMedium {
				t.Errorf("expected missing_security_headers to be medium severity, got %v", an.Severity)
			}
		}
	}
	if found != 1 {
		t.Errorf("expected exactly one missing_security_headers anomaly, got %d", found)
	}

	partial := response(200, `{}`) // has 3 of 5 headers set
	a = Validate(endpoint(), partial)
	for _, an := range a.Anomalies {
		if an.Kind == "missing_security_headers" {
			t.Errorf("expected no missing_security_headers anomaly when some headers are present")
		}
	}
}
