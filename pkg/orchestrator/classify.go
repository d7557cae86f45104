package orchestrator

import (
	"fmt"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
	"github.com/blackcoderx/contractfuzz/pkg/finding"
	"github.com/blackcoderx/contractfuzz/pkg/payload"
	"github.com/blackcoderx/contractfuzz/pkg/transport"
	"github.com/blackcoderx/contractfuzz/pkg/validator"
)

// classify implements the vulnerability-classification rules of spec
// §4.D. It returns ok=false when the assessment is clean, or when the
// resulting vulnerability confidence falls below the configured
// threshold.
//
// a.Confidence scores how legitimate/valid the response looks, and falls
// as evidence of a problem accumulates (see validator's monotonicity
// rule). Vulnerability.Confidence asks the opposite question — how
// confident are we this is a real vulnerability — so it is the
// complement, 1-a.Confidence, not a copy of it. A response that reads as
// entirely invalid (a.Confidence near 0, e.g. an unexpected status plus
// a non-compliant body plus a matched critical signature) yields a
// vulnerability confidence near 1.
func (o *Orchestrator) classify(ep contract.Endpoint, param contract.Parameter, p payload.Payload, a validator.Assessment, resp transport.ResponseData) (finding.Vulnerability, bool) {
	if a.Valid {
		return finding.Vulnerability{}, false
	}
	vulnConfidence := 1 - a.Confidence
	if vulnConfidence < o.cfg.Validation.ConfidenceThreshold {
		return finding.Vulnerability{}, false
	}

	kind := classifyKind(a, p)
	severity := classifySeverity(a, p, resp)
	cwe, owaspRef := finding.Classify(kind)

	v := finding.Vulnerability{
		ID:            fmt.Sprintf("%s-%s-%d", ep.ID, param.Name, o.seed),
		Endpoint:      ep.Path,
		Method:        ep.Method,
		ParameterName: param.Name,
		PayloadDesc:   p.Description,
		Category:      kind,
		Severity:      severity,
		Signatures:    a.Signatures,
		Anomalies:     a.Anomalies,
		Confidence:    vulnConfidence,
		CWE:           cwe,
		OWASP:         owaspRef,
		SessionSeed:   o.seed,
	}
	return v, true
}

func classifyKind(a validator.Assessment, p payload.Payload) string {
	for _, sig := range a.Signatures {
		if sig.Severity == finding.SeverityCritical {
			return sig.Name
		}
	}
	if p.Category == payload.CategoryInjection {
		return "injection_vulnerability"
	}
	for _, an := range a.Anomalies {
		if an.Severity == finding.SeverityCritical {
			return an.Kind
		}
	}
	return "unknown_vulnerability"
}

func classifySeverity(a validator.Assessment, p payload.Payload, resp transport.ResponseData) finding.Severity {
	for _, sig := range a.Signatures {
		if sig.Severity == finding.SeverityCritical {
			return finding.SeverityCritical
		}
	}

	hasHighAnomaly := false
	hasMediumAnomaly := false
	for _, an := range a.Anomalies {
		switch an.Severity {
		case finding.SeverityHigh:
			hasHighAnomaly = true
		case finding.SeverityMedium:
			hasMediumAnomaly = true
		}
	}
	if hasHighAnomaly || (resp.Status >= 500 && p.Malicious) {
		return finding.SeverityHigh
	}
	if hasMediumAnomaly || len(a.Signatures) > 0 {
		return finding.SeverityMedium
	}
	return finding.SeverityLow
}
