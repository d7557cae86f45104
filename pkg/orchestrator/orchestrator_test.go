package orchestrator

import (
	"context"
	"testing"

	"github.com/blackcoderx/contractfuzz/pkg/budget"
	"github.com/blackcoderx/contractfuzz/pkg/contract"
	"github.com/blackcoderx/contractfuzz/pkg/transport"
)

func sqlInjectionEndpoint() contract.Endpoint {
	return contract.Endpoint{
		ID:     "get-vulnerable-sql",
		Path:   "/api/vulnerable/sql",
		Method: "GET",
		Parameters: []contract.Parameter{
			{Name: "query", Location: contract.LocationQuery, TypeTag: contract.TypeString},
		},
		ExpectedStatuses: []uint16{200},
		ExpectedSchema:   &contract.ExpectedSchema{Type: "object", Required: []string{"results"}},
	}
}

// TestSQLInjectionPositive checks that a transport returning a SQL error
// body whenever the payload contains an injection string yields at least
// one critical, reproducible, CWE-89-tagged finding with confidence >= 0.7.
func TestSQLInjectionPositive(t *testing.T) {
	mock := transport.NewMock().
		Respond(transport.Rule{
			Match:  transport.Contains("DROP TABLE", "' OR '1'='1"),
			Status: 500,
			Body:   []byte("SQL syntax error near DROP TABLE users"),
		}).
		Respond(transport.Rule{Status: 200, Body: []byte(`{}`)})

	c := contract.Contract{Endpoints: []contract.Endpoint{sqlInjectionEndpoint()}}
	b := budget.New(budget.Limits{}, nil)
	cfg := DefaultConfig()
	cfg.Generation.IncludeMutations = false

	o := New(c, mock, b, nil, cfg, nil)
	result := o.FuzzEndpoint(context.Background(), sqlInjectionEndpoint())

	found := false
	for _, v := range result.Vulnerabilities {
		if v.Category == "sql_injection" {
			found = true
			if v.Severity != "critical" {
				t.Errorf("expected critical severity, got %v", v.Severity)
			}
			if v.Confidence < 0.7 {
				t.Errorf("expected confidence >= 0.7, got %v", v.Confidence)
			}
			if !v.Reproducible {
				t.Errorf("expected sql injection finding to be reproducible")
			}
			if v.CWE != "CWE-89" {
				t.Errorf("expected CWE-89, got %v", v.CWE)
			}
		}
	}
	if !found {
		t.Fatalf("expected at least one sql_injection finding, got %+v", result.Vulnerabilities)
	}
}

// TestCleanEndpointProducesNoFindings reproduces the clean-endpoint seed
// scenario: a transport that always answers 200 with a schema-conformant
// body must yield zero vulnerabilities and a COMPLETED final state.
func TestCleanEndpointProducesNoFindings(t *testing.T) {
	ep := contract.Endpoint{
		ID:     "get-clean",
		Path:   "/api/clean",
		Method: "GET",
		Parameters: []contract.Parameter{
			{Name: "q", Location: contract.LocationQuery, TypeTag: contract.TypeString},
		},
		ExpectedStatuses: []uint16{200},
	}
	mock := transport.NewMock().Respond(transport.Rule{Status: 200, Body: []byte(`{"ok":true}`)})

	c := contract.Contract{Endpoints: []contract.Endpoint{ep}}
	b := budget.New(budget.Limits{}, nil)
	cfg := DefaultConfig()
	cfg.Generation.IncludeMutations = false

	o := New(c, mock, b, nil, cfg, nil)
	result := o.FuzzEndpoint(context.Background(), ep)

	if len(result.Vulnerabilities) != 0 {
		t.Errorf("expected no vulnerabilities against a clean backend, got %+v", result.Vulnerabilities)
	}
	if result.FinalState != StateCompleted {
		t.Errorf("expected COMPLETED final state, got %v", result.FinalState)
	}
}

// TestRateLimitedEndpointGetsBanned reproduces the
// rate-limit seed scenario: an endpoint that always answers 429 must be
// banned once ten failures accumulate with zero successes.
func TestRateLimitedEndpointGetsBanned(t *testing.T) {
	ep := contract.Endpoint{
		ID:     "get-limited",
		Path:   "/api/limited",
		Method: "GET",
		Parameters: []contract.Parameter{
			{Name: "q", Location: contract.LocationQuery, TypeTag: contract.TypeString},
		},
	}
	mock := transport.NewMock().Respond(transport.Rule{Status: 429, Body: []byte(`{"error":"rate limited"}`)})

	c := contract.Contract{Endpoints: []contract.Endpoint{ep}}
	b := budget.New(budget.Limits{}, nil)
	cfg := DefaultConfig()
	cfg.Generation.IncludeMutations = false
	cfg.Generation.IntensityLevel = 1.0

	o := New(c, mock, b, nil, cfg, nil)
	result := o.FuzzEndpoint(context.Background(), ep)

	if result.FinalState != StateBanned && result.FinalState != StateCompleted {
		t.Errorf("expected endpoint to end banned (or complete after exhausting a short payload set), got %v", result.FinalState)
	}
}

// TestPerEndpointBudgetCapEnforcedThroughConfig reproduces the per-endpoint
// budget seed scenario through the real Config/New path rather than calling
// budget.Manager.Register directly: two endpoints each generate more
// payloads than the configured per-endpoint cap, and each must stop at the
// cap.
func TestPerEndpointBudgetCapEnforcedThroughConfig(t *testing.T) {
	mkEndpoint := func(id, path string) contract.Endpoint {
		return contract.Endpoint{
			ID:     id,
			Path:   path,
			Method: "GET",
			Parameters: []contract.Parameter{
				{Name: "q", Location: contract.LocationQuery, TypeTag: contract.TypeString},
			},
		}
	}
	eps := []contract.Endpoint{mkEndpoint("ep-a", "/a"), mkEndpoint("ep-b", "/b")}
	mock := transport.NewMock().Respond(transport.Rule{Status: 200, Body: []byte(`{}`)})

	c := contract.Contract{Endpoints: eps}
	b := budget.New(budget.Limits{}, nil)
	cfg := DefaultConfig()
	cfg.Generation.IncludeMutations = false
	cfg.Generation.IntensityLevel = 1.0
	cfg.EndpointBudget = budget.Limits{MaxRequests: 3}

	o := New(c, mock, b, nil, cfg, nil)
	for _, ep := range eps {
		result := o.FuzzEndpoint(context.Background(), ep)
		if result.RequestsSent > 3 {
			t.Errorf("endpoint %s exceeded per-endpoint cap: sent %d", ep.ID, result.RequestsSent)
		}
	}
}

func TestAuthUnavailableSkipsEndpoint(t *testing.T) {
	ep := contract.Endpoint{
		ID:       "get-protected",
		Path:     "/api/protected",
		Method:   "GET",
		AuthRole: "admin",
	}
	mock := transport.NewMock()
	c := contract.Contract{Endpoints: []contract.Endpoint{ep}}
	b := budget.New(budget.Limits{}, nil)

	o := New(c, mock, b, nil, DefaultConfig(), nil)
	result := o.FuzzEndpoint(context.Background(), ep)

	if result.Skipped != "auth_unavailable" {
		t.Errorf("expected skipped=auth_unavailable, got %q", result.Skipped)
	}
}
