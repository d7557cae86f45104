// Package orchestrator implements the per-endpoint fuzzing loop and its
// cross-endpoint fan-out, the classification rules that promote a validated
// response into a vulnerability, and the reproducibility/false-positive-rate
// bookkeeping built on top of it.
//
// Cross-endpoint concurrency is grounded on
// AditS-H-VIGILUM/scanner.Orchestrator.ScanAll: bounded fan-out with
// golang.org/x/sync/errgroup, one goroutine per unit of work, individual
// failures logged via slog.Warn and swallowed rather than aborting the
// run. Here the unit of work is an endpoint, not a scanner, and
// "swallowed" means the endpoint's EndpointResult records the failure
// instead of being dropped.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackcoderx/contractfuzz/pkg/auth"
	"github.com/blackcoderx/contractfuzz/pkg/budget"
	"github.com/blackcoderx/contractfuzz/pkg/contract"
	"github.com/blackcoderx/contractfuzz/pkg/ferrors"
	"github.com/blackcoderx/contractfuzz/pkg/finding"
	"github.com/blackcoderx/contractfuzz/pkg/payload"
	"github.com/blackcoderx/contractfuzz/pkg/transport"
	"github.com/blackcoderx/contractfuzz/pkg/validator"
)

// State is an endpoint's position in its fuzzing state machine:
// READY → TESTING ↔ WAITING → (BUDGET_EXHAUSTED | BANNED | UNHEALTHY | COMPLETED).
type State string

const (
	StateReady           State = "READY"
	StateTesting         State = "TESTING"
	StateWaiting         State = "WAITING"
	StateBudgetExhausted State = "BUDGET_EXHAUSTED"
	StateBanned          State = "BANNED"
	StateUnhealthy       State = "UNHEALTHY"
	StateCompleted       State = "COMPLETED"
)

// GenerationOptions configures payload generation.
type GenerationOptions struct {
	IntensityLevel     float64
	IncludeBaseline    bool
	IncludeBoundaries  bool
	IncludeMutations   bool
	MutationIntensity  float64
}

// ValidationOptions configures validation and vulnerability promotion.
type ValidationOptions struct {
	EnableSchemaValidation bool
	EnableAnomalyDetection bool
	FalsePositiveThreshold float64
	ConfidenceThreshold    float64
}

// Config is the full orchestrator configuration, minus the endpoints list
// which is carried by the Contract.
type Config struct {
	MaxConcurrent int
	Generation    GenerationOptions
	Validation    ValidationOptions

	// EndpointBudget is the budget.Limits every contract endpoint is
	// registered with: its MaxRequests is the per-endpoint request cap,
	// and its backoff fields seed that endpoint's rate-limit schedule.
	EndpointBudget budget.Limits
}

// DefaultConfig returns sensible defaults for every option.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 4,
		Generation: GenerationOptions{
			IntensityLevel:    1.0,
			IncludeBaseline:   true,
			IncludeBoundaries: true,
			IncludeMutations:  true,
			MutationIntensity: 0.67,
		},
		Validation: ValidationOptions{
			EnableSchemaValidation: true,
			EnableAnomalyDetection: true,
			FalsePositiveThreshold: 0.10,
			ConfidenceThreshold:    0.5,
		},
	}
}

// EndpointResult is the per-endpoint outcome recorded in a Session.
type EndpointResult struct {
	EndpointID      string
	FinalState      State
	RequestsSent    int
	Vulnerabilities []finding.Vulnerability
	AnomalyCount    int
	FPRate          float64
	ElapsedMs       int64
	Skipped         string // "auth_unavailable" when the endpoint had no resolvable auth role
}

// Session is the aggregate output of one FuzzAll run.
type Session struct {
	ID         string
	StartedAt  time.Time
	EndedAt    time.Time
	Results    []EndpointResult
	Findings   []finding.Vulnerability
	AvgFPRate  float64
}

// Orchestrator wires payload generation, transport, auth, budget, and
// validation together to drive one Contract.
type Orchestrator struct {
	contract contract.Contract
	transport transport.Transport
	budget    *budget.Manager
	auth      auth.Resolver
	cfg       Config
	logger    *slog.Logger
	seed      uint64

	mu       sync.Mutex
	findings []finding.Vulnerability
}

// New builds an Orchestrator. auth may be nil when no endpoint declares an
// AuthRole.
func New(c contract.Contract, t transport.Transport, b *budget.Manager, a auth.Resolver, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, ep := range c.Endpoints {
		b.Register(ep.ID, cfg.EndpointBudget)
	}
	return &Orchestrator{
		contract:  c,
		transport: t,
		budget:    b,
		auth:      a,
		cfg:       cfg,
		logger:    logger.With("component", "orchestrator"),
		seed:      payload.NewSessionSeed(),
	}
}

// FuzzAll fuzzes every endpoint in the contract, bounded by
// cfg.MaxConcurrent concurrent endpoints.
func (o *Orchestrator) FuzzAll(ctx context.Context) Session {
	start := time.Now()
	session := Session{ID: fmt.Sprintf("session-%d", o.seed), StartedAt: start}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxInt(1, o.cfg.MaxConcurrent))

	results := make([]EndpointResult, len(o.contract.Endpoints))
	for i, ep := range o.contract.Endpoints {
		i, ep := i, ep
		g.Go(func() error {
			results[i] = o.FuzzEndpoint(groupCtx, ep)
			return nil
		})
	}
	_ = g.Wait()

	session.Results = results
	session.EndedAt = time.Now()
	session.Findings = o.allFindings()
	session.AvgFPRate = averageFPRate(results)
	return session
}

// FuzzEndpoint runs the per-endpoint loop: for each parameter, generate
// payloads, probe them one at a time (endpoint probing is strictly
// serialized), validate each response, and promote candidates into
// vulnerabilities.
func (o *Orchestrator) FuzzEndpoint(ctx context.Context, ep contract.Endpoint) EndpointResult {
	start := time.Now()
	result := EndpointResult{EndpointID: ep.ID, FinalState: StateReady}

	if ep.AuthRole != "" && o.auth == nil {
		result.FinalState = StateReady
		result.Skipped = "auth_unavailable"
		return result
	}

	state := StateTesting
paramLoop:
	for _, param := range ep.Parameters {
		payloads := payload.Generate(param.TypeTag, param.Constraints)
		if o.cfg.Generation.IncludeMutations && len(payloads) > 0 {
			payloads = append(payloads, payload.Mutate(payloads[0].Value, param.TypeTag, o.cfg.Generation.MutationIntensity)...)
		}

		for _, p := range payloads {
			if ctx.Err() != nil {
				state = StateCompleted
				break paramLoop
			}
			if !o.budget.Healthy() {
				state = StateUnhealthy
				break paramLoop
			}

			outcomeState, sent := o.probeOnce(ctx, ep, param, p, &result)
			result.RequestsSent += sent
			if outcomeState != "" {
				state = outcomeState
				if state == StateBanned || state == StateBudgetExhausted {
					continue paramLoop // move to the next parameter
				}
				break paramLoop
			}
		}
	}

	if state == StateTesting {
		state = StateCompleted
	}
	result.FinalState = state
	result.FPRate = fpRate(result.Vulnerabilities)
	result.ElapsedMs = time.Since(start).Milliseconds()
	return result
}

// probeOnce asks the budget manager, waits out any delay, dispatches one
// request, and validates the response. It returns a non-empty State only
// when the endpoint must stop working this parameter (banned, budget
// exhausted, the context was cancelled mid-wait, or the auth resolver has
// no credential for the endpoint's role, which also sets result.Skipped);
// sent reports how many requests were actually issued (0 or 1).
func (o *Orchestrator) probeOnce(ctx context.Context, ep contract.Endpoint, param contract.Parameter, p payload.Payload, result *EndpointResult) (State, int) {
	for {
		decision := o.budget.Check(ep.ID)
		switch decision.Verdict {
		case budget.VerdictAllow:
			// fall through to dispatch
		case budget.VerdictBanned:
			return StateBanned, 0
		case budget.VerdictExhausted, budget.VerdictGlobalRequests, budget.VerdictGlobalDeadline:
			return StateBudgetExhausted, 0
		default:
			// a delay-bearing verdict: wait it out, then re-query the same
			// payload.
			select {
			case <-ctx.Done():
				return StateCompleted, 0
			case <-time.After(decision.Delay):
			}
			continue
		}
		break
	}

	resp, err := o.dispatch(ctx, ep, param, p)
	if errors.Is(err, ferrors.ErrAuthUnavailable) {
		result.Skipped = "auth_unavailable"
		return StateReady, 0
	}
	if err != nil {
		o.budget.Record(ep.ID, budget.OutcomeTransportFailure, 0)
		o.logger.Warn("transport failure", "endpoint", ep.ID, "error", err)
		return "", 1
	}

	o.recordOutcome(ep.ID, resp)

	assessment := validator.Validate(ep, resp)
	if vuln, ok := o.classify(ep, param, p, assessment, resp); ok {
		vuln.Reproducible = o.reproduces(ctx, ep, param, p, vuln)
		o.appendFinding(vuln)
		result.Vulnerabilities = append(result.Vulnerabilities, vuln)
	}
	if len(assessment.Anomalies) > 0 {
		result.AnomalyCount += len(assessment.Anomalies)
	}

	return "", 1
}

func (o *Orchestrator) dispatch(ctx context.Context, ep contract.Endpoint, param contract.Parameter, p payload.Payload) (transport.ResponseData, error) {
	spec := buildRequest(ep, param, p)

	if ep.AuthRole == "" {
		return o.transport.Send(ctx, spec)
	}

	var resp transport.ResponseData
	var sendErr error
	err := o.auth.WithRole(ctx, ep.AuthRole, func(authCtx auth.Context) error {
		for k, v := range authCtx.Headers {
			spec.Headers[k] = v
		}
		for k, v := range authCtx.Cookies {
			spec.Cookies[k] = v
		}
		if authCtx.CSRFToken != "" {
			spec.Headers["X-CSRF-Token"] = authCtx.CSRFToken
		}
		resp, sendErr = o.transport.Send(ctx, spec)
		return sendErr
	})
	if err != nil {
		return transport.ResponseData{}, err
	}
	return resp, nil
}

func (o *Orchestrator) recordOutcome(epID string, resp transport.ResponseData) {
	switch {
	case resp.Status == 429 || resp.Status == 503:
		retryAfter := time.Duration(0)
		if v, ok := resp.Headers.Get("Retry-After"); ok {
			if d, ok := budget.ParseRetryAfter(v); ok {
				retryAfter = d
			}
		}
		o.budget.Record(epID, budget.OutcomeRateLimited, retryAfter)
	case resp.Status >= 500:
		o.budget.Record(epID, budget.OutcomeServerError, 0)
	case resp.Status >= 400:
		o.budget.Record(epID, budget.OutcomeClientError, 0)
	default:
		o.budget.Record(epID, budget.OutcomeSuccess, 0)
	}
}

// reproduces re-executes the same request under the same auth and reports
// whether it again classifies as a vulnerability.
func (o *Orchestrator) reproduces(ctx context.Context, ep contract.Endpoint, param contract.Parameter, p payload.Payload, original finding.Vulnerability) bool {
	resp, err := o.dispatch(ctx, ep, param, p)
	if err != nil {
		return false
	}
	assessment := validator.Validate(ep, resp)
	_, ok := o.classify(ep, param, p, assessment, resp)
	return ok
}

func (o *Orchestrator) appendFinding(v finding.Vulnerability) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.findings = append(o.findings, v)
}

func (o *Orchestrator) allFindings() []finding.Vulnerability {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]finding.Vulnerability(nil), o.findings...)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func averageFPRate(results []EndpointResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.FPRate
	}
	return sum / float64(len(results))
}

func fpRate(vulns []finding.Vulnerability) float64 {
	if len(vulns) == 0 {
		return 0
	}
	low := 0
	for _, v := range vulns {
		if v.Confidence < 0.7 {
			low++
		}
	}
	return float64(low) / float64(len(vulns))
}
