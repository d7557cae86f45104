package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/blackcoderx/contractfuzz/pkg/auth"
	"github.com/blackcoderx/contractfuzz/pkg/budget"
	"github.com/blackcoderx/contractfuzz/pkg/contract"
	"github.com/blackcoderx/contractfuzz/pkg/finding"
	"github.com/blackcoderx/contractfuzz/pkg/orchestrator"
	"github.com/blackcoderx/contractfuzz/pkg/transport"
)

// Runner wires a Contract, a Config, and a logger into one orchestrator run
// and knows how to persist its Session as a report, the way
// security_scanner/report.go persisted a Fuzzer's vulnerabilities — except
// here the orchestrator itself is the producer, and the report is built
// once the whole contract has been fuzzed rather than accumulated call by
// call.
type Runner struct {
	Contract  contract.Contract
	Config    Config
	Transport transport.Transport
	Auth      auth.Resolver
	Logger    *slog.Logger
}

// NewRunner builds a Runner. transport and authResolver may be supplied by
// the caller (e.g. cmd/contractfuzz wires a transport.FastHTTP after
// prefixing every endpoint path with the base URL); authResolver is nil
// when no endpoint declares an AuthRole.
func NewRunner(c contract.Contract, cfg Config, t transport.Transport, authResolver auth.Resolver, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{Contract: c, Config: cfg, Transport: t, Auth: authResolver, Logger: logger.With("component", "session")}
}

// Run builds the budget manager and orchestrator from r's config and
// fuzzes every endpoint in the contract.
func (r *Runner) Run(ctx context.Context) orchestrator.Session {
	b := budget.New(r.Config.ToBudgetLimits(), r.Logger)
	o := orchestrator.New(r.Contract, r.Transport, b, r.Auth, r.Config.ToOrchestratorConfig(), r.Logger)

	r.Logger.Info("fuzzing started", "endpoints", len(r.Contract.Endpoints), "base_url", r.Config.BaseURL)
	sess := o.FuzzAll(ctx)
	r.Logger.Info("fuzzing completed", "findings", len(sess.Findings), "avg_fp_rate", sess.AvgFPRate)
	return sess
}

// reportDoc is the JSON shape persisted to disk, mirroring
// security_scanner/report.go's timestamp+parameters+vulnerabilities+summary
// envelope.
type reportDoc struct {
	Timestamp string               `json:"timestamp"`
	BaseURL   string               `json:"base_url"`
	Session   orchestrator.Session `json:"session"`
	Summary   map[string]int       `json:"summary"`
}

// WriteJSONReport persists sess to dir/contractfuzz_<timestamp>.json and
// returns the path written.
func WriteJSONReport(dir string, baseURL string, sess orchestrator.Session) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("session: create report dir: %w", err)
	}

	filename := fmt.Sprintf("contractfuzz_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	doc := reportDoc{
		Timestamp: time.Now().Format(time.RFC3339),
		BaseURL:   baseURL,
		Session:   sess,
		Summary:   summarizeBySeverity(sess.Findings),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("session: marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("session: write report: %w", err)
	}
	return path, nil
}

func summarizeBySeverity(vulns []finding.Vulnerability) map[string]int {
	summary := map[string]int{}
	for _, v := range vulns {
		summary[string(v.Severity)]++
	}
	return summary
}
