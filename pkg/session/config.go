// Package session owns the ambient concerns an orchestrator run needs but
// that aren't part of the fuzzing contract itself: config loading, the
// logger handle, and report emission. A logger handle is built once here
// and threaded through explicitly, rather than read from a global
// singleton.
package session

import (
	"time"

	"github.com/spf13/viper"

	"github.com/blackcoderx/contractfuzz/pkg/budget"
	"github.com/blackcoderx/contractfuzz/pkg/orchestrator"
)

// Config is the full external configuration surface: budget limits,
// generation options, and validation options, plus the run-level settings
// (target, auth) that sit outside the orchestrator's own config.
type Config struct {
	BaseURL       string
	ContractFile  string
	AuthRole      string
	MaxConcurrent int

	Budget struct {
		MaxRequestsPerEndpoint int
		MaxTotalRequests       int
		MaxDurationMs          int
		InitialDelayMs         int
		MaxDelayMs             int
		BackoffMultiplier      float64
		RespectRetryAfter      bool
	}
	Generation struct {
		IntensityLevel    float64
		IncludeBaseline   bool
		IncludeBoundaries bool
		IncludeMutations  bool
		MutationIntensity float64
	}
	Validation struct {
		EnableSchemaValidation bool
		EnableAnomalyDetection bool
		FalsePositiveThreshold float64
		ConfidenceThreshold    float64
	}
}

// LoadConfig binds budget.*, generation.*, validation.* viper keys onto a
// Config, reading settings through viper rather than parsing flags by hand.
// v is expected to have
// already had AddConfigPath/SetConfigName/ReadInConfig called on it (or to
// be viper.GetViper() after cobra flags were bound) — LoadConfig itself
// only reads, it doesn't touch file/env wiring.
func LoadConfig(v *viper.Viper) Config {
	var cfg Config

	cfg.BaseURL = v.GetString("base_url")
	cfg.ContractFile = v.GetString("contract_file")
	cfg.AuthRole = v.GetString("auth_role")
	cfg.MaxConcurrent = v.GetInt("max_concurrent")
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 4
	}

	cfg.Budget.MaxRequestsPerEndpoint = v.GetInt("budget.max_requests_per_endpoint")
	cfg.Budget.MaxTotalRequests = v.GetInt("budget.max_total_requests")
	cfg.Budget.MaxDurationMs = v.GetInt("budget.max_duration_ms")
	cfg.Budget.InitialDelayMs = orDefaultInt(v.GetInt("budget.initial_delay_ms"), 250)
	cfg.Budget.MaxDelayMs = orDefaultInt(v.GetInt("budget.max_delay_ms"), 60000)
	cfg.Budget.BackoffMultiplier = orDefault(v.GetFloat64("budget.backoff_multiplier"), 2.0)
	if v.IsSet("budget.respect_retry_after") {
		cfg.Budget.RespectRetryAfter = v.GetBool("budget.respect_retry_after")
	} else {
		cfg.Budget.RespectRetryAfter = true
	}

	cfg.Generation.IntensityLevel = orDefault(v.GetFloat64("generation.intensity_level"), 1.0)
	cfg.Generation.IncludeBaseline = v.GetBool("generation.include_baseline")
	cfg.Generation.IncludeBoundaries = v.GetBool("generation.include_boundaries")
	cfg.Generation.IncludeMutations = v.GetBool("generation.include_mutations")
	cfg.Generation.MutationIntensity = orDefault(v.GetFloat64("generation.mutation_intensity"), 0.67)

	cfg.Validation.EnableSchemaValidation = v.GetBool("validation.enable_schema_validation")
	cfg.Validation.EnableAnomalyDetection = v.GetBool("validation.enable_anomaly_detection")
	cfg.Validation.FalsePositiveThreshold = orDefault(v.GetFloat64("validation.false_positive_threshold"), 0.10)
	cfg.Validation.ConfidenceThreshold = orDefault(v.GetFloat64("validation.confidence_threshold"), 0.5)

	return cfg
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// ToOrchestratorConfig lowers the session-level Config into the
// orchestrator's own Config shape.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		MaxConcurrent:  c.MaxConcurrent,
		EndpointBudget: c.EndpointLimits(),
		Generation: orchestrator.GenerationOptions{
			IntensityLevel:    c.Generation.IntensityLevel,
			IncludeBaseline:   c.Generation.IncludeBaseline,
			IncludeBoundaries: c.Generation.IncludeBoundaries,
			IncludeMutations:  c.Generation.IncludeMutations,
			MutationIntensity: c.Generation.MutationIntensity,
		},
		Validation: orchestrator.ValidationOptions{
			EnableSchemaValidation: c.Validation.EnableSchemaValidation,
			EnableAnomalyDetection: c.Validation.EnableAnomalyDetection,
			FalsePositiveThreshold: c.Validation.FalsePositiveThreshold,
			ConfidenceThreshold:    c.Validation.ConfidenceThreshold,
		},
	}
}

func (c Config) budgetDeadline() time.Duration {
	if c.Budget.MaxDurationMs <= 0 {
		return 0
	}
	return time.Duration(c.Budget.MaxDurationMs) * time.Millisecond
}

// ToBudgetLimits lowers the session-level budget config into the global
// budget.Limits, anchoring the deadline (if any) to now. The backoff
// schedule fields apply uniformly to the global budget and to every
// per-endpoint budget built by EndpointLimits.
func (c Config) ToBudgetLimits() budget.Limits {
	limits := budget.Limits{
		MaxRequests:       c.Budget.MaxTotalRequests,
		InitialDelay:      time.Duration(c.Budget.InitialDelayMs) * time.Millisecond,
		MaxDelay:          time.Duration(c.Budget.MaxDelayMs) * time.Millisecond,
		BackoffMultiplier: c.Budget.BackoffMultiplier,
		RespectRetryAfter: c.Budget.RespectRetryAfter,
	}
	if d := c.budgetDeadline(); d > 0 {
		limits.Deadline = time.Now().Add(d)
	}
	return limits
}

// EndpointLimits lowers the session-level budget config into the
// budget.Limits every contract endpoint is registered with: the same
// backoff schedule as the global budget, scoped to the per-endpoint request
// cap rather than the session-wide total.
func (c Config) EndpointLimits() budget.Limits {
	limits := c.ToBudgetLimits()
	limits.MaxRequests = c.Budget.MaxRequestsPerEndpoint
	limits.Deadline = time.Time{}
	return limits
}
