// Package budget implements a rate-aware budget manager that decides
// whether an endpoint may be probed right now, and by how much to back off
// when it may not. It never sleeps itself — Check only ever returns a
// Decision carrying a delay, leaving the wait to the caller, so the core
// fuzzing loop has exactly one suspension point for rate limiting.
//
// The mutex-protected-map-of-per-route-state shape is grounded on
// gateway.APIGateway (rateLimiters/circuitBreaker maps behind one mu), and
// the per-route rate.Limiter on the same file's RegisterRoute. Where the
// gateway enforces inbound limits with an http.Handler, this package
// advises an outbound caller — Check replaces ServeHTTP's Allow-or-403
// branch with a decision the orchestrator interprets.
package budget

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Outcome is the disposition recorded for one completed request.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeClientError
	OutcomeRateLimited
	OutcomeServerError
	OutcomeTransportFailure
)

// Verdict is why Check refused or delayed a request.
type Verdict string

const (
	VerdictAllow             Verdict = "allow"
	VerdictGlobalDeadline    Verdict = "global_deadline_exceeded"
	VerdictGlobalRequests    Verdict = "global_requests_exhausted"
	VerdictGlobalRateLimited Verdict = "global_rate_limited"
	VerdictBanned            Verdict = "endpoint_banned"
	VerdictExhausted         Verdict = "endpoint_requests_exhausted"
	VerdictRateLimited       Verdict = "endpoint_rate_limited"
	VerdictMinSpacing        Verdict = "minimum_spacing"
)

// Decision is the result of a Check call.
type Decision struct {
	Verdict Verdict
	Delay   time.Duration
}

func (d Decision) Allowed() bool { return d.Verdict == VerdictAllow }

// Limits configures one endpoint's or the session's budget, including the
// backoff schedule 429/503 responses drive: InitialDelay is both the
// starting delay and the floor success decays toward, MaxDelay caps it,
// BackoffMultiplier scales it in each direction, and RespectRetryAfter
// gates whether a server Retry-After overrides the computed delay.
type Limits struct {
	MaxRequests       int
	Deadline          time.Time
	RequestsPerSec    float64
	MinSpacing        time.Duration
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	RespectRetryAfter bool
}

// endpointState is the mutable counters tracked per endpoint, guarded by
// Manager.mu.
type endpointState struct {
	requestsUsed  int
	successes     int
	failures      int
	rateLimited   int
	banned        bool
	limiter       *rate.Limiter
	lastRequestAt time.Time
	delay         time.Duration
	limits        Limits
}

// Manager tracks a global budget plus one budget per endpoint. All state
// transitions happen atomically behind a single mutex, and no method
// blocks.
type Manager struct {
	mu       sync.Mutex
	logger   *slog.Logger
	global   endpointState
	perEP    map[string]*endpointState
	now      func() time.Time
}

// New builds a Manager with the given global limits. logger may be nil, in
// which case a discard logger is used.
func New(global Limits, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Manager{
		logger: logger.With("component", "budget"),
		perEP:  make(map[string]*endpointState),
		now:    time.Now,
	}
	m.global.limits = global
	if global.RequestsPerSec > 0 {
		m.global.limiter = rate.NewLimiter(rate.Limit(global.RequestsPerSec), 1)
	}
	return m
}

// Register declares the per-endpoint budget for id. Calling it more than
// once replaces the prior limits but preserves counters.
func (m *Manager) Register(id string, limits Limits) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.perEP[id]
	if !ok {
		st = &endpointState{}
		m.perEP[id] = st
	}
	st.limits = limits
	if limits.RequestsPerSec > 0 {
		st.limiter = rate.NewLimiter(rate.Limit(limits.RequestsPerSec), 1)
	}
}

// Check evaluates a fixed seven-step precedence order and returns a
// Decision. It never sleeps; a non-allow Decision carries the delay the
// caller should wait before retrying.
func (m *Manager) Check(id string) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	// 1. global deadline
	if !m.global.limits.Deadline.IsZero() && now.After(m.global.limits.Deadline) {
		return Decision{Verdict: VerdictGlobalDeadline}
	}

	// 2. global request budget
	if m.global.limits.MaxRequests > 0 && m.global.requestsUsed >= m.global.limits.MaxRequests {
		return Decision{Verdict: VerdictGlobalRequests}
	}

	// 3. global rate limit
	if m.global.limiter != nil {
		if d := m.global.limiter.Reserve().Delay(); d > 0 {
			return Decision{Verdict: VerdictGlobalRateLimited, Delay: d}
		}
	}

	st := m.ensureLocked(id)

	// 4. per-endpoint banned
	if st.banned {
		return Decision{Verdict: VerdictBanned}
	}

	// 5. per-endpoint requests exhausted
	if st.limits.MaxRequests > 0 && st.requestsUsed >= st.limits.MaxRequests {
		return Decision{Verdict: VerdictExhausted}
	}
	if !st.limits.Deadline.IsZero() && now.After(st.limits.Deadline) {
		return Decision{Verdict: VerdictExhausted}
	}

	// 6. per-endpoint rate limit (adaptive delay accumulated from 429/503)
	if st.delay > 0 {
		elapsed := now.Sub(st.lastRequestAt)
		if elapsed < st.delay {
			return Decision{Verdict: VerdictRateLimited, Delay: st.delay - elapsed}
		}
	}
	if st.limiter != nil {
		if d := st.limiter.Reserve().Delay(); d > 0 {
			return Decision{Verdict: VerdictRateLimited, Delay: d}
		}
	}

	// 7. minimum spacing
	if st.limits.MinSpacing > 0 && !st.lastRequestAt.IsZero() {
		elapsed := now.Sub(st.lastRequestAt)
		if elapsed < st.limits.MinSpacing {
			return Decision{Verdict: VerdictMinSpacing, Delay: st.limits.MinSpacing - elapsed}
		}
	}

	return Decision{Verdict: VerdictAllow}
}

// Record updates counters after a request completes. retryAfter is the
// parsed Retry-After duration (zero if absent/not applicable) and only
// matters for OutcomeRateLimited.
func (m *Manager) Record(id string, outcome Outcome, retryAfter time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	st := m.ensureLocked(id)

	m.global.requestsUsed++
	st.requestsUsed++
	st.lastRequestAt = now

	switch outcome {
	case OutcomeSuccess:
		st.successes++
		st.delay = decay(st.delay, st.limits)
	case OutcomeClientError:
		st.failures++
	case OutcomeServerError, OutcomeTransportFailure:
		st.failures++
	case OutcomeRateLimited:
		st.failures++
		st.rateLimited++
		st.delay = backoff(st.delay, retryAfter, st.limits)
		if m.global.limiter != nil {
			m.global.limiter.SetLimit(m.global.limiter.Limit() / 2)
		}
		m.logger.Warn("endpoint rate limited", "endpoint", id, "delay_ms", st.delay.Milliseconds())
	}

	if st.failures >= 10 && st.successes == 0 {
		st.banned = true
		m.logger.Warn("endpoint banned", "endpoint", id, "failures", st.failures)
	}
}

// Healthy reports the session-wide health verdict: false once banned
// endpoints exceed 50% of seen endpoints, rate-limited endpoints exceed 80%,
// or the average success rate across seen endpoints drops below 50%.
// Unhealthy sessions halt new endpoint work (the orchestrator's UNHEALTHY
// state transition), though endpoints already TESTING still finish their
// current probe.
func (m *Manager) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := 0
	banned := 0
	rateLimited := 0
	var successRateSum float64

	for _, st := range m.perEP {
		if st.requestsUsed == 0 {
			continue
		}
		seen++
		if st.banned {
			banned++
		}
		if st.rateLimited > 0 {
			rateLimited++
		}
		successRateSum += float64(st.successes) / float64(st.requestsUsed)
	}

	if seen == 0 {
		return true
	}
	if float64(banned)/float64(seen) > 0.5 {
		return false
	}
	if float64(rateLimited)/float64(seen) > 0.8 {
		return false
	}
	if successRateSum/float64(seen) < 0.5 {
		return false
	}
	return true
}

func (m *Manager) ensureLocked(id string) *endpointState {
	st, ok := m.perEP[id]
	if !ok {
		st = &endpointState{}
		m.perEP[id] = st
	}
	return st
}

const (
	defaultInitialDelay      = 250 * time.Millisecond
	defaultMaxDelay          = 60 * time.Second
	defaultBackoffMultiplier = 2.0
)

// decay divides an accumulated backoff by limits.BackoffMultiplier after a
// success, never going below limits.InitialDelay once some delay has
// accumulated, and staying at zero for endpoints that never backed off.
func decay(current time.Duration, limits Limits) time.Duration {
	if current == 0 {
		return 0
	}
	floor := limits.InitialDelay
	if floor <= 0 {
		floor = defaultInitialDelay
	}
	mult := limits.BackoffMultiplier
	if mult <= 1 {
		mult = defaultBackoffMultiplier
	}
	next := time.Duration(float64(current) / mult)
	if next < floor {
		return floor
	}
	return next
}

// backoff computes the next delay after a 429/503: a server Retry-After
// wins when present and limits.RespectRetryAfter is set, otherwise the
// prior delay is multiplied by limits.BackoffMultiplier, capped at
// limits.MaxDelay.
func backoff(current, retryAfter time.Duration, limits Limits) time.Duration {
	maxDelay := limits.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	if retryAfter > 0 && limits.RespectRetryAfter {
		if retryAfter > maxDelay {
			return maxDelay
		}
		return retryAfter
	}
	initial := limits.InitialDelay
	if initial <= 0 {
		initial = defaultInitialDelay
	}
	if current == 0 {
		return initial
	}
	mult := limits.BackoffMultiplier
	if mult <= 1 {
		mult = defaultBackoffMultiplier
	}
	next := time.Duration(float64(current) * mult)
	if next > maxDelay {
		return maxDelay
	}
	return next
}

// ParseRetryAfter parses a Retry-After header value, which is either an
// integer number of seconds or an HTTP-date. Only the seconds form is
// supported; an HTTP-date value reports ok=false and the caller falls back
// to exponential backoff.
func ParseRetryAfter(value string) (time.Duration, bool) {
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
