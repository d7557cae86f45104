package transport

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"sync"
)

// Rule matches a request and supplies a canned response, in registration
// order. Mock is the fixture used to script transport behavior in tests
// (e.g. "return status 500 with a given body whenever the payload contains
// DROP TABLE or ' OR '1'='1").
type Rule struct {
	// Match reports whether this rule applies to the given request. A nil
	// Match matches everything — use it as a trailing default rule.
	Match func(RequestSpec) bool
	Status uint16
	Headers map[string]string
	Body []byte
	ElapsedMs int64
	Err error
}

// Contains builds a Match that fires when the request body, or the request
// URL after query-unescaping, contains any of the given substrings.
func Contains(substrs ...string) func(RequestSpec) bool {
	return func(r RequestSpec) bool {
		target := r.URL
		if decoded, err := url.QueryUnescape(r.URL); err == nil {
			target = decoded
		}
		for _, s := range substrs {
			if bytes.Contains(r.Body, []byte(s)) || strings.Contains(target, s) {
				return true
			}
		}
		return false
	}
}

// Mock is an in-memory, programmable Transport for tests.
type Mock struct {
	mu    sync.Mutex
	rules []Rule
	calls []RequestSpec
}

// NewMock builds an empty Mock. Rules are evaluated in the order added by
// Respond; the first match wins.
func NewMock() *Mock {
	return &Mock{}
}

// Respond registers a rule.
func (m *Mock) Respond(r Rule) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, r)
	return m
}

// Calls returns every request observed so far, in order.
func (m *Mock) Calls() []RequestSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RequestSpec(nil), m.calls...)
}

// Send implements Transport.
func (m *Mock) Send(ctx context.Context, req RequestSpec) (ResponseData, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	rules := m.rules
	m.mu.Unlock()

	for _, rule := range rules {
		if rule.Match != nil && !rule.Match(req) {
			continue
		}
		if rule.Err != nil {
			return ResponseData{}, rule.Err
		}
		headers := NewHeader()
		for k, v := range rule.Headers {
			headers.Add(k, v)
		}
		return ResponseData{
			Status:    rule.Status,
			Headers:   headers,
			Body:      rule.Body,
			SizeBytes: int64(len(rule.Body)),
			ElapsedMs: rule.ElapsedMs,
		}, nil
	}

	return ResponseData{Status: 200, Headers: NewHeader(), SizeBytes: 0, ElapsedMs: 1}, nil
}
